package webhook

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "time"

    "github.com/Copanies/copany-credit/internal/config"
    "github.com/rs/zerolog"
)

// Client posts JSON digests to a configured webhook endpoint.
type Client struct {
    url  string
    http *http.Client
    log  zerolog.Logger
}

func New(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{url: cfg.DigestWebhookURL, http: &http.Client{Timeout: 10 * time.Second}, log: log}
}

func (c *Client) SendDigest(ctx context.Context, payload any) error {
    if c.url == "" { return fmt.Errorf("webhook: missing url") }
    b, err := json.Marshal(payload)
    if err != nil { return err }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
    if err != nil { return err }
    req.Header.Set("Content-Type", "application/json")
    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        bb, _ := io.ReadAll(resp.Body)
        return fmt.Errorf("webhook status=%d body=%s", resp.StatusCode, string(bb))
    }
    return nil
}
