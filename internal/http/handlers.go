/* Copyright (c) 2025 Copanies
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/Copanies/copany-credit/internal/config"
    "github.com/Copanies/copany-credit/internal/credit"
    "github.com/Copanies/copany-credit/internal/domain"
    "github.com/Copanies/copany-credit/internal/services"
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
)

type service interface {
    ComputeContributions(ctx context.Context, copanyID int64) ([]domain.Contribution, error)
    ListIssues(ctx context.Context, copanyID int64) ([]domain.Issue, error)
    ListActivities(ctx context.Context, issueID int64) ([]domain.ActivityRecord, error)
    CreateIssue(ctx context.Context, copanyID int64, in services.NewIssue) (*domain.Issue, error)
    UpdateIssue(ctx context.Context, issueID int64, p services.IssuePatch) (*domain.Issue, error)
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

// idParam rejects missing or non-numeric identifiers before any engine work.
func idParam(c *gin.Context, name string) (int64, bool) {
    id, err := strconv.ParseInt(c.Param(name), 10, 64)
    if err != nil || id <= 0 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid " + name})
        return 0, false
    }
    return id, true
}

func (h *Handlers) fail(c *gin.Context, err error) {
    switch {
    case errors.Is(err, context.DeadlineExceeded):
        c.JSON(http.StatusGatewayTimeout, gin.H{"error": "computation timed out; retry"})
    case errors.Is(err, domain.ErrNotFound):
        c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
    case errors.Is(err, credit.ErrInvalidAttribute):
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    default:
        c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
    }
}

func (h *Handlers) Contributions(c *gin.Context) {
    copanyID, ok := idParam(c, "copany_id")
    if !ok { return }
    ranked, err := h.svc.ComputeContributions(c.Request.Context(), copanyID)
    if err != nil {
        h.log.Error().Err(err).Int64("copany", copanyID).Msg("compute contributions failed")
        h.fail(c, err)
        return
    }
    if ranked == nil { ranked = []domain.Contribution{} }
    c.JSON(http.StatusOK, ranked)
}

func (h *Handlers) ListIssues(c *gin.Context) {
    copanyID, ok := idParam(c, "copany_id")
    if !ok { return }
    issues, err := h.svc.ListIssues(c.Request.Context(), copanyID)
    if err != nil { h.fail(c, err); return }
    if issues == nil { issues = []domain.Issue{} }
    c.JSON(http.StatusOK, issues)
}

func (h *Handlers) ListActivities(c *gin.Context) {
    issueID, ok := idParam(c, "id")
    if !ok { return }
    acts, err := h.svc.ListActivities(c.Request.Context(), issueID)
    if err != nil { h.fail(c, err); return }
    if acts == nil { acts = []domain.ActivityRecord{} }
    c.JSON(http.StatusOK, acts)
}

func (h *Handlers) CreateIssue(c *gin.Context) {
    copanyID, ok := idParam(c, "copany_id")
    if !ok { return }
    var in services.NewIssue
    if err := c.ShouldBindJSON(&in); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
        return
    }
    if in.ActorID == "" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "missing actor_id"})
        return
    }
    issue, err := h.svc.CreateIssue(c.Request.Context(), copanyID, in)
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusCreated, issue)
}

func (h *Handlers) UpdateIssue(c *gin.Context) {
    issueID, ok := idParam(c, "id")
    if !ok { return }
    var p services.IssuePatch
    if err := c.ShouldBindJSON(&p); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
        return
    }
    if p.ActorID == "" {
        c.JSON(http.StatusBadRequest, gin.H{"error": "missing actor_id"})
        return
    }
    issue, err := h.svc.UpdateIssue(c.Request.Context(), issueID, p)
    if err != nil { h.fail(c, err); return }
    c.JSON(http.StatusOK, issue)
}
