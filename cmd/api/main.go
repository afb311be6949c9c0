/* Copyright (c) 2025 Copanies
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/Copanies/copany-credit/internal/adapters/webhook"
    "github.com/Copanies/copany-credit/internal/config"
    "github.com/Copanies/copany-credit/internal/credit"
    httpx "github.com/Copanies/copany-credit/internal/http"
    "github.com/Copanies/copany-credit/internal/jobs"
    "github.com/Copanies/copany-credit/internal/logger"
    "github.com/Copanies/copany-credit/internal/repo"
    "github.com/Copanies/copany-credit/internal/services"
)

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()

    // Engine over the repository; the engine only reads.
    repository := repo.NewRepository(db, log)
    engine := credit.NewEngine(log, repository, cfg.MaxConcurrency, cfg.ActivityFetchLimit)

    // Digest notifier is optional.
    var notify services.Notifier
    if cfg.DigestWebhookURL != "" {
        notify = webhook.New(cfg, log)
    }
    svc := services.New(cfg, log, repository, engine, notify)

    // HTTP server (Gin)
    router := httpx.NewRouter(cfg, log, svc)

    // Cron
    cr := jobs.NewCron(cfg, log, svc, repository)
    cr.Start()
    defer cr.Stop()

    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
