/* Copyright (c) 2025 Copanies
 * SPDX-License-Identifier: BSD-3-Clause */
package jobs

import (
    "context"
    "time"

    "github.com/Copanies/copany-credit/internal/config"
    "github.com/Copanies/copany-credit/internal/repo"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type service interface { RunLeaderboardDigest(ctx context.Context) error }

type Cron struct {
    cfg  config.Config
    log  zerolog.Logger
    svc  service
    repo *repo.Repository
    c    *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger, svc service, r *repo.Repository) *Cron {
    loc, _ := time.LoadLocation(cfg.TZ)
    c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
    cr := &Cron{cfg: cfg, log: log, svc: svc, repo: r, c: c}
    _, _ = c.AddFunc(cfg.DigestCron, cr.weekly)
    return cr
}

func (cr *Cron) Start(){ cr.c.Start() }
func (cr *Cron) Stop(){ cr.c.Stop() }

func (cr *Cron) weekly(){
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute); defer cancel()
    const lockKey int64 = 787878
    ok, err := cr.repo.TryAdvisoryLock(ctx, lockKey)
    if err != nil { cr.log.Error().Err(err).Msg("cron: lock error"); return }
    if !ok { cr.log.Info().Msg("cron: already running elsewhere"); return }
    defer func(){ _ = cr.repo.AdvisoryUnlock(context.Background(), lockKey) }()
    cr.log.Info().Msg("cron: leaderboard digest")
    if err := cr.svc.RunLeaderboardDigest(ctx); err != nil { cr.log.Error().Err(err).Msg("cron: digest failed") }
}
