/* Copyright (c) 2025 Copanies
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "github.com/Copanies/copany-credit/internal/config"
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc service) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context){
        c.Next()
        log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Msg("http")
    })

    h := NewHandlers(cfg, log, svc)

    r.GET("/healthz", h.Healthz)
    r.GET("/copanies/:copany_id/contributions", h.Contributions)
    r.GET("/copanies/:copany_id/issues", h.ListIssues)
    r.POST("/copanies/:copany_id/issues", h.CreateIssue)
    r.GET("/issues/:id/activities", h.ListActivities)
    r.PATCH("/issues/:id", h.UpdateIssue)

    return r
}
