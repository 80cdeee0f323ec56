/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "time"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/gin-gonic/gin"
    "github.com/google/uuid"
    "github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, d Deps) *gin.Engine {
    if cfg.AppEnv != "dev" { gin.SetMode(gin.ReleaseMode) }
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context){
        start := time.Now()
        reqID := c.GetHeader("X-Request-ID")
        if reqID == "" { reqID = uuid.NewString() }
        c.Header("X-Request-ID", reqID)
        c.Next()
        log.Info().Str("req_id", reqID).Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Dur("took", time.Since(start)).Msg("http")
    })

    h := NewHandlers(cfg, log, d)

    r.GET("/healthz", h.Healthz)

    api := r.Group("/api")
    api.GET("/connection", h.Connection)
    api.GET("/projects", h.Projects)
    api.GET("/projects/:key/overview", h.Overview)
    api.GET("/projects/:key/sprints", h.Sprints)
    api.GET("/projects/:key/flow", h.Flow)
    api.GET("/projects/:key/quality", h.Quality)
    api.GET("/projects/:key/team", h.Team)
    api.GET("/sprints/:id/burndown", h.Burndown)

    admin := r.Group("/admin")
    admin.POST("/refresh", h.Refresh)
    admin.GET("/cache", h.CacheKeys)
    admin.GET("/runs", h.Runs)
    admin.POST("/digest", h.Digest)

    return r
}
