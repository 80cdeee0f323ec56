/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/HamedShams/agile-dashboard/internal/dashboard"
    "github.com/HamedShams/agile-dashboard/internal/domain"
    "github.com/HamedShams/agile-dashboard/internal/services"
    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
)

type tracker interface {
    TestConnection(ctx context.Context) bool
    GetProjects(ctx context.Context) ([]domain.Project, error)
}

type views interface {
    Overview(ctx context.Context, project string, days int) composer.Overview
    Sprint(ctx context.Context, project string, days int) composer.SprintView
    Flow(ctx context.Context, project string, days int) composer.FlowView
    Quality(ctx context.Context, project string, days int) composer.QualityView
    Team(ctx context.Context, project string, days int) composer.TeamView
    Burndown(ctx context.Context, sprintID int64) composer.BurndownView
}

type cache interface {
    Refresh(ctx context.Context, key dashboard.Key) error
    Cached() []dashboard.Key
}

type runLog interface {
    LastRuns(ctx context.Context, limit int) ([]domain.FetchRun, error)
}

type digester interface {
    RunWeeklyDigest(ctx context.Context) error
    Build(ctx context.Context) (*services.Digest, error)
}

// Deps are the collaborators the handlers serve. Runs and Digest may be nil.
type Deps struct {
    Tracker tracker
    Views   views
    Cache   cache
    Runs    runLog
    Digest  digester
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    d   Deps
}

func NewHandlers(cfg config.Config, log zerolog.Logger, d Deps) *Handlers {
    return &Handlers{cfg: cfg, log: log, d: d}
}

type windowQuery struct {
    Days int `form:"days" binding:"omitempty,min=1,max=365"`
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Connection(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"connected": h.d.Tracker.TestConnection(c.Request.Context())})
}

func (h *Handlers) Projects(c *gin.Context) {
    ps, err := h.d.Tracker.GetProjects(c.Request.Context())
    if err != nil {
        h.log.Error().Err(err).Msg("list projects failed")
        c.JSON(http.StatusBadGateway, gin.H{"error": composer.GenericError})
        return
    }
    if ps == nil { ps = []domain.Project{} }
    c.JSON(http.StatusOK, ps)
}

// window reads the project key and optional day window.
func (h *Handlers) window(c *gin.Context) (string, int, bool) {
    var q windowQuery
    if err := c.ShouldBindQuery(&q); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return "", 0, false
    }
    project := strings.ToUpper(strings.TrimSpace(c.Param("key")))
    if project == "" { project = h.cfg.JiraDefaultProject }
    return project, q.Days, true
}

// respond maps view state to a status code; the body is always the view.
func respond(c *gin.Context, st composer.State, v any) {
    switch {
    case st.Error != "":
        c.JSON(http.StatusBadGateway, v)
    case st.Loading:
        c.JSON(http.StatusAccepted, v)
    default:
        c.JSON(http.StatusOK, v)
    }
}

func (h *Handlers) Overview(c *gin.Context) {
    p, d, ok := h.window(c); if !ok { return }
    v := h.d.Views.Overview(c.Request.Context(), p, d)
    respond(c, v.State, v)
}

func (h *Handlers) Sprints(c *gin.Context) {
    p, d, ok := h.window(c); if !ok { return }
    v := h.d.Views.Sprint(c.Request.Context(), p, d)
    respond(c, v.State, v)
}

func (h *Handlers) Flow(c *gin.Context) {
    p, d, ok := h.window(c); if !ok { return }
    v := h.d.Views.Flow(c.Request.Context(), p, d)
    respond(c, v.State, v)
}

func (h *Handlers) Quality(c *gin.Context) {
    p, d, ok := h.window(c); if !ok { return }
    v := h.d.Views.Quality(c.Request.Context(), p, d)
    respond(c, v.State, v)
}

func (h *Handlers) Team(c *gin.Context) {
    p, d, ok := h.window(c); if !ok { return }
    v := h.d.Views.Team(c.Request.Context(), p, d)
    respond(c, v.State, v)
}

func (h *Handlers) Burndown(c *gin.Context) {
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sprint id"})
        return
    }
    v := h.d.Views.Burndown(c.Request.Context(), id)
    respond(c, v.State, v)
}

type refreshRequest struct {
    Kind     string `json:"kind" binding:"required"`
    Project  string `json:"project"`
    Days     int    `json:"days" binding:"omitempty,min=1,max=365"`
    BoardID  int64  `json:"boardId"`
    SprintID int64  `json:"sprintId"`
}

func (h *Handlers) Refresh(c *gin.Context) {
    var req refreshRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }
    key := dashboard.Key{Kind: dashboard.Kind(req.Kind), Project: strings.ToUpper(req.Project), Days: req.Days, BoardID: req.BoardID, SprintID: req.SprintID}
    if key.Kind == dashboard.KindDashboard && key.Days == 0 { key.Days = h.cfg.DefaultDays }
    if err := h.d.Cache.Refresh(c.Request.Context(), key); err != nil {
        if errors.Is(err, dashboard.ErrUnknownKind) {
            c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
            return
        }
        h.log.Error().Err(err).Str("key", key.String()).Msg("admin refresh failed")
        c.JSON(http.StatusBadGateway, gin.H{"error": composer.GenericError})
        return
    }
    c.JSON(http.StatusOK, gin.H{"refreshed": key.String()})
}

func (h *Handlers) CacheKeys(c *gin.Context) {
    c.JSON(http.StatusOK, h.d.Cache.Cached())
}

func (h *Handlers) Runs(c *gin.Context) {
    if h.d.Runs == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "no store configured"})
        return
    }
    limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
    runs, err := h.d.Runs.LastRuns(c.Request.Context(), limit)
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, runs)
}

func (h *Handlers) Digest(c *gin.Context) {
    if h.d.Digest == nil {
        c.JSON(http.StatusNotFound, gin.H{"error": "digest not configured"})
        return
    }
    if c.Query("dry_run") != "" {
        d, err := h.d.Digest.Build(c.Request.Context())
        if err != nil {
            c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
            return
        }
        c.JSON(http.StatusOK, d)
        return
    }
    // outlives the request
    go func(){
        if err := h.d.Digest.RunWeeklyDigest(context.Background()); err != nil { h.log.Error().Err(err).Msg("on-demand digest failed") }
    }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
