/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "errors"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/adapters/jira"
    "github.com/HamedShams/agile-dashboard/internal/adapters/openai"
    "github.com/HamedShams/agile-dashboard/internal/adapters/telegram"
    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/HamedShams/agile-dashboard/internal/dashboard"
    httpapi "github.com/HamedShams/agile-dashboard/internal/http"
    "github.com/HamedShams/agile-dashboard/internal/jobs"
    "github.com/HamedShams/agile-dashboard/internal/logger"
    "github.com/HamedShams/agile-dashboard/internal/repo"
    "github.com/HamedShams/agile-dashboard/internal/services"
)

const runRetention = 30 * 24 * time.Hour

func main() {
    cfg := config.Load()
    log := logger.New(cfg)
    if err := cfg.Validate(); err != nil {
        log.Warn().Err(err).Msg("jira is not configured; views will report a connection error")
    }
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // Store is optional: without DB_DSN fetch runs are only logged.
    var store *repo.Repository
    db, err := repo.Open(ctx, cfg, log)
    switch {
    case errors.Is(err, repo.ErrNoDSN):
        log.Info().Msg("no DB_DSN, running without run history")
    case err != nil:
        log.Fatal().Err(err).Msg("db open failed")
    default:
        defer db.Close()
        store = repo.NewRepository(db, log)
        if err := store.EnsureSchema(ctx); err != nil { log.Fatal().Err(err).Msg("db schema failed") }
    }

    jc := jira.NewClient(cfg, log)
    cron := jobs.NewCron(cfg, log)

    opts := []dashboard.Option{dashboard.WithScheduler(cron)}
    if store != nil { opts = append(opts, dashboard.WithRecorder(store)) }
    orch := dashboard.New(jc, log, opts...)
    views := composer.New(orch, log, cfg.RenderTimeout, cfg.DefaultDays)

    llm := openai.NewClient(cfg, log)
    tg := telegram.NewClient(cfg, log)
    svc := services.New(cfg, log, views, llm, tg)

    deps := httpapi.Deps{Tracker: jc, Views: views, Cache: orch, Digest: svc}
    if store != nil {
        deps.Runs = store
        if err := cron.ScheduleDigest(cfg.DigestCron, svc, store); err != nil { log.Fatal().Err(err).Str("cron", cfg.DigestCron).Msg("bad DIGEST_CRON") }
        _, err := cron.Every(24*time.Hour, "prune-runs", func() {
            n, err := store.PruneRuns(context.Background(), runRetention)
            if err != nil { log.Error().Err(err).Msg("prune runs failed"); return }
            log.Info().Int64("deleted", n).Msg("fetch runs pruned")
        })
        if err != nil { log.Fatal().Err(err).Msg("schedule prune failed") }
    } else if err := cron.ScheduleDigest(cfg.DigestCron, svc, nil); err != nil {
        log.Fatal().Err(err).Str("cron", cfg.DigestCron).Msg("bad DIGEST_CRON")
    }
    cron.Start()
    defer cron.Stop()

    srv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewRouter(cfg, log, deps), ReadHeaderTimeout: 10 * time.Second}

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- srv.ListenAndServe() }()
    log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil && !errors.Is(err, http.ErrServerClosed) { log.Error().Err(err).Msg("http server error") }
    }

    shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer shutCancel()
    if err := srv.Shutdown(shutCtx); err != nil { log.Error().Err(err).Msg("http shutdown") }
}
