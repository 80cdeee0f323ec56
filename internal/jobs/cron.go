package jobs

import (
    "context"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/robfig/cron/v3"
    "github.com/rs/zerolog"
)

type digester interface { RunWeeklyDigest(ctx context.Context) error }

// Locker runs fn only on the replica that wins the lock; ran reports
// whether fn was called.
type Locker interface {
    WithAdvisoryLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (ran bool, err error)
}

const digestLockKey int64 = 424242

type Cron struct {
    cfg config.Config
    log zerolog.Logger
    c   *cron.Cron
}

func NewCron(cfg config.Config, log zerolog.Logger) *Cron {
    loc, err := time.LoadLocation(cfg.TZ)
    if err != nil { loc = time.UTC }
    parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
    c := cron.New(cron.WithLocation(loc), cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
    return &Cron{cfg: cfg, log: log.With().Str("component", "cron").Logger(), c: c}
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop halts scheduling and waits for running jobs.
func (cr *Cron) Stop() { <-cr.c.Stop().Done() }

func (cr *Cron) Entries() int { return len(cr.c.Entries()) }

// Every runs fn at a fixed interval until stop is called.
func (cr *Cron) Every(interval time.Duration, name string, fn func()) (stop func(), err error) {
    id, err := cr.c.AddFunc("@every "+interval.String(), func() {
        cr.log.Debug().Str("job", name).Msg("cron: tick")
        fn()
    })
    if err != nil { return nil, err }
    cr.log.Info().Str("job", name).Dur("every", interval).Msg("cron: scheduled")
    return func() {
        cr.c.Remove(id)
        cr.log.Info().Str("job", name).Msg("cron: removed")
    }, nil
}

// ScheduleDigest registers the weekly digest on a cron expression. With a locker, only
// the replica holding the advisory lock sends it.
func (cr *Cron) ScheduleDigest(expr string, svc digester, lk Locker) error {
    _, err := cr.c.AddFunc(expr, func() { cr.digest(svc, lk) })
    return err
}

func (cr *Cron) digest(svc digester, lk Locker) {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute); defer cancel()
    run := func(ctx context.Context) error {
        cr.log.Info().Msg("cron: weekly digest")
        return svc.RunWeeklyDigest(ctx)
    }
    if lk == nil {
        if err := run(ctx); err != nil { cr.log.Error().Err(err).Msg("cron: digest failed") }
        return
    }
    ran, err := lk.WithAdvisoryLock(ctx, digestLockKey, run)
    switch {
    case err != nil:
        cr.log.Error().Err(err).Bool("ran", ran).Msg("cron: digest failed")
    case !ran:
        cr.log.Info().Msg("cron: already running elsewhere")
    }
}
