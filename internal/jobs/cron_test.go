package jobs

import (
    "context"
    "errors"
    "sync/atomic"
    "testing"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/rs/zerolog"
)

type countingDigest struct{ n atomic.Int32 }

func (d *countingDigest) RunWeeklyDigest(ctx context.Context) error { d.n.Add(1); return nil }

type fakeLocker struct {
    grant bool
    err   error
    held  atomic.Int32
}

func (l *fakeLocker) WithAdvisoryLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error) {
    if l.err != nil || !l.grant { return false, l.err }
    l.held.Add(1)
    defer l.held.Add(-1)
    return true, fn(ctx)
}

func TestEvery_RunsOnInterval(t *testing.T) {
    cr := NewCron(config.Config{TZ: "UTC"}, zerolog.Nop())
    var hits atomic.Int32
    stop, err := cr.Every(time.Second, "tick", func() { hits.Add(1) })
    if err != nil { t.Fatalf("every: %v", err) }
    if cr.Entries() != 1 { t.Fatalf("expected 1 entry, got %d", cr.Entries()) }
    cr.Start()
    defer cr.Stop()
    deadline := time.Now().Add(3 * time.Second)
    for hits.Load() == 0 && time.Now().Before(deadline) { time.Sleep(20 * time.Millisecond) }
    if hits.Load() == 0 { t.Fatalf("job never ran") }

    stop()
    deadline = time.Now().Add(time.Second)
    for cr.Entries() != 0 && time.Now().Before(deadline) { time.Sleep(10 * time.Millisecond) }
    if cr.Entries() != 0 { t.Fatalf("stopped job still scheduled") }
}

func TestScheduleDigest_RejectsBadSpec(t *testing.T) {
    cr := NewCron(config.Config{TZ: "Nowhere/Invalid"}, zerolog.Nop())
    if err := cr.ScheduleDigest("not a cron line", &countingDigest{}, nil); err == nil { t.Fatalf("expected parse error") }
    if err := cr.ScheduleDigest("0 10 * * FRI", &countingDigest{}, nil); err != nil { t.Fatalf("valid expression rejected: %v", err) }
}

func TestDigest_HonoursAdvisoryLock(t *testing.T) {
    cr := NewCron(config.Config{TZ: "UTC"}, zerolog.Nop())
    svc := &countingDigest{}

    cr.digest(svc, nil)
    if svc.n.Load() != 1 { t.Fatalf("digest without locker should run") }

    held := &fakeLocker{grant: true}
    cr.digest(svc, held)
    if svc.n.Load() != 2 || held.held.Load() != 0 { t.Fatalf("locked digest should run and release the lock") }

    busy := &fakeLocker{grant: false}
    cr.digest(svc, busy)
    if svc.n.Load() != 2 { t.Fatalf("digest ran without the lock") }

    broken := &fakeLocker{err: errors.New("db down")}
    cr.digest(svc, broken)
    if svc.n.Load() != 2 { t.Fatalf("digest ran despite lock error") }
}
