package repo

import (
    "context"
    "errors"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/HamedShams/agile-dashboard/internal/domain"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"
)

var ErrNoDSN = errors.New("repo: DB_DSN not set")

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

// Open connects and pings. Callers treat ErrNoDSN as "run without a store".
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*DB, error) {
    if cfg.DBDSN == "" { return nil, ErrNoDSN }
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { return nil, err }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil {
        pool.Close()
        return nil, err
    }
    return &DB{Pool: pool, log: log}, nil
}

func (d *DB) Close() { d.Pool.Close() }

type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

const schema = `
CREATE TABLE IF NOT EXISTS fetch_runs (
    id          BIGSERIAL PRIMARY KEY,
    kind        TEXT NOT NULL,
    cache_key   TEXT NOT NULL,
    forced      BOOLEAN NOT NULL DEFAULT false,
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL,
    success     BOOLEAN NOT NULL,
    error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS fetch_runs_started_idx ON fetch_runs(started_at DESC);`

func (r *Repository) EnsureSchema(ctx context.Context) error {
    _, err := r.db.Pool.Exec(ctx, schema)
    return err
}

// WithAdvisoryLock runs fn while holding session advisory lock key. The lock
// and unlock share one pooled connection; ran is false when another session
// holds the lock.
func (r *Repository) WithAdvisoryLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (ran bool, err error) {
    conn, err := r.db.Pool.Acquire(ctx)
    if err != nil { return false, err }
    defer conn.Release()
    var ok bool
    if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil { return false, err }
    if !ok { return false, nil }
    defer r.unlock(ctx, conn, key)
    return true, fn(ctx)
}

func (r *Repository) unlock(ctx context.Context, conn *pgxpool.Conn, key int64) {
    uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second); defer cancel()
    var released bool
    err := conn.QueryRow(uctx, "SELECT pg_advisory_unlock($1)", key).Scan(&released)
    if err == nil && released { return }
    r.log.Error().Err(err).Int64("key", key).Bool("released", released).Msg("advisory unlock failed")
    // a session that may still hold the lock must not return to the pool
    _ = conn.Conn().Close(uctx)
}

// RecordFetch appends one orchestrator fetch to the audit log.
func (r *Repository) RecordFetch(ctx context.Context, run domain.FetchRun) error {
    const q = `INSERT INTO fetch_runs(kind, cache_key, forced, started_at, duration_ms, success, error)
        VALUES($1,$2,$3,$4,$5,$6,$7)`
    _, err := r.db.Pool.Exec(ctx, q, run.Kind, run.Key, run.Forced, run.StartedAt, run.Duration.Milliseconds(), run.OK, run.Error)
    return err
}

// LastRuns returns the most recent fetches, newest first.
func (r *Repository) LastRuns(ctx context.Context, limit int) ([]domain.FetchRun, error) {
    if limit <= 0 || limit > 500 { limit = 50 }
    const q = `SELECT id, kind, cache_key, forced, started_at, duration_ms, success, error
        FROM fetch_runs ORDER BY id DESC LIMIT $1`
    rows, err := r.db.Pool.Query(ctx, q, limit)
    if err != nil { return nil, err }
    out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FetchRun, error) {
        var fr domain.FetchRun
        var ms int64
        if err := row.Scan(&fr.ID, &fr.Kind, &fr.Key, &fr.Forced, &fr.StartedAt, &ms, &fr.OK, &fr.Error); err != nil { return fr, err }
        fr.Duration = time.Duration(ms) * time.Millisecond
        return fr, nil
    })
    if err != nil { return nil, err }
    return out, nil
}

// PruneRuns deletes audit rows older than keep.
func (r *Repository) PruneRuns(ctx context.Context, keep time.Duration) (int64, error) {
    tag, err := r.db.Pool.Exec(ctx, `DELETE FROM fetch_runs WHERE started_at < $1`, time.Now().Add(-keep))
    if err != nil { return 0, err }
    return tag.RowsAffected(), nil
}
