/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package dashboard

import (
    "context"
    "fmt"
    "slices"
    "strings"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/domain"
)

type Kind string

const (
    KindDashboard     Kind = "dashboard-data"
    KindBoards        Kind = "boards"
    KindClosedSprints Kind = "sprints"
    KindActiveSprints Kind = "active-sprints"
    KindSprintIssues  Kind = "sprint-issues"
    KindSprintDetails Kind = "sprint-details"
)

// Key addresses one cached aggregate. Fields unused by a kind stay zero so
// equal parameters always produce equal keys.
type Key struct {
    Kind     Kind   `json:"kind"`
    Project  string `json:"project,omitempty"`
    Days     int    `json:"days,omitempty"`
    BoardID  int64  `json:"boardId,omitempty"`
    SprintID int64  `json:"sprintId,omitempty"`
}

func (k Key) String() string {
    switch k.Kind {
    case KindDashboard:
        return fmt.Sprintf("%s/%s/%d", k.Kind, k.Project, k.Days)
    case KindBoards:
        return fmt.Sprintf("%s/%s", k.Kind, k.Project)
    case KindClosedSprints, KindActiveSprints:
        return fmt.Sprintf("%s/%d", k.Kind, k.BoardID)
    default:
        return fmt.Sprintf("%s/%d", k.Kind, k.SprintID)
    }
}

func DashboardKey(project string, days int) Key { return Key{Kind: KindDashboard, Project: project, Days: days} }
func BoardsKey(project string) Key              { return Key{Kind: KindBoards, Project: project} }
func ClosedSprintsKey(boardID int64) Key        { return Key{Kind: KindClosedSprints, BoardID: boardID} }
func ActiveSprintsKey(boardID int64) Key        { return Key{Kind: KindActiveSprints, BoardID: boardID} }
func SprintIssuesKey(sprintID int64) Key        { return Key{Kind: KindSprintIssues, SprintID: sprintID} }
func SprintDetailsKey(sprintID int64) Key       { return Key{Kind: KindSprintDetails, SprintID: sprintID} }

// Policy is how long a value stays fresh and how often it is refetched in
// the background. Zero Stale means every request refetches; zero Refresh
// means no background refetch.
type Policy struct {
    Stale   time.Duration
    Refresh time.Duration
}

var DefaultPolicies = map[Kind]Policy{
    KindDashboard:     {Stale: 2 * time.Minute, Refresh: 5 * time.Minute},
    KindBoards:        {Stale: 10 * time.Minute},
    KindClosedSprints: {Stale: 5 * time.Minute},
    KindActiveSprints: {Refresh: 2 * time.Minute},
    KindSprintIssues:  {Stale: 3 * time.Minute},
    KindSprintDetails: {Stale: 5 * time.Minute},
}

// IdleRefreshes is how many refresh intervals a key may go unrequested
// before its background job and cached value are dropped.
const IdleRefreshes = 3

type entry struct {
    value     any
    fetchedAt time.Time
    version   uint64
}

func (o *Orchestrator) policy(k Kind) Policy { return o.policies[k] }

func (o *Orchestrator) fresh(key Key) (*entry, bool) {
    o.mu.Lock()
    defer o.mu.Unlock()
    e, ok := o.entries[key]
    if !ok { return nil, false }
    p := o.policy(key.Kind)
    return e, p.Stale > 0 && o.now().Sub(e.fetchedAt) < p.Stale
}

// load returns the cached value for key when fresh, otherwise fetches it.
// Only a key that has produced a value gets a background refresh.
func (o *Orchestrator) load(ctx context.Context, key Key) (*entry, error) {
    o.touch(key)
    if e, ok := o.fresh(key); ok { return e, nil }
    e, err := o.fetch(ctx, key, false)
    if err != nil { return nil, err }
    o.schedule(key)
    return e, nil
}

func (o *Orchestrator) touch(key Key) {
    o.mu.Lock()
    o.requested[key] = o.now()
    o.mu.Unlock()
}

// fetch shares one in-flight request per key. The request runs on a context
// detached from the caller; a caller that stops waiting gets ctx.Err() while
// the fetch still completes and fills the cache.
func (o *Orchestrator) fetch(ctx context.Context, key Key, forced bool) (*entry, error) {
    ch := o.group.DoChan(key.String(), func() (any, error) {
        fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.fetchTimeout)
        defer cancel()
        started := o.now()
        v, err := o.source(fctx, key)
        if err != nil && fctx.Err() != nil { err = fmt.Errorf("dashboard: %s fetch timed out after %s", key, o.fetchTimeout) }
        o.record(fctx, key, forced, started, err)
        if err != nil { return nil, err }
        return o.store(key, v), nil
    })
    select {
    case r := <-ch:
        if r.Err != nil { return nil, r.Err }
        return r.Val.(*entry), nil
    case <-ctx.Done():
        return nil, ctx.Err()
    }
}

func (o *Orchestrator) store(key Key, v any) *entry {
    o.mu.Lock()
    defer o.mu.Unlock()
    o.version++
    e := &entry{value: v, fetchedAt: o.now(), version: o.version}
    o.entries[key] = e
    return e
}

func (o *Orchestrator) record(ctx context.Context, key Key, forced bool, started time.Time, err error) {
    took := o.now().Sub(started)
    ev := o.log.Debug()
    if err != nil { ev = o.log.Warn().Err(err) }
    ev.Str("key", key.String()).Bool("forced", forced).Dur("took", took).Msg("dashboard fetch")
    if o.rec == nil { return }
    run := domain.FetchRun{Kind: string(key.Kind), Key: key.String(), Forced: forced, StartedAt: started, Duration: took, OK: err == nil}
    if err != nil { run.Error = err.Error() }
    if rerr := o.rec.RecordFetch(ctx, run); rerr != nil {
        o.log.Error().Err(rerr).Str("key", key.String()).Msg("record fetch run failed")
    }
}

// schedule registers a background refresh the first time a key with a
// refresh interval is loaded successfully.
func (o *Orchestrator) schedule(key Key) {
    p := o.policy(key.Kind)
    if p.Refresh <= 0 || o.sched == nil { return }
    o.mu.Lock()
    defer o.mu.Unlock()
    if _, ok := o.scheduled[key]; ok { return }
    stop, err := o.sched.Every(p.Refresh, key.String(), func() { o.backgroundRefresh(key, p) })
    if err != nil {
        o.log.Error().Err(err).Str("key", key.String()).Msg("schedule refresh failed")
        return
    }
    o.scheduled[key] = stop
}

// backgroundRefresh refetches key, or evicts it once nobody has asked for
// it in IdleRefreshes intervals.
func (o *Orchestrator) backgroundRefresh(key Key, p Policy) {
    o.mu.Lock()
    idle := o.now().Sub(o.requested[key]) >= IdleRefreshes*p.Refresh
    o.mu.Unlock()
    if idle {
        o.evict(key)
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), o.fetchTimeout)
    defer cancel()
    if _, err := o.fetch(ctx, key, true); err != nil {
        o.log.Warn().Err(err).Str("key", key.String()).Msg("background refresh failed")
    }
}

// evict drops key's background job, cached value and dependent memos.
func (o *Orchestrator) evict(key Key) {
    o.mu.Lock()
    stop := o.scheduled[key]
    delete(o.scheduled, key)
    delete(o.requested, key)
    delete(o.entries, key)
    for name, m := range o.memo {
        if slices.Contains(m.keys, key) { delete(o.memo, name) }
    }
    o.mu.Unlock()
    if stop != nil { stop() }
    o.log.Info().Str("key", key.String()).Msg("idle key evicted")
}

// Refresh refetches key regardless of staleness and replaces the cached value.
func (o *Orchestrator) Refresh(ctx context.Context, key Key) error {
    if _, ok := o.policies[key.Kind]; !ok { return fmt.Errorf("%w: %q", ErrUnknownKind, key.Kind) }
    o.touch(key)
    if _, err := o.fetch(ctx, key, true); err != nil { return err }
    o.schedule(key)
    return nil
}

// Cached lists the keys currently holding a value.
func (o *Orchestrator) Cached() []Key {
    o.mu.Lock()
    defer o.mu.Unlock()
    out := make([]Key, 0, len(o.entries))
    for k := range o.entries { out = append(out, k) }
    slices.SortFunc(out, func(a, b Key) int { return strings.Compare(a.String(), b.String()) })
    return out
}
