/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package dashboard

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/domain"
    "github.com/rs/zerolog"
    "golang.org/x/sync/errgroup"
    "golang.org/x/sync/singleflight"
)

var (
    ErrUnknownKind = errors.New("dashboard: unknown aggregate kind")
    ErrNoProject   = errors.New("dashboard: project key required")
    ErrNoSprint    = errors.New("dashboard: sprint id required")
)

// Source is the subset of the tracker client the orchestrator reads from.
type Source interface {
    ProjectDashboardData(ctx context.Context, project string, days int) (*domain.DashboardData, error)
    GetBoards(ctx context.Context, projectKeyOrID string) ([]domain.Board, error)
    GetBoardSprints(ctx context.Context, boardID int64, state string) ([]domain.Sprint, error)
    GetSprintIssues(ctx context.Context, sprintID int64) ([]domain.Issue, error)
    GetSprintData(ctx context.Context, sprintID int64) (*domain.Sprint, error)
}

// Scheduler runs fn every interval until stop is called.
type Scheduler interface {
    Every(interval time.Duration, name string, fn func()) (stop func(), err error)
}

type RunRecorder interface {
    RecordFetch(ctx context.Context, run domain.FetchRun) error
}

type Orchestrator struct {
    src          Source
    log          zerolog.Logger
    now          func() time.Time
    policies     map[Kind]Policy
    fetchTimeout time.Duration
    sched        Scheduler
    rec          RunRecorder

    group singleflight.Group

    mu        sync.Mutex
    entries   map[Key]*entry
    version   uint64
    scheduled map[Key]func()
    requested map[Key]time.Time
    memo      map[string]memoEntry
}

type Option func(*Orchestrator)

func WithScheduler(s Scheduler) Option       { return func(o *Orchestrator) { o.sched = s } }
func WithRecorder(r RunRecorder) Option      { return func(o *Orchestrator) { o.rec = r } }
func WithClock(now func() time.Time) Option  { return func(o *Orchestrator) { o.now = now } }
func WithFetchTimeout(d time.Duration) Option { return func(o *Orchestrator) { if d > 0 { o.fetchTimeout = d } } }

// WithPolicy overrides the cache policy of one aggregate kind.
func WithPolicy(k Kind, p Policy) Option {
    return func(o *Orchestrator) { o.policies[k] = p }
}

func New(src Source, log zerolog.Logger, opts ...Option) *Orchestrator {
    o := &Orchestrator{
        src:          src,
        log:          log.With().Str("component", "dashboard").Logger(),
        now:          time.Now,
        policies:     make(map[Kind]Policy, len(DefaultPolicies)),
        fetchTimeout: 2 * time.Minute,
        entries:      map[Key]*entry{},
        scheduled:    map[Key]func(){},
        requested:    map[Key]time.Time{},
        memo:         map[string]memoEntry{},
    }
    for k, p := range DefaultPolicies { o.policies[k] = p }
    for _, opt := range opts { opt(o) }
    return o
}

// source performs the network read behind one key.
func (o *Orchestrator) source(ctx context.Context, key Key) (any, error) {
    switch key.Kind {
    case KindDashboard:
        return o.src.ProjectDashboardData(ctx, key.Project, key.Days)
    case KindBoards:
        return o.src.GetBoards(ctx, key.Project)
    case KindClosedSprints:
        return o.src.GetBoardSprints(ctx, key.BoardID, domain.SprintClosed)
    case KindActiveSprints:
        return o.src.GetBoardSprints(ctx, key.BoardID, domain.SprintActive)
    case KindSprintIssues:
        return o.src.GetSprintIssues(ctx, key.SprintID)
    case KindSprintDetails:
        return o.src.GetSprintData(ctx, key.SprintID)
    }
    return nil, fmt.Errorf("%w: %q", ErrUnknownKind, key.Kind)
}

func loadAs[T any](ctx context.Context, o *Orchestrator, key Key) (T, uint64, error) {
    var zero T
    e, err := o.load(ctx, key)
    if err != nil { return zero, 0, err }
    v, ok := e.value.(T)
    if !ok { return zero, 0, fmt.Errorf("dashboard: %s holds %T", key, e.value) }
    return v, e.version, nil
}

func (o *Orchestrator) DashboardData(ctx context.Context, project string, days int) (*domain.DashboardData, error) {
    if project == "" { return nil, ErrNoProject }
    v, _, err := loadAs[*domain.DashboardData](ctx, o, DashboardKey(project, days))
    return v, err
}

func (o *Orchestrator) Boards(ctx context.Context, project string) ([]domain.Board, error) {
    v, _, err := loadAs[[]domain.Board](ctx, o, BoardsKey(project))
    return v, err
}

func (o *Orchestrator) SprintIssues(ctx context.Context, sprintID int64) ([]domain.Issue, error) {
    if sprintID <= 0 { return nil, ErrNoSprint }
    v, _, err := loadAs[[]domain.Issue](ctx, o, SprintIssuesKey(sprintID))
    return v, err
}

func (o *Orchestrator) SprintDetails(ctx context.Context, sprintID int64) (*domain.Sprint, error) {
    if sprintID <= 0 { return nil, ErrNoSprint }
    v, _, err := loadAs[*domain.Sprint](ctx, o, SprintDetailsKey(sprintID))
    return v, err
}

type SprintData struct {
    Boards        []domain.Board  `json:"boards"`
    Sprints       []domain.Sprint `json:"sprints"`
    ActiveSprints []domain.Sprint `json:"activeSprints"`
}

// SprintData loads the project's boards, then the closed and active sprints
// of the first board in parallel. The first error encountered is returned.
func (o *Orchestrator) SprintData(ctx context.Context, project string) (SprintData, error) {
    out := SprintData{Boards: []domain.Board{}, Sprints: []domain.Sprint{}, ActiveSprints: []domain.Sprint{}}
    if project == "" { return out, ErrNoProject }
    boards, _, err := loadAs[[]domain.Board](ctx, o, BoardsKey(project))
    if err != nil { return out, err }
    out.Boards = boards
    if len(boards) == 0 { return out, nil }
    board := boards[0].ID
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        v, _, err := loadAs[[]domain.Sprint](gctx, o, ClosedSprintsKey(board))
        if err == nil { out.Sprints = v }
        return err
    })
    g.Go(func() error {
        v, _, err := loadAs[[]domain.Sprint](gctx, o, ActiveSprintsKey(board))
        if err == nil { out.ActiveSprints = v }
        return err
    })
    return out, g.Wait()
}
