/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package dashboard

import (
    "context"
    "fmt"
    "slices"

    "github.com/HamedShams/agile-dashboard/internal/domain"
    "github.com/HamedShams/agile-dashboard/internal/metrics"
    "golang.org/x/sync/errgroup"
)

// memoEntry is a derived value, the keys it reads and the upstream versions
// it was computed from.
type memoEntry struct {
    keys  []Key
    deps  []uint64
    value any
}

// derive returns the memoized value for name while deps are unchanged and
// recomputes it otherwise.
func derive[T any](o *Orchestrator, name string, keys []Key, deps []uint64, compute func() T) T {
    o.mu.Lock()
    m, ok := o.memo[name]
    o.mu.Unlock()
    if ok && slices.Equal(m.deps, deps) {
        if v, ok := m.value.(T); ok { return v }
    }
    v := compute()
    o.mu.Lock()
    o.memo[name] = memoEntry{keys: keys, deps: deps, value: v}
    o.mu.Unlock()
    return v
}

// CalculatedMetrics derives the dashboard summary once dashboard data has
// resolved; it is recomputed only when that data is refetched.
func (o *Orchestrator) CalculatedMetrics(ctx context.Context, project string, days int) (metrics.Summary, error) {
    if project == "" { return metrics.Summary{}, ErrNoProject }
    key := DashboardKey(project, days)
    data, ver, err := loadAs[*domain.DashboardData](ctx, o, key)
    if err != nil { return metrics.Summary{}, err }
    name := "calculated-metrics/" + key.String()
    return derive(o, name, []Key{key}, []uint64{ver}, func() metrics.Summary { return metrics.Summarize(data) }), nil
}

func (o *Orchestrator) TeamMetrics(ctx context.Context, project string, days int) (metrics.Team, error) {
    if project == "" { return metrics.Team{}, ErrNoProject }
    key := DashboardKey(project, days)
    data, ver, err := loadAs[*domain.DashboardData](ctx, o, key)
    if err != nil { return metrics.Team{}, err }
    name := "team-metrics/" + key.String()
    return derive(o, name, []Key{key}, []uint64{ver}, func() metrics.Team { return metrics.TeamOf(data) }), nil
}

type BurndownData struct {
    Sprint       *domain.Sprint          `json:"sprint"`
    SprintIssues []domain.Issue          `json:"sprintIssues"`
    Points       []domain.BurndownPoint  `json:"points"`
    Prediction   domain.SprintPrediction `json:"prediction"`
}

// Burndown waits for both the sprint's issues and its details. A sprint
// without an end date has no burndown points.
func (o *Orchestrator) Burndown(ctx context.Context, sprintID int64) (BurndownData, error) {
    if sprintID <= 0 { return BurndownData{}, ErrNoSprint }
    var (
        issues     []domain.Issue
        sprint     *domain.Sprint
        issuesVer  uint64
        detailsVer uint64
    )
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        var err error
        issues, issuesVer, err = loadAs[[]domain.Issue](gctx, o, SprintIssuesKey(sprintID))
        return err
    })
    g.Go(func() error {
        var err error
        sprint, detailsVer, err = loadAs[*domain.Sprint](gctx, o, SprintDetailsKey(sprintID))
        return err
    })
    if err := g.Wait(); err != nil { return BurndownData{}, err }
    name := fmt.Sprintf("burndown/%d", sprintID)
    keys := []Key{SprintIssuesKey(sprintID), SprintDetailsKey(sprintID)}
    return derive(o, name, keys, []uint64{issuesVer, detailsVer}, func() BurndownData {
        out := BurndownData{Sprint: sprint, SprintIssues: issues, Points: []domain.BurndownPoint{}}
        if sprint != nil && sprint.EndDate != nil && !sprint.EndDate.IsZero() {
            out.Points = metrics.Burndown(issues, sprint.EndDate.Time)
        }
        out.Prediction = metrics.PredictSprintCompletion(out.Points)
        return out
    }), nil
}
