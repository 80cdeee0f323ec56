/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package composer

import (
    "context"
    "errors"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/dashboard"
    "github.com/HamedShams/agile-dashboard/internal/domain"
    "github.com/HamedShams/agile-dashboard/internal/metrics"
    "github.com/rs/zerolog"
    "golang.org/x/sync/errgroup"
)

// Provider is the orchestrator surface the composer reads from.
type Provider interface {
    CalculatedMetrics(ctx context.Context, project string, days int) (metrics.Summary, error)
    TeamMetrics(ctx context.Context, project string, days int) (metrics.Team, error)
    SprintData(ctx context.Context, project string) (dashboard.SprintData, error)
    Burndown(ctx context.Context, sprintID int64) (dashboard.BurndownData, error)
}

type Composer struct {
    src     Provider
    log     zerolog.Logger
    timeout time.Duration
    days    int
}

func New(src Provider, log zerolog.Logger, timeout time.Duration, defaultDays int) *Composer {
    if defaultDays <= 0 { defaultDays = 30 }
    return &Composer{src: src, log: log.With().Str("component", "composer").Logger(), timeout: timeout, days: defaultDays}
}

func (c *Composer) window(ctx context.Context, days int) (context.Context, context.CancelFunc, int) {
    if days <= 0 { days = c.days }
    if c.timeout <= 0 {
        ctx, cancel := context.WithCancel(ctx)
        return ctx, cancel, days
    }
    ctx, cancel := context.WithTimeout(ctx, c.timeout)
    return ctx, cancel, days
}

// settle turns a dependency error into view state. A deadline means the
// data is still on its way; anything else is logged and shown generically.
func (c *Composer) settle(view, project string, err error) State {
    if errors.Is(err, context.DeadlineExceeded) {
        c.log.Debug().Str("view", view).Str("project", project).Msg("view still loading")
        return State{Loading: true}
    }
    c.log.Error().Err(err).Str("view", view).Str("project", project).Msg("view dependency failed")
    return State{Error: GenericError}
}

func emptyOverview(project string, days int) Overview {
    return Overview{Project: project, Days: days, Velocity: []domain.VelocityPoint{}, Burndown: []domain.BurndownPoint{}}
}

func (c *Composer) Overview(ctx context.Context, project string, days int) Overview {
    ctx, cancel, days := c.window(ctx, days)
    defer cancel()
    out := emptyOverview(project, days)

    var (
        sum metrics.Summary
        sd  dashboard.SprintData
    )
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() (err error) { sum, err = c.src.CalculatedMetrics(gctx, project, days); return })
    g.Go(func() (err error) { sd, err = c.src.SprintData(gctx, project); return })
    if err := g.Wait(); err != nil {
        out.State = c.settle("overview", project, err)
        return out
    }

    out.TotalIssues = sum.TotalIssues
    out.CompletedIssues = sum.CompletedThisPeriod
    out.CompletionRate = pct(ratio(float64(sum.CompletedThisPeriod), float64(sum.TotalIssues)))
    out.AvgVelocity = sum.AvgVelocity
    out.AvgCycleTime = sum.AvgCycleTime
    out.ActiveContributors = sum.ActiveContributors
    out.Velocity = orEmpty(sum.Velocity)

    if len(sd.ActiveSprints) == 0 { return out }
    active := sd.ActiveSprints[0]
    out.ActiveSprint = &active
    bd, err := c.src.Burndown(ctx, active.ID)
    if err != nil {
        out.State = c.settle("overview", project, err)
        return out
    }
    out.Burndown = orEmpty(bd.Points)
    return out
}

func (c *Composer) Sprint(ctx context.Context, project string, days int) SprintView {
    ctx, cancel, days := c.window(ctx, days)
    defer cancel()
    out := SprintView{
        Project:       project,
        Sprints:       []domain.Sprint{},
        ActiveSprints: []domain.Sprint{},
        Velocity:      []domain.VelocityPoint{},
        Burndown:      []domain.BurndownPoint{},
    }

    var (
        sum metrics.Summary
        sd  dashboard.SprintData
    )
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() (err error) { sum, err = c.src.CalculatedMetrics(gctx, project, days); return })
    g.Go(func() (err error) { sd, err = c.src.SprintData(gctx, project); return })
    if err := g.Wait(); err != nil {
        out.State = c.settle("sprint", project, err)
        return out
    }
    out.Sprints = orEmpty(sd.Sprints)
    out.ActiveSprints = orEmpty(sd.ActiveSprints)
    out.Velocity = orEmpty(sum.Velocity)
    out.TeamVelocity = sum.AvgVelocity

    if len(sd.ActiveSprints) == 0 { return out }
    current := sd.ActiveSprints[0]
    out.Current = &current
    bd, err := c.src.Burndown(ctx, current.ID)
    if err != nil {
        out.State = c.settle("sprint", project, err)
        return out
    }
    out.Burndown = orEmpty(bd.Points)
    out.Prediction = bd.Prediction
    out.Prediction.ProjectedCompletion = pct(bd.Prediction.ProjectedCompletion)
    var total, done float64
    for _, is := range bd.SprintIssues {
        total += is.Points()
        if metrics.IsTerminalStatus(is.Fields.Status.Name) { done += is.Points() }
    }
    out.GoalProgress = pct(ratio(done, total))
    return out
}

func (c *Composer) Flow(ctx context.Context, project string, days int) FlowView {
    ctx, cancel, days := c.window(ctx, days)
    defer cancel()
    out := FlowView{Project: project, Days: days, CycleTime: []domain.CycleTimePoint{}, Series: []domain.ThroughputPoint{}}
    sum, err := c.src.CalculatedMetrics(ctx, project, days)
    if err != nil {
        out.State = c.settle("flow", project, err)
        return out
    }
    out.AvgCycleTime = sum.AvgCycleTime
    out.Throughput = sum.CompletedThisPeriod
    out.WIP = sum.WorkInProgress
    out.CycleTime = orEmpty(sum.CycleTime)
    out.Series = orEmpty(sum.Throughput)
    return out
}

func (c *Composer) Quality(ctx context.Context, project string, days int) QualityView {
    ctx, cancel, days := c.window(ctx, days)
    defer cancel()
    out := QualityView{Project: project, Days: days}
    sum, err := c.src.CalculatedMetrics(ctx, project, days)
    if err != nil {
        out.State = c.settle("quality", project, err)
        return out
    }
    out.BugRate = pct(sum.BugRate)
    out.DefectRate = pct(sum.DefectRate)
    out.ResolutionTime = sum.BugResolutionTime
    out.FirstTimeFix = pct(sum.FirstTimeFixRate)
    out.BugsCreated = sum.BugsCreated
    out.BugsResolved = sum.BugsResolved
    out.BugsReopened = sum.BugsReopened
    return out
}

func (c *Composer) Team(ctx context.Context, project string, days int) TeamView {
    ctx, cancel, days := c.window(ctx, days)
    defer cancel()
    out := TeamView{Project: project, Days: days, Members: []MemberView{}}

    var (
        sum  metrics.Summary
        team metrics.Team
    )
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() (err error) { sum, err = c.src.CalculatedMetrics(gctx, project, days); return })
    g.Go(func() (err error) { team, err = c.src.TeamMetrics(gctx, project, days); return })
    if err := g.Wait(); err != nil {
        out.State = c.settle("team", project, err)
        return out
    }

    out.TeamSize = team.TotalContributors
    out.TeamVelocity = sum.AvgVelocity
    var total, completed, cycleSum float64
    for _, m := range team.Members {
        total += float64(m.TotalIssues)
        completed += float64(m.CompletedIssues)
        cycleSum += m.AvgCycleTime
        out.Members = append(out.Members, MemberView{
            User:            m.User,
            TotalIssues:     m.TotalIssues,
            CompletedIssues: m.CompletedIssues,
            CompletionRate:  pct(ratio(float64(m.CompletedIssues), float64(m.TotalIssues))),
            AvgCycleTime:    whole(m.AvgCycleTime),
            StoryPoints:     whole(m.StoryPoints),
        })
    }
    out.SprintCompletion = pct(ratio(completed, total))
    if n := len(team.Members); n > 0 { out.AvgCycleTime = whole(cycleSum / float64(n)) }
    return out
}

func (c *Composer) Burndown(ctx context.Context, sprintID int64) BurndownView {
    ctx, cancel, _ := c.window(ctx, 0)
    defer cancel()
    out := BurndownView{SprintID: sprintID, Points: []domain.BurndownPoint{}}
    bd, err := c.src.Burndown(ctx, sprintID)
    if err != nil {
        out.State = c.settle("burndown", "", err)
        return out
    }
    out.Sprint = bd.Sprint
    out.Points = orEmpty(bd.Points)
    out.Prediction = bd.Prediction
    out.Prediction.ProjectedCompletion = pct(bd.Prediction.ProjectedCompletion)
    return out
}
