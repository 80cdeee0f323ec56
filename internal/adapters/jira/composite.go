/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "fmt"

    "github.com/HamedShams/agile-dashboard/internal/domain"
    "golang.org/x/sync/errgroup"
)

// RecentCompletedIssues returns issues moved into a terminal status within the last days.
func (c *Client) RecentCompletedIssues(ctx context.Context, project string, days int) ([]domain.Issue, error) {
    start, end := Window(c.now(), days)
    issues, _, err := c.SearchAll(ctx, CompletedDuring(project, start, end), nil)
    if err != nil { return nil, fmt.Errorf("completed issues: %w", err) }
    return issues, nil
}

// BugMetrics fetches created, resolved and reopened bug sets concurrently.
func (c *Client) BugMetrics(ctx context.Context, project string, days int) (domain.BugMetrics, error) {
    start, end := Window(c.now(), days)
    var out domain.BugMetrics
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        v, _, err := c.SearchAll(gctx, BugsCreated(project, start, end), nil)
        out.Created = v
        return err
    })
    g.Go(func() error {
        v, _, err := c.SearchAll(gctx, BugsResolved(project, start, end), nil)
        out.Resolved = v
        return err
    })
    g.Go(func() error {
        v, _, err := c.SearchAll(gctx, BugsReopened(project, start, end), nil)
        out.Reopened = v
        return err
    })
    if err := g.Wait(); err != nil { return domain.BugMetrics{}, fmt.Errorf("bug metrics: %w", err) }
    return out, nil
}

// ActiveContributors resolves the distinct assignees of recently updated
// issues. A failed profile lookup drops that user instead of failing the call.
func (c *Client) ActiveContributors(ctx context.Context, project string, days int) ([]domain.User, error) {
    issues, _, err := c.SearchAll(ctx, RecentIssues(project, days), []string{"assignee"})
    if err != nil { return nil, fmt.Errorf("contributors: %w", err) }
    seen := map[string]struct{}{}
    ids := make([]string, 0)
    for _, is := range issues {
        a := is.Fields.Assignee
        if a == nil || a.AccountID == "" { continue }
        if _, ok := seen[a.AccountID]; ok { continue }
        seen[a.AccountID] = struct{}{}
        ids = append(ids, a.AccountID)
    }
    resolved := make([]*domain.User, len(ids))
    var g errgroup.Group
    g.SetLimit(c.concurrency)
    for i, id := range ids {
        g.Go(func() error {
            u, err := c.GetUser(ctx, id)
            if err != nil {
                c.log.Warn().Err(err).Str("account_id", id).Msg("contributor lookup failed, skipping")
                return nil
            }
            resolved[i] = u
            return nil
        })
    }
    _ = g.Wait()
    out := make([]domain.User, 0, len(ids))
    for _, u := range resolved {
        if u != nil { out = append(out, *u) }
    }
    return out, nil
}

// ProjectDashboardData gathers every input of the project dashboard in parallel.
func (c *Client) ProjectDashboardData(ctx context.Context, project string, days int) (*domain.DashboardData, error) {
    if project == "" { return nil, fmt.Errorf("dashboard data: empty project key") }
    out := &domain.DashboardData{FetchedAt: c.now()}
    g, gctx := errgroup.WithContext(ctx)
    g.Go(func() error {
        issues, total, err := c.SearchAll(gctx, RecentIssues(project, days), nil)
        if err != nil { return fmt.Errorf("all issues: %w", err) }
        out.AllIssues, out.TotalCount = issues, total
        return nil
    })
    g.Go(func() error {
        v, err := c.RecentCompletedIssues(gctx, project, days)
        out.CompletedIssues = v
        return err
    })
    g.Go(func() error {
        v, err := c.BugMetrics(gctx, project, days)
        out.BugMetrics = v
        return err
    })
    g.Go(func() error {
        v, err := c.ActiveContributors(gctx, project, days)
        out.Contributors = v
        return err
    })
    if err := g.Wait(); err != nil { return nil, err }
    return out, nil
}
