/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import "github.com/HamedShams/agile-dashboard/internal/domain"

// Summary is every figure derived from one project dashboard fetch.
type Summary struct {
    Velocity   []domain.VelocityPoint   `json:"velocity"`
    CycleTime  []domain.CycleTimePoint  `json:"cycleTime"`
    Throughput []domain.ThroughputPoint `json:"throughput"`

    AvgCycleTime        int     `json:"avgCycleTime"`
    AvgVelocity         int     `json:"avgVelocity"`
    DefectRate          float64 `json:"defectRate"`
    BugRate             float64 `json:"bugRate"`
    FirstTimeFixRate    float64 `json:"firstTimeFixRate"`
    BugResolutionTime   int     `json:"bugResolutionTime"`
    WorkInProgress      int     `json:"workInProgress"`
    ActiveContributors  int     `json:"activeContributors"`
    TotalIssues         int     `json:"totalIssues"`
    CompletedThisPeriod int     `json:"completedThisPeriod"`
    BugsCreated         int     `json:"bugsCreated"`
    BugsResolved        int     `json:"bugsResolved"`
    BugsReopened        int     `json:"bugsReopened"`
}

// Team is the per-assignee breakdown of one dashboard fetch.
type Team struct {
    Members           []domain.TeamMemberRollup `json:"members"`
    TotalContributors int                       `json:"totalContributors"`
}

// Summarize derives the dashboard figures. The same input always yields an
// equal Summary.
func Summarize(d *domain.DashboardData) Summary {
    if d == nil {
        return Summary{
            Velocity:   []domain.VelocityPoint{},
            CycleTime:  []domain.CycleTimePoint{},
            Throughput: []domain.ThroughputPoint{},
        }
    }
    bm := d.BugMetrics
    velocity := Velocity(d.AllIssues, d.FetchedAt)
    return Summary{
        Velocity:            velocity,
        CycleTime:           CycleTime(d.CompletedIssues),
        Throughput:          Throughput(d.CompletedIssues, DefaultPeriodDays),
        AvgCycleTime:        LeadTime(d.CompletedIssues),
        AvgVelocity:         TeamVelocity(velocity),
        DefectRate:          DefectRate(d.AllIssues),
        BugRate:             BugRate(len(bm.Created), len(bm.Resolved)),
        FirstTimeFixRate:    FirstTimeFixRate(len(bm.Resolved), len(bm.Reopened)),
        BugResolutionTime:   LeadTime(bm.Resolved),
        WorkInProgress:      WorkInProgress(d.AllIssues),
        ActiveContributors:  len(d.Contributors),
        TotalIssues:         d.TotalCount,
        CompletedThisPeriod: len(d.CompletedIssues),
        BugsCreated:         len(bm.Created),
        BugsResolved:        len(bm.Resolved),
        BugsReopened:        len(bm.Reopened),
    }
}

// TeamOf derives the team breakdown of a dashboard fetch.
func TeamOf(d *domain.DashboardData) Team {
    if d == nil { return Team{Members: []domain.TeamMemberRollup{}} }
    return Team{Members: TeamRollup(d.AllIssues), TotalContributors: len(d.Contributors)}
}
