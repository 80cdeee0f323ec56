/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package composer

import (
    "math"

    "github.com/HamedShams/agile-dashboard/internal/domain"
)

// GenericError is the only error text a view model ever carries.
const GenericError = "failed to fetch data: check configuration/connection"

// State is embedded in every view. Loading means a dependency has not
// resolved yet and every other field holds its zero default.
type State struct {
    Loading bool   `json:"loading"`
    Error   string `json:"error,omitempty"`
}

type Overview struct {
    State
    Project            string                 `json:"project"`
    Days               int                    `json:"days"`
    TotalIssues        int                    `json:"totalIssues"`
    CompletedIssues    int                    `json:"completedIssues"`
    CompletionRate     float64                `json:"completionRate"`
    AvgVelocity        int                    `json:"avgVelocity"`
    AvgCycleTime       int                    `json:"avgCycleTime"`
    ActiveContributors int                    `json:"activeContributors"`
    Velocity           []domain.VelocityPoint `json:"velocity"`
    ActiveSprint       *domain.Sprint         `json:"activeSprint,omitempty"`
    Burndown           []domain.BurndownPoint `json:"burndown"`
}

type SprintView struct {
    State
    Project       string                  `json:"project"`
    Sprints       []domain.Sprint         `json:"sprints"`
    ActiveSprints []domain.Sprint         `json:"activeSprints"`
    Current       *domain.Sprint          `json:"current,omitempty"`
    Velocity      []domain.VelocityPoint  `json:"velocity"`
    TeamVelocity  int                     `json:"teamVelocity"`
    GoalProgress  float64                 `json:"goalProgress"`
    Burndown      []domain.BurndownPoint  `json:"burndown"`
    Prediction    domain.SprintPrediction `json:"prediction"`
}

type FlowView struct {
    State
    Project      string                   `json:"project"`
    Days         int                      `json:"days"`
    AvgCycleTime int                      `json:"avgCycleTime"`
    Throughput   int                      `json:"throughput"`
    WIP          int                      `json:"wip"`
    CycleTime    []domain.CycleTimePoint  `json:"cycleTime"`
    Series       []domain.ThroughputPoint `json:"series"`
}

type QualityView struct {
    State
    Project        string  `json:"project"`
    Days           int     `json:"days"`
    BugRate        float64 `json:"bugRate"`
    DefectRate     float64 `json:"defectRate"`
    ResolutionTime int     `json:"resolutionTime"`
    FirstTimeFix   float64 `json:"firstTimeFix"`
    BugsCreated    int     `json:"bugsCreated"`
    BugsResolved   int     `json:"bugsResolved"`
    BugsReopened   int     `json:"bugsReopened"`
}

type BurndownView struct {
    State
    SprintID   int64                   `json:"sprintId"`
    Sprint     *domain.Sprint          `json:"sprint,omitempty"`
    Points     []domain.BurndownPoint  `json:"points"`
    Prediction domain.SprintPrediction `json:"prediction"`
}

type MemberView struct {
    User            domain.User `json:"user"`
    TotalIssues     int         `json:"totalIssues"`
    CompletedIssues int         `json:"completedIssues"`
    CompletionRate  float64     `json:"completionRate"`
    AvgCycleTime    int         `json:"avgCycleTime"`
    StoryPoints     int         `json:"storyPoints"`
}

type TeamView struct {
    State
    Project          string       `json:"project"`
    Days             int          `json:"days"`
    TeamSize         int          `json:"teamSize"`
    TeamVelocity     int          `json:"teamVelocity"`
    SprintCompletion float64      `json:"sprintCompletion"`
    AvgCycleTime     int          `json:"avgCycleTime"`
    Members          []MemberView `json:"members"`
}

// pct clamps to [0,100] and rounds to one decimal.
func pct(v float64) float64 {
    if math.IsNaN(v) { return 0 }
    v = math.Max(0, math.Min(100, v))
    return math.Round(v*10) / 10
}

func whole(v float64) int { return int(math.Round(v)) }

func ratio(part, total float64) float64 {
    if total <= 0 { return 0 }
    return part / total * 100
}

func orEmpty[T any](s []T) []T {
    if s == nil { return []T{} }
    return s
}
