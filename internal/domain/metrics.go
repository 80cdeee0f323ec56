/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import "time"

type VelocityPoint struct {
    Sprint    string    `json:"sprint"`
    Planned   float64   `json:"planned"`
    Completed float64   `json:"completed"`
    Date      time.Time `json:"date"`
}

type BurndownPoint struct {
    Date      time.Time `json:"date"`
    Label     string    `json:"label"`
    Remaining float64   `json:"remaining"`
    Ideal     float64   `json:"ideal"`
}

type CycleTimePoint struct {
    Issue     string    `json:"issue"`
    CycleTime int       `json:"cycleTime"`
    StartDate time.Time `json:"startDate"`
    EndDate   time.Time `json:"endDate"`
    IssueType string    `json:"issueType"`
}

type ThroughputPoint struct {
    Period      string    `json:"period"`
    PeriodStart time.Time `json:"periodStart"`
    Completed   int       `json:"completed"`
    Type        string    `json:"type"`
}

type TeamMemberRollup struct {
    User            User    `json:"user"`
    TotalIssues     int     `json:"totalIssues"`
    CompletedIssues int     `json:"completedIssues"`
    AvgCycleTime    float64 `json:"avgCycleTime"`
    StoryPoints     float64 `json:"storyPoints"`
}

type SprintPrediction struct {
    OnTrack             bool    `json:"onTrack"`
    ProjectedCompletion float64 `json:"projectedCompletion"`
    DaysRemaining       int     `json:"daysRemaining"`
}

type BugMetrics struct {
    Created  []Issue `json:"created"`
    Resolved []Issue `json:"resolved"`
    Reopened []Issue `json:"reopened"`
}

// DashboardData is everything the project dashboard needs from one fetch.
type DashboardData struct {
    AllIssues       []Issue    `json:"allIssues"`
    CompletedIssues []Issue    `json:"completedIssues"`
    BugMetrics      BugMetrics `json:"bugMetrics"`
    Contributors    []User     `json:"contributors"`
    TotalCount      int        `json:"totalCount"`
    FetchedAt       time.Time  `json:"fetchedAt"`
}
