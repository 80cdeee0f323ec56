/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
    "slices"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/domain"
)

// DefaultPeriodDays is the throughput bucket length used when none is given.
const DefaultPeriodDays = 7

const periodLabel = "Jan 02, 2006"

// CycleTime lists resolved issues, longest cycle first. Equal cycle times
// keep their input order.
func CycleTime(issues []domain.Issue) []domain.CycleTimePoint {
    out := []domain.CycleTimePoint{}
    for _, is := range issues {
        end, ok := is.Resolved()
        if !ok { continue }
        start := is.Fields.Created.Time
        out = append(out, domain.CycleTimePoint{
            Issue:     is.Key,
            CycleTime: wholeDays(start, end),
            StartDate: start,
            EndDate:   end,
            IssueType: is.Fields.IssueType.Name,
        })
    }
    slices.SortStableFunc(out, func(a, b domain.CycleTimePoint) int { return b.CycleTime - a.CycleTime })
    return out
}

// LeadTime is the rounded mean cycle time of the resolved issues, in days.
func LeadTime(issues []domain.Issue) int {
    sum, n := 0, 0
    for _, is := range issues {
        end, ok := is.Resolved()
        if !ok { continue }
        sum += wholeDays(is.Fields.Created.Time, end)
        n++
    }
    if n == 0 { return 0 }
    return round(float64(sum) / float64(n))
}

// Throughput counts resolutions per (period, issue type). A period starts on
// the resolution day moved back by day-of-month mod periodDays.
func Throughput(issues []domain.Issue, periodDays int) []domain.ThroughputPoint {
    if periodDays <= 0 { periodDays = DefaultPeriodDays }
    // keyed on the unix instant: time.Time values with equal instants but
    // distinct *Location pointers are different map keys
    type bucket struct {
        start int64
        typ   string
    }
    counts := map[bucket]int{}
    starts := map[bucket]time.Time{}
    order := []bucket{}
    for _, is := range issues {
        at, ok := is.Resolved()
        if !ok { continue }
        d := startOfDay(at)
        start := d.AddDate(0, 0, -(d.Day() % periodDays))
        b := bucket{start: start.Unix(), typ: is.Fields.IssueType.Name}
        if _, seen := counts[b]; !seen {
            order = append(order, b)
            starts[b] = start
        }
        counts[b]++
    }
    out := make([]domain.ThroughputPoint, 0, len(order))
    for _, b := range order {
        out = append(out, domain.ThroughputPoint{
            Period:      starts[b].Format(periodLabel),
            PeriodStart: starts[b],
            Completed:   counts[b],
            Type:        b.typ,
        })
    }
    slices.SortStableFunc(out, func(a, b domain.ThroughputPoint) int { return a.PeriodStart.Compare(b.PeriodStart) })
    return out
}

// WorkInProgress counts issues in the tracker's in-progress status category
// that are not already in a terminal status.
func WorkInProgress(issues []domain.Issue) int {
    n := 0
    for _, is := range issues {
        if is.Fields.Status.StatusCategory.Key == "indeterminate" && !isDone(is) { n++ }
    }
    return n
}
