/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
    "time"

    "github.com/HamedShams/agile-dashboard/internal/domain"
)

// Velocity groups issues by primary sprint name in first-seen order. Issues
// without a sprint are skipped. A sprint without a start date is dated at
// fetchedAt.
func Velocity(issues []domain.Issue, fetchedAt time.Time) []domain.VelocityPoint {
    out := []domain.VelocityPoint{}
    index := map[string]int{}
    for _, is := range issues {
        sp, ok := is.PrimarySprint()
        if !ok { continue }
        i, seen := index[sp.Name]
        if !seen {
            date := fetchedAt
            if sp.StartDate != nil && !sp.StartDate.IsZero() { date = sp.StartDate.Time }
            out = append(out, domain.VelocityPoint{Sprint: sp.Name, Date: date})
            i = len(out) - 1
            index[sp.Name] = i
        }
        pts := is.Points()
        out[i].Planned += pts
        if isDone(is) { out[i].Completed += pts }
    }
    return out
}

// TeamVelocity is the rounded mean of completed points over the last three sprints.
func TeamVelocity(series []domain.VelocityPoint) int {
    if len(series) == 0 { return 0 }
    recent := series
    if len(recent) > 3 { recent = recent[len(recent)-3:] }
    sum := 0.0
    for _, v := range recent { sum += v.Completed }
    return round(sum / float64(len(recent)))
}
