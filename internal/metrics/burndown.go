/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import (
    "math"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/domain"
)

// SprintLength is the window Burndown assumes when only an end date is known.
const SprintLength = 14

const burndownLabel = "Jan 02"

// Burndown charts a sprint ending at end over a fixed two-week window.
func Burndown(issues []domain.Issue, end time.Time) []domain.BurndownPoint {
    return BurndownWindow(issues, end, SprintLength)
}

// BurndownWindow produces one point per calendar day in [end-days, end].
// An issue is burned on a day when it was resolved before that day ended.
func BurndownWindow(issues []domain.Issue, end time.Time, days int) []domain.BurndownPoint {
    if end.IsZero() { return []domain.BurndownPoint{} }
    if days < 0 { days = 0 }
    total := 0.0
    for _, is := range issues { total += is.Points() }

    last := startOfDay(end)
    first := last.AddDate(0, 0, -days)
    n := days + 1
    out := make([]domain.BurndownPoint, 0, n)
    for i := 0; i < n; i++ {
        d := first.AddDate(0, 0, i)
        cutoff := d.AddDate(0, 0, 1)
        burned := 0.0
        for _, is := range issues {
            if at, ok := is.Resolved(); ok && at.Before(cutoff) { burned += is.Points() }
        }
        ideal := total
        if n > 1 { ideal = total - total*float64(i)/float64(n-1) }
        out = append(out, domain.BurndownPoint{
            Date:      d,
            Label:     d.Format(burndownLabel),
            Remaining: total - burned,
            Ideal:     math.Max(0, ideal),
        })
    }
    return out
}

// PredictSprintCompletion extrapolates the last day's burn rate. A series
// shorter than two points is reported as complete and on track.
func PredictSprintCompletion(series []domain.BurndownPoint) domain.SprintPrediction {
    if len(series) < 2 { return domain.SprintPrediction{OnTrack: true, ProjectedCompletion: 100} }
    cur := series[len(series)-1]
    prev := series[len(series)-2]
    start := series[0].Remaining
    rate := prev.Remaining - cur.Remaining

    p := domain.SprintPrediction{OnTrack: cur.Remaining <= cur.Ideal}
    if rate > 0 {
        if start > 0 {
            p.ProjectedCompletion = (start - cur.Remaining) / start * 100
        } else {
            p.ProjectedCompletion = 100
        }
        p.DaysRemaining = int(math.Ceil(cur.Remaining / rate))
    }
    p.ProjectedCompletion = math.Min(100, math.Max(0, p.ProjectedCompletion))
    return p
}
