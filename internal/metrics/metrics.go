/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package metrics derives sprint, flow and quality figures from issue sets.
// Every function is pure: no I/O, no clock, inputs are never mutated.
package metrics

import (
    "math"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/domain"
)

const day = 24 * time.Hour

var terminalStatuses = map[string]struct{}{"Done": {}, "Closed": {}, "Resolved": {}}

// IsTerminalStatus reports whether a status name counts as finished work.
func IsTerminalStatus(name string) bool {
    _, ok := terminalStatuses[name]
    return ok
}

func isDone(is domain.Issue) bool { return IsTerminalStatus(is.Fields.Status.Name) }

// wholeDays is the truncated day difference, clamped at zero.
func wholeDays(from, to time.Time) int {
    d := int(to.Sub(from) / day)
    if d < 0 { return 0 }
    return d
}

// startOfDay is local midnight of t. Every timestamp is moved to time.Local
// first so the same calendar day always yields the same instant, whatever
// offset the tracker reported.
func startOfDay(t time.Time) time.Time {
    y, m, d := t.In(time.Local).Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func percent(part, whole int) float64 {
    if whole <= 0 { return 0 }
    return float64(part) / float64(whole) * 100
}

func round(v float64) int { return int(math.Round(v)) }
