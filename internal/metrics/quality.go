/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import "github.com/HamedShams/agile-dashboard/internal/domain"

// DefectRate is the share of bugs among all issues, as a percentage.
func DefectRate(issues []domain.Issue) float64 {
    bugs := 0
    for _, is := range issues {
        if is.IsBug() { bugs++ }
    }
    return percent(bugs, len(issues))
}

// BugRate is created / (created + resolved) as a percentage; 0 when nothing was created.
func BugRate(created, resolved int) float64 {
    if created <= 0 { return 0 }
    return percent(created, created+resolved)
}

// FirstTimeFixRate is the share of resolved bugs that were not reopened. It
// may go negative when more bugs were reopened than resolved in the window.
func FirstTimeFixRate(resolved, reopened int) float64 {
    if resolved <= 0 { return 0 }
    return percent(resolved-reopened, resolved)
}
