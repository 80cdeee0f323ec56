/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package metrics

import "github.com/HamedShams/agile-dashboard/internal/domain"

// TeamRollup aggregates issues per assignee in first-seen order. Unassigned
// issues are skipped. AvgCycleTime is the arithmetic mean over the member's
// resolved issues.
func TeamRollup(issues []domain.Issue) []domain.TeamMemberRollup {
    out := []domain.TeamMemberRollup{}
    index := map[string]int{}
    cycleSum := []int{}
    cycleN := []int{}
    for _, is := range issues {
        a := is.Fields.Assignee
        if a == nil || a.AccountID == "" { continue }
        i, seen := index[a.AccountID]
        if !seen {
            out = append(out, domain.TeamMemberRollup{User: *a})
            cycleSum = append(cycleSum, 0)
            cycleN = append(cycleN, 0)
            i = len(out) - 1
            index[a.AccountID] = i
        }
        m := &out[i]
        m.TotalIssues++
        if isDone(is) { m.CompletedIssues++ }
        m.StoryPoints += is.Points()
        if end, ok := is.Resolved(); ok {
            cycleSum[i] += wholeDays(is.Fields.Created.Time, end)
            cycleN[i]++
        }
    }
    for i := range out {
        if cycleN[i] > 0 { out[i].AvgCycleTime = float64(cycleSum[i]) / float64(cycleN[i]) }
    }
    return out
}
