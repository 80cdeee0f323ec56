/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "fmt"
    "strings"
    "time"
)

// jqlDate is the datetime layout JQL accepts in comparisons.
const jqlDate = "2006-01-02 15:04"

var terminalJQL = `("Done", "Closed", "Resolved")`

func quote(s string) string {
    return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}

func when(t time.Time) string { return quote(t.Format(jqlDate)) }

// Window returns [start of day N days ago, end of today] in now's location.
func Window(now time.Time, days int) (time.Time, time.Time) {
    y, m, d := now.Date()
    today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
    return today.AddDate(0, 0, -days), today.AddDate(0, 0, 1).Add(-time.Minute)
}

func ProjectIssues(project, status string) string {
    jql := "project = " + quote(project)
    if status != "" { jql += " AND status = " + quote(status) }
    return jql + " ORDER BY updated DESC"
}

func IssueType(project, issueType string) string {
    return fmt.Sprintf("project = %s AND issuetype = %s ORDER BY created DESC", quote(project), quote(issueType))
}

func RecentIssues(project string, days int) string {
    return fmt.Sprintf("project = %s AND updated >= -%dd ORDER BY updated DESC", quote(project), days)
}

func CompletedDuring(project string, start, end time.Time) string {
    return fmt.Sprintf("project = %s AND status CHANGED TO %s DURING (%s, %s)", quote(project), terminalJQL, when(start), when(end))
}

func BugsCreated(project string, start, end time.Time) string {
    return fmt.Sprintf("project = %s AND issuetype = Bug AND created >= %s AND created <= %s", quote(project), when(start), when(end))
}

func BugsResolved(project string, start, end time.Time) string {
    return fmt.Sprintf("project = %s AND issuetype = Bug AND resolved >= %s AND resolved <= %s", quote(project), when(start), when(end))
}

// BugsReopened matches bugs that left the terminal set inside the window.
func BugsReopened(project string, start, end time.Time) string {
    return fmt.Sprintf("project = %s AND issuetype = Bug AND status CHANGED FROM %s DURING (%s, %s)", quote(project), terminalJQL, when(start), when(end))
}

func ActiveSprintIssues(project string) string {
    return fmt.Sprintf("project = %s AND sprint in openSprints() ORDER BY rank", quote(project))
}

func IssuesByAssignee(project, accountID string, days int) string {
    return fmt.Sprintf("project = %s AND assignee = %s AND updated >= -%dd ORDER BY updated DESC", quote(project), quote(accountID), days)
}
