package jira

import (
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
    cases := map[string]string{
        `DEMO`:     `"DEMO"`,
        `say "hi"`: `"say \"hi\""`,
        `C:\tmp`:   `"C:\\tmp"`,
        `\"`:       `"\\\""`,
        ``:         `""`,
    }
    for in, want := range cases {
        require.Equal(t, want, quote(in), "quote(%q)", in)
    }
}

func TestWindow(t *testing.T) {
    loc := time.FixedZone("IST", 5*3600+1800)
    now := time.Date(2024, 3, 15, 17, 42, 9, 0, loc)
    start, end := Window(now, 7)
    require.Equal(t, time.Date(2024, 3, 8, 0, 0, 0, 0, loc), start)
    require.Equal(t, time.Date(2024, 3, 15, 23, 59, 0, 0, loc), end)

    start, end = Window(now, 0)
    require.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), start)
    require.True(t, end.After(start))
}

func TestJQLBuilders(t *testing.T) {
    start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
    end := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
    const evil = `A"B\C`
    cases := []struct {
        name string
        got  string
        want string
    }{
        {"project", ProjectIssues("DEMO", ""), `project = "DEMO" ORDER BY updated DESC`},
        {"project status", ProjectIssues("DEMO", "In Progress"), `project = "DEMO" AND status = "In Progress" ORDER BY updated DESC`},
        {"project escaped", ProjectIssues(evil, `Won't "fix"`), `project = "A\"B\\C" AND status = "Won't \"fix\"" ORDER BY updated DESC`},
        {"issue type", IssueType("DEMO", "Bug"), `project = "DEMO" AND issuetype = "Bug" ORDER BY created DESC`},
        {"issue type escaped", IssueType(evil, evil), `project = "A\"B\\C" AND issuetype = "A\"B\\C" ORDER BY created DESC`},
        {"recent", RecentIssues("DEMO", 30), `project = "DEMO" AND updated >= -30d ORDER BY updated DESC`},
        {"recent escaped", RecentIssues(evil, 1), `project = "A\"B\\C" AND updated >= -1d ORDER BY updated DESC`},
        {"completed", CompletedDuring("DEMO", start, end),
            `project = "DEMO" AND status CHANGED TO ("Done", "Closed", "Resolved") DURING ("2024-03-01 00:00", "2024-03-15 23:59")`},
        {"bugs created", BugsCreated("DEMO", start, end),
            `project = "DEMO" AND issuetype = Bug AND created >= "2024-03-01 00:00" AND created <= "2024-03-15 23:59"`},
        {"bugs resolved", BugsResolved("DEMO", start, end),
            `project = "DEMO" AND issuetype = Bug AND resolved >= "2024-03-01 00:00" AND resolved <= "2024-03-15 23:59"`},
        {"bugs reopened", BugsReopened(evil, start, end),
            `project = "A\"B\\C" AND issuetype = Bug AND status CHANGED FROM ("Done", "Closed", "Resolved") DURING ("2024-03-01 00:00", "2024-03-15 23:59")`},
        {"active sprint", ActiveSprintIssues("DEMO"), `project = "DEMO" AND sprint in openSprints() ORDER BY rank`},
        {"active sprint escaped", ActiveSprintIssues(evil), `project = "A\"B\\C" AND sprint in openSprints() ORDER BY rank`},
        {"assignee", IssuesByAssignee("DEMO", "5b10ac8d", 14), `project = "DEMO" AND assignee = "5b10ac8d" AND updated >= -14d ORDER BY updated DESC`},
        {"assignee escaped", IssuesByAssignee("DEMO", evil, 7), `project = "DEMO" AND assignee = "A\"B\\C" AND updated >= -7d ORDER BY updated DESC`},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            require.Equal(t, tc.want, tc.got)
        })
    }
}
