package cmd

import (
    "bytes"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/HamedShams/agile-dashboard/internal/domain"
)

func fakeJira(t *testing.T) *httptest.Server {
    t.Helper()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        switch r.URL.Path {
        case "/rest/api/3/myself":
            w.Write([]byte(`{"accountId":"u1","displayName":"Ops"}`))
        case "/rest/api/3/field":
            w.Write([]byte(`[
                {"id":"summary","name":"Summary","custom":false},
                {"id":"customfield_10016","name":"Story point estimate","custom":true},
                {"id":"customfield_10020","name":"Sprint","custom":true}
            ]`))
        case "/rest/api/3/search":
            issue := map[string]any{"key": "DEMO-1", "fields": map[string]any{
                "summary":   r.URL.Query().Get("jql"),
                "status":    map[string]any{"name": "In Progress"},
                "issuetype": map[string]any{"name": "Story"},
                "assignee":  map[string]any{"accountId": "u1", "displayName": "Ops"},
            }}
            json.NewEncoder(w).Encode(map[string]any{"total": 1, "issues": []any{issue}})
        default:
            http.NotFound(w, r)
        }
    }))
    t.Cleanup(srv.Close)
    return srv
}

func execute(t *testing.T, args ...string) (string, error) {
    t.Helper()
    t.Setenv("JIRA_EMAIL", "ops@example.com")
    t.Setenv("JIRA_API_TOKEN", "secret")
    asJSON, verbose, fieldsWrite, fieldsCustom = false, false, "", false
    issuesStatus, issuesType, issuesAssignee, issuesActive = "", "", "", false
    for _, name := range []string{"status", "type", "assignee", "active-sprint"} {
        f := issuesCmd.Flags().Lookup(name)
        f.Value.Set(f.DefValue)
        f.Changed = false
    }
    days := rootCmd.PersistentFlags().Lookup("days")
    days.Value.Set(days.DefValue)
    days.Changed = false
    buf := new(bytes.Buffer)
    rootCmd.SetOut(buf)
    rootCmd.SetErr(buf)
    rootCmd.SetArgs(args)
    err := rootCmd.Execute()
    return buf.String(), err
}

func TestCheck(t *testing.T) {
    srv := fakeJira(t)
    out, err := execute(t, "check", "--jira-url", srv.URL)
    if err != nil { t.Fatalf("check: %v", err) }
    if !strings.Contains(out, "connected to "+srv.URL) { t.Fatalf("output = %q", out) }
}

func TestFieldsJSON(t *testing.T) {
    srv := fakeJira(t)
    out, err := execute(t, "fields", "--jira-url", srv.URL, "--custom", "--json")
    if err != nil { t.Fatalf("fields: %v", err) }
    var rows []fieldRow
    if err := json.Unmarshal([]byte(out), &rows); err != nil { t.Fatalf("decode %q: %v", out, err) }
    if len(rows) != 2 || rows[0].ID != "customfield_10016" || rows[1].Name != "Sprint" {
        t.Fatalf("rows = %+v", rows)
    }
}

func TestFieldsWrite(t *testing.T) {
    srv := fakeJira(t)
    path := filepath.Join(t.TempDir(), "fields.json")
    out, err := execute(t, "fields", "--jira-url", srv.URL, "--write", path)
    if err != nil { t.Fatalf("fields --write: %v", err) }
    if !strings.Contains(out, "story points=customfield_10016") || !strings.Contains(out, "sprint=customfield_10020") {
        t.Fatalf("output = %q", out)
    }
}

func TestBurndownRejectsBadID(t *testing.T) {
    if _, err := execute(t, "burndown", "abc"); err == nil { t.Fatal("expected error for non-numeric sprint id") }
}

func TestFieldRows(t *testing.T) {
    rows := fieldRows([]map[string]any{
        {"id": "customfield_2", "name": "B"},
        {"id": "", "name": "skipped"},
        {"id": "status", "name": "Status", "custom": false},
        {"id": "customfield_1", "name": "A", "custom": true},
    }, false)
    if len(rows) != 3 { t.Fatalf("rows = %+v", rows) }
    if rows[0].ID != "customfield_1" || !rows[1].Custom || rows[2].Custom {
        t.Fatalf("rows = %+v", rows)
    }
}

func TestRenderBurndown(t *testing.T) {
    day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
    v := composer.BurndownView{
        SprintID:   7,
        Sprint:     &domain.Sprint{ID: 7, Name: "Sprint 7"},
        Points:     []domain.BurndownPoint{{Date: day, Label: "Mar 02", Remaining: 10, Ideal: 10}},
        Prediction: domain.SprintPrediction{OnTrack: true, ProjectedCompletion: 80, DaysRemaining: 3},
    }
    var buf bytes.Buffer
    renderBurndown(&buf, v)
    out := buf.String()
    for _, want := range []string{"Sprint 7", "Mar 02", "80.0% projected", "3 days left", "on track"} {
        if !strings.Contains(out, want) { t.Fatalf("missing %q in %q", want, out) }
    }
}

func TestViewError(t *testing.T) {
    if viewError(composer.State{}) != nil { t.Fatal("ready view should not error") }
    if err := viewError(composer.State{Error: composer.GenericError}); err == nil || err.Error() != composer.GenericError {
        t.Fatalf("err = %v", err)
    }
    if viewError(composer.State{Loading: true}) == nil { t.Fatal("loading view should error") }
}

func TestIssuesSelectsQueryByFlag(t *testing.T) {
    srv := fakeJira(t)
    cases := []struct {
        args []string
        want string
    }{
        {nil, `project = "DEMO" ORDER BY updated DESC`},
        {[]string{"--status", "In Progress"}, `project = "DEMO" AND status = "In Progress"`},
        {[]string{"--type", "Bug"}, `project = "DEMO" AND issuetype = "Bug"`},
        {[]string{"--active-sprint"}, `project = "DEMO" AND sprint in openSprints()`},
        {[]string{"--assignee", "u1", "--days", "7"}, `project = "DEMO" AND assignee = "u1" AND updated >= -7d`},
    }
    for _, tc := range cases {
        args := append([]string{"issues", "--jira-url", srv.URL, "-p", "DEMO"}, tc.args...)
        out, err := execute(t, args...)
        if err != nil { t.Fatalf("%v: %v", tc.args, err) }
        if !strings.Contains(out, tc.want) { t.Fatalf("%v: output %q missing %q", tc.args, out, tc.want) }
        if !strings.Contains(out, "DEMO-1") || !strings.Contains(out, "Ops") { t.Fatalf("%v: output = %q", tc.args, out) }
    }
}

func TestIssuesFiltersAreExclusive(t *testing.T) {
    srv := fakeJira(t)
    if _, err := execute(t, "issues", "--jira-url", srv.URL, "-p", "DEMO", "--type", "Bug", "--active-sprint"); err == nil {
        t.Fatal("expected error for --type with --active-sprint")
    }
}
