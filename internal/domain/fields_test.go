package domain

import (
    "encoding/json"
    "strings"
    "testing"
    "time"
)

const issueJSON = `{
  "id": "10001",
  "key": "DEMO-1",
  "fields": {
    "summary": "Login fails",
    "status": {"name": "In Progress", "statusCategory": {"key": "indeterminate", "name": "In Progress"}},
    "issuetype": {"id": "1", "name": "Bug"},
    "created": "2024-03-01T10:00:00.000+0000",
    "resolutiondate": null,
    "customfield_10016": 5,
    "customfield_10020": [{"id": 7, "name": "Sprint 7", "state": "active", "startDate": "2024-03-01T09:00:00.000Z"}],
    "customfield_10021": [{"value": "Impediment"}],
    "customfield_99999": {"keep": "me"}
  }
}`

var testMapping = FieldMapping{StoryPoints: "customfield_10016", Sprint: "customfield_10020", Flagged: "customfield_10021", EpicLink: "customfield_10014"}

func TestIssueDecodeAndMapping(t *testing.T) {
    var is Issue
    if err := json.Unmarshal([]byte(issueJSON), &is); err != nil { t.Fatalf("decode: %v", err) }
    is.Fields.ApplyMapping(testMapping)

    if !is.IsBug() { t.Fatalf("expected bug") }
    if is.Points() != 5 { t.Fatalf("points = %v", is.Points()) }
    sp, ok := is.PrimarySprint()
    if !ok || sp.ID != 7 || sp.State != SprintActive { t.Fatalf("sprint = %+v ok=%v", sp, ok) }
    if !is.Fields.Flagged { t.Fatalf("expected flagged") }
    if is.Fields.EpicLink != "" { t.Fatalf("epic link = %q", is.Fields.EpicLink) }
    if _, ok := is.Resolved(); ok { t.Fatalf("unresolved issue reported resolved") }
    want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
    if !is.Fields.Created.Equal(want) { t.Fatalf("created = %v", is.Fields.Created) }

    out, err := json.Marshal(is)
    if err != nil { t.Fatalf("marshal: %v", err) }
    if !strings.Contains(string(out), `"customfield_99999":{"keep":"me"}`) { t.Fatalf("unknown field dropped: %s", out) }
}

func TestIssueMarshalKeepsTrackerBytes(t *testing.T) {
    var is Issue
    if err := json.Unmarshal([]byte(issueJSON), &is); err != nil { t.Fatalf("decode: %v", err) }
    is.Fields.ApplyMapping(testMapping)

    out, err := json.Marshal(is)
    if err != nil { t.Fatalf("marshal: %v", err) }
    var fields map[string]json.RawMessage
    var wrapper struct{ Fields json.RawMessage `json:"fields"` }
    if err := json.Unmarshal(out, &wrapper); err != nil { t.Fatalf("decode wrapper: %v", err) }
    if err := json.Unmarshal(wrapper.Fields, &fields); err != nil { t.Fatalf("decode fields: %v", err) }

    if got := string(fields["created"]); got != `"2024-03-01T10:00:00.000+0000"` { t.Fatalf("created = %s", got) }
    if got := string(fields["resolutiondate"]); got != `null` { t.Fatalf("resolutiondate = %s", got) }
    if !strings.Contains(string(fields["status"]), `"key":"indeterminate"`) { t.Fatalf("status = %s", fields["status"]) }
    if got := string(fields["storyPoints"]); got != `5` { t.Fatalf("logical storyPoints = %s", got) }
    if _, ok := fields["sprints"]; !ok { t.Fatalf("logical sprints missing: %s", wrapper.Fields) }

    var back Issue
    if err := json.Unmarshal(out, &back); err != nil { t.Fatalf("re-decode: %v", err) }
    if !back.Fields.Created.Equal(is.Fields.Created.Time) || back.Fields.Status.Name != "In Progress" { t.Fatalf("round trip = %+v", back.Fields) }
}

func TestApplyMappingDegrades(t *testing.T) {
    f := IssueFields{Raw: map[string]json.RawMessage{
        "customfield_10016": json.RawMessage(`"five"`),
        "customfield_10020": json.RawMessage(`null`),
        "customfield_10021": json.RawMessage(`[]`),
    }}
    f.ApplyMapping(testMapping)
    if f.StoryPoints != nil || f.Sprints != nil || f.Flagged { t.Fatalf("malformed values leaked: %+v", f) }

    var empty IssueFields
    empty.ApplyMapping(testMapping)
}

func TestParseTime(t *testing.T) {
    cases := map[string]time.Time{
        "2024-03-01T10:00:00.000+0200": time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
        "2024-03-01T10:00:00Z":         time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
        "2024-03-01":                   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
    }
    for in, want := range cases {
        got, ok := ParseTime(in)
        if !ok || !got.Equal(want) { t.Fatalf("ParseTime(%q) = %v, %v", in, got, ok) }
    }
    if _, ok := ParseTime("yesterday"); ok { t.Fatalf("garbage parsed") }

    var tm Time
    if err := json.Unmarshal([]byte(`"not a date"`), &tm); err == nil { t.Fatalf("expected parse error") }
    if err := json.Unmarshal([]byte(`null`), &tm); err != nil || !tm.IsZero() { t.Fatalf("null = %v, %v", tm, err) }
}
