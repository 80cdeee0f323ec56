package domain

import (
    "encoding/json"
    "strings"
    "time"
)

// Sprint lifecycle states as reported by the agile API.
const (
    SprintFuture = "future"
    SprintActive = "active"
    SprintClosed = "closed"
)

type AvatarURLs map[string]string

type User struct {
    AccountID    string     `json:"accountId"`
    DisplayName  string     `json:"displayName"`
    EmailAddress string     `json:"emailAddress,omitempty"`
    AvatarURLs   AvatarURLs `json:"avatarUrls,omitempty"`
    Active       bool       `json:"active"`
    TimeZone     string     `json:"timeZone,omitempty"`
}

type Project struct {
    ID             string     `json:"id"`
    Key            string     `json:"key"`
    Name           string     `json:"name"`
    AvatarURLs     AvatarURLs `json:"avatarUrls,omitempty"`
    ProjectTypeKey string     `json:"projectTypeKey,omitempty"`
    Simplified     bool       `json:"simplified"`
    Style          string     `json:"style,omitempty"`
    IsPrivate      bool       `json:"isPrivate"`
}

type BoardLocation struct {
    ProjectID   int64  `json:"projectId,omitempty"`
    ProjectKey  string `json:"projectKey,omitempty"`
    ProjectName string `json:"projectName,omitempty"`
}

type Board struct {
    ID       int64          `json:"id"`
    Name     string         `json:"name"`
    Type     string         `json:"type"`
    Location *BoardLocation `json:"location,omitempty"`
}

type Sprint struct {
    ID            int64  `json:"id"`
    Name          string `json:"name"`
    State         string `json:"state"`
    StartDate     *Time  `json:"startDate,omitempty"`
    EndDate       *Time  `json:"endDate,omitempty"`
    CompleteDate  *Time  `json:"completeDate,omitempty"`
    Goal          string `json:"goal,omitempty"`
    OriginBoardID int64  `json:"originBoardId,omitempty"`
}

// SprintRef is the sprint attribution embedded in an issue's sprint custom field.
type SprintRef struct {
    ID           int64  `json:"id"`
    Name         string `json:"name"`
    State        string `json:"state"`
    StartDate    *Time  `json:"startDate,omitempty"`
    EndDate      *Time  `json:"endDate,omitempty"`
    CompleteDate *Time  `json:"completeDate,omitempty"`
    Goal         string `json:"goal,omitempty"`
}

type StatusCategory struct {
    Key  string `json:"key"`
    Name string `json:"name"`
}

type Status struct {
    Name           string         `json:"name"`
    StatusCategory StatusCategory `json:"statusCategory"`
}

type IssueType struct {
    ID      string `json:"id"`
    Name    string `json:"name"`
    IconURL string `json:"iconUrl,omitempty"`
}

type Named struct {
    ID   string `json:"id"`
    Name string `json:"name"`
}

type Issue struct {
    ID     string      `json:"id"`
    Key    string      `json:"key"`
    Self   string      `json:"self,omitempty"`
    Fields IssueFields `json:"fields"`
}

// IssueFields holds the standard fields decoded into typed values, the raw
// tracker payload, and logical custom fields resolved via ApplyMapping.
type IssueFields struct {
    Summary        string    `json:"summary"`
    Status         Status    `json:"status"`
    IssueType      IssueType `json:"issuetype"`
    Priority       *Named    `json:"priority,omitempty"`
    Assignee       *User     `json:"assignee,omitempty"`
    Reporter       *User     `json:"reporter,omitempty"`
    Created        Time      `json:"created"`
    Updated        *Time     `json:"updated,omitempty"`
    ResolutionDate *Time     `json:"resolutiondate,omitempty"`
    Labels         []string  `json:"labels,omitempty"`
    Components     []Named   `json:"components,omitempty"`
    FixVersions    []Named   `json:"fixVersions,omitempty"`

    StoryPoints *float64    `json:"storyPoints,omitempty"`
    Sprints     []SprintRef `json:"sprints,omitempty"`
    EpicLink    string      `json:"epicLink,omitempty"`
    Flagged     bool        `json:"flagged,omitempty"`

    Raw map[string]json.RawMessage `json:"-"`
}

func (f *IssueFields) UnmarshalJSON(b []byte) error {
    type plain IssueFields
    var p plain
    if err := json.Unmarshal(b, &p); err != nil { return err }
    var raw map[string]json.RawMessage
    if err := json.Unmarshal(b, &raw); err != nil { return err }
    *f = IssueFields(p)
    f.Raw = raw
    return nil
}

// MarshalJSON emits the raw tracker payload plus the typed and logical fields
// it lacks. A key the tracker sent keeps its original bytes, so timestamps and
// nested objects re-encode exactly as received.
func (f IssueFields) MarshalJSON() ([]byte, error) {
    type plain IssueFields
    typed, err := json.Marshal(plain(f))
    if err != nil { return nil, err }
    if len(f.Raw) == 0 { return typed, nil }
    var out map[string]json.RawMessage
    if err := json.Unmarshal(typed, &out); err != nil { return nil, err }
    for k, v := range f.Raw { out[k] = v }
    return json.Marshal(out)
}

// PrimarySprint returns the issue's first sprint attribution, if any.
func (i Issue) PrimarySprint() (SprintRef, bool) {
    if len(i.Fields.Sprints) == 0 { return SprintRef{}, false }
    return i.Fields.Sprints[0], true
}

func (i Issue) Points() float64 {
    if i.Fields.StoryPoints == nil { return 0 }
    return *i.Fields.StoryPoints
}

func (i Issue) IsBug() bool { return strings.EqualFold(i.Fields.IssueType.Name, "bug") }

func (i Issue) Resolved() (time.Time, bool) {
    if i.Fields.ResolutionDate == nil || i.Fields.ResolutionDate.IsZero() { return time.Time{}, false }
    return i.Fields.ResolutionDate.Time, true
}
