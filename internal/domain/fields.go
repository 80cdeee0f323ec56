/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package domain

import (
    "bytes"
    "encoding/json"
    "strconv"
    "strings"
    "time"
)

// FieldMapping maps logical custom fields to tenant-specific field ids.
type FieldMapping struct {
    StoryPoints string
    Sprint      string
    EpicLink    string
    Flagged     string
}

// Time accepts the timestamp layouts the tracker emits, plus plain dates.
type Time struct{ time.Time }

var timeLayouts = []string{
    "2006-01-02T15:04:05.000-0700",
    "2006-01-02T15:04:05-0700",
    time.RFC3339Nano,
    time.RFC3339,
    "2006-01-02T15:04:05.000Z",
    "2006-01-02",
}

func ParseTime(s string) (Time, bool) {
    s = strings.TrimSpace(s)
    if s == "" { return Time{}, false }
    for _, l := range timeLayouts {
        if t, err := time.Parse(l, s); err == nil { return Time{t}, true }
    }
    return Time{}, false
}

// MustTime is for fixtures and tests.
func MustTime(s string) *Time {
    t, ok := ParseTime(s)
    if !ok { panic("domain: bad time " + s) }
    return &t
}

func (t *Time) UnmarshalJSON(b []byte) error {
    if bytes.Equal(b, []byte("null")) { *t = Time{}; return nil }
    s, err := strconv.Unquote(string(b))
    if err != nil { return err }
    if s == "" { *t = Time{}; return nil }
    pt, ok := ParseTime(s)
    if !ok { return &time.ParseError{Layout: timeLayouts[0], Value: s} }
    *t = pt
    return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
    if t.IsZero() { return []byte("null"), nil }
    return json.Marshal(t.Time.Format(time.RFC3339))
}

// ApplyMapping resolves logical custom fields from the raw payload. Missing or
// malformed values degrade to zero values.
func (f *IssueFields) ApplyMapping(m FieldMapping) {
    if f.Raw == nil { return }
    if raw, ok := f.Raw[m.StoryPoints]; ok && m.StoryPoints != "" {
        var v *float64
        if err := json.Unmarshal(raw, &v); err == nil && v != nil { f.StoryPoints = v }
    }
    if raw, ok := f.Raw[m.Sprint]; ok && m.Sprint != "" {
        var refs []SprintRef
        if err := json.Unmarshal(raw, &refs); err == nil { f.Sprints = refs }
    }
    if raw, ok := f.Raw[m.EpicLink]; ok && m.EpicLink != "" {
        var s string
        if err := json.Unmarshal(raw, &s); err == nil { f.EpicLink = s }
    }
    if raw, ok := f.Raw[m.Flagged]; ok && m.Flagged != "" {
        // flagged is an array of options when set, null otherwise
        trimmed := bytes.TrimSpace(raw)
        f.Flagged = len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) && !bytes.Equal(trimmed, []byte("[]"))
    }
}
