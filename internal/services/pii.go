/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "fmt"
    "regexp"
    "strings"

    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/HamedShams/agile-dashboard/internal/domain"
)

var (
    emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+`)
    phoneRe    = regexp.MustCompile(`\b\+?\d[\d\-\s]{7,}\b`)
    urlRe      = regexp.MustCompile(`https?://[^\s]+`)
    tokenRe    = regexp.MustCompile(`(?i)\b(?:token|secret|password|apikey|api_key|bearer)[:=\s]+[A-Za-z0-9\-\._~+/]{8,}\b`)
    jiraUserRe = regexp.MustCompile(`\bJIRAUSER\d+\b`)
)

func scrub(s string) string {
    s = strings.ReplaceAll(s, "\r\n", "\n")
    s = emailRe.ReplaceAllString(s, "<email>")
    s = phoneRe.ReplaceAllString(s, "<phone>")
    s = urlRe.ReplaceAllString(s, "<url>")
    s = tokenRe.ReplaceAllString(s, "<secret>")
    s = jiraUserRe.ReplaceAllString(s, "<user>")
    return s
}

// redactPII removes obvious PII/secrets and aliases team members. The input
// payload is not modified.
func redactPII(payload map[string]any) map[string]any {
    out := make(map[string]any, len(payload))
    alias := map[string]string{}
    next := 1
    aliasOf := func(id string) string {
        if v, ok := alias[id]; ok { return v }
        v := fmt.Sprintf("user%02d", next)
        next++
        alias[id] = v
        return v
    }
    for k, v := range payload {
        switch x := v.(type) {
        case []composer.MemberView:
            members := make([]composer.MemberView, len(x))
            for i, m := range x {
                id := strings.TrimSpace(m.User.AccountID)
                if id == "" { id = m.User.DisplayName }
                a := aliasOf(id)
                m.User = domain.User{AccountID: a, DisplayName: a, Active: m.User.Active}
                members[i] = m
            }
            out[k] = members
        case string:
            out[k] = scrub(x)
        case []string:
            ss := make([]string, len(x))
            for i, s := range x { ss[i] = scrub(s) }
            out[k] = ss
        default:
            out[k] = v
        }
    }
    return out
}
