/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/rs/zerolog"
)

var (
    ErrNoProject    = errors.New("digest: JIRA_DEFAULT_PROJECT not set")
    ErrStillLoading = errors.New("digest: dashboard data still loading")
    ErrFetchFailed  = errors.New("digest: dashboard data unavailable")
)

type Views interface {
    Overview(ctx context.Context, project string, days int) composer.Overview
    Flow(ctx context.Context, project string, days int) composer.FlowView
    Quality(ctx context.Context, project string, days int) composer.QualityView
    Team(ctx context.Context, project string, days int) composer.TeamView
}

type LLM interface {
    Enabled() bool
    Summarize(ctx context.Context, kpis map[string]float64, highlights []map[string]any) (string, error)
}

type Notifier interface {
    Enabled() bool
    SendMarkdownV2(ctx context.Context, chatID int64, text string) error
    SendMessagePlain(ctx context.Context, chatID int64, text string) error
}

type Service struct {
    cfg   config.Config
    log   zerolog.Logger
    views Views
    llm   LLM
    tg    Notifier
}

func New(cfg config.Config, log zerolog.Logger, views Views, llm LLM, tg Notifier) *Service {
    return &Service{cfg: cfg, log: log.With().Str("component", "digest").Logger(), views: views, llm: llm, tg: tg}
}

// Digest is one rendered report, ready to send.
type Digest struct {
    Project   string             `json:"project"`
    Days      int                `json:"days"`
    KPIs      map[string]float64 `json:"kpis"`
    Narrative string             `json:"narrative,omitempty"`
    Text      string             `json:"text"`
}

// Build composes the dashboard views for the default project into a digest.
func (s *Service) Build(ctx context.Context) (*Digest, error) {
    project := s.cfg.JiraDefaultProject
    if project == "" { return nil, ErrNoProject }
    days := s.cfg.DefaultDays

    ov := s.views.Overview(ctx, project, days)
    if err := viewErr(ov.State); err != nil { return nil, err }
    fl := s.views.Flow(ctx, project, days)
    if err := viewErr(fl.State); err != nil { return nil, err }
    q := s.views.Quality(ctx, project, days)
    if err := viewErr(q.State); err != nil { return nil, err }
    tm := s.views.Team(ctx, project, days)
    if err := viewErr(tm.State); err != nil { return nil, err }

    kpis := map[string]float64{
        "total_issues":        float64(ov.TotalIssues),
        "completed_issues":    float64(ov.CompletedIssues),
        "completion_rate":     ov.CompletionRate,
        "avg_velocity":        float64(ov.AvgVelocity),
        "avg_cycle_time_days": float64(ov.AvgCycleTime),
        "wip":                 float64(fl.WIP),
        "bug_rate":            q.BugRate,
        "defect_rate":         q.DefectRate,
        "first_time_fix":      q.FirstTimeFix,
        "bug_resolution_days": float64(q.ResolutionTime),
        "contributors":        float64(ov.ActiveContributors),
    }
    d := &Digest{Project: project, Days: days, KPIs: kpis}

    if s.llm != nil && s.llm.Enabled() {
        payload := redactPII(map[string]any{"members": tm.Members, "slowest": slowest(fl, 5)})
        highlights := []map[string]any{payload}
        n, err := s.llm.Summarize(ctx, kpis, highlights)
        if err != nil {
            s.log.Error().Err(err).Msg("digest narrative failed, sending figures only")
        } else {
            d.Narrative = n
        }
    }
    d.Text = renderDigest(project, days, ov, fl, q, d.Narrative)
    return d, nil
}

// RunWeeklyDigest builds the digest and sends it to every configured chat.
func (s *Service) RunWeeklyDigest(ctx context.Context) error {
    d, err := s.Build(ctx)
    if err != nil { return err }
    if s.tg == nil || !s.tg.Enabled() || len(s.cfg.TelegramChatIDs) == 0 {
        s.log.Info().Str("project", d.Project).Msg("digest built, no telegram destination configured")
        return nil
    }
    parts := chunkText(d.Text, 3800)
    var failed int
    for _, chat := range s.cfg.TelegramChatIDs {
        for _, p := range parts {
            if err := s.send(ctx, chat, p); err != nil {
                failed++
                s.log.Error().Err(err).Int64("chat", chat).Msg("telegram send failed")
                break
            }
        }
    }
    s.log.Info().Str("project", d.Project).Int("chats", len(s.cfg.TelegramChatIDs)).Int("failed", failed).Msg("digest sent")
    if failed == len(s.cfg.TelegramChatIDs) { return fmt.Errorf("digest: delivery failed for all %d chats", failed) }
    return nil
}

// send delivers one chunk as MarkdownV2 and falls back to plain text when
// Telegram rejects the markup.
func (s *Service) send(ctx context.Context, chat int64, chunk string) error {
    err := s.tg.SendMarkdownV2(ctx, chat, chunk)
    if err == nil { return nil }
    s.log.Warn().Err(err).Int64("chat", chat).Msg("markdown rejected, resending as plain text")
    return s.tg.SendMessagePlain(ctx, chat, stripMarkdownV2(chunk))
}

func viewErr(st composer.State) error {
    if st.Loading { return ErrStillLoading }
    if st.Error != "" { return ErrFetchFailed }
    return nil
}

func slowest(fl composer.FlowView, n int) []map[string]any {
    out := []map[string]any{}
    for i, p := range fl.CycleTime {
        if i >= n { break }
        out = append(out, map[string]any{"issue": p.Issue, "type": p.IssueType, "days": p.CycleTime})
    }
    return out
}

func escapeMarkdownV2(in string) string {
    repl := []string{"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!"}
    in = strings.ReplaceAll(in, "\\", "\\\\")
    for i := 0; i < len(repl); i += 2 { in = strings.ReplaceAll(in, repl[i], repl[i+1]) }
    return in
}

// stripMarkdownV2 undoes escapeMarkdownV2 and drops the bold markers
// renderDigest adds.
func stripMarkdownV2(in string) string {
    var b strings.Builder
    b.Grow(len(in))
    escaped := false
    for _, r := range in {
        switch {
        case escaped:
            b.WriteRune(r)
            escaped = false
        case r == '\\':
            escaped = true
        case r == '*':
        default:
            b.WriteRune(r)
        }
    }
    return b.String()
}

// renderDigest builds a MarkdownV2 summary
func renderDigest(project string, days int, ov composer.Overview, fl composer.FlowView, q composer.QualityView, narrative string) string {
    esc := escapeMarkdownV2
    line := func(b *strings.Builder, label, value string) { fmt.Fprintf(b, "*%s:* %s\n", esc(label), esc(value)) }
    b := &strings.Builder{}
    fmt.Fprintf(b, "*%s*\n", esc("Agile Dashboard: "+project))
    fmt.Fprintf(b, "%s\n\n", esc(fmt.Sprintf("Last %d days", days)))
    line(b, "Issues", fmt.Sprintf("%d (%d completed, %.1f%%)", ov.TotalIssues, ov.CompletedIssues, ov.CompletionRate))
    line(b, "Avg velocity", fmt.Sprintf("%d pts", ov.AvgVelocity))
    line(b, "Avg cycle time", fmt.Sprintf("%dd", ov.AvgCycleTime))
    line(b, "WIP", fmt.Sprintf("%d", fl.WIP))
    line(b, "Bug rate", fmt.Sprintf("%.1f%%", q.BugRate))
    line(b, "Defect rate", fmt.Sprintf("%.1f%%", q.DefectRate))
    line(b, "First time fix", fmt.Sprintf("%.1f%%", q.FirstTimeFix))
    line(b, "Bugs", fmt.Sprintf("%d created, %d resolved, %d reopened", q.BugsCreated, q.BugsResolved, q.BugsReopened))
    if ov.ActiveSprint != nil { line(b, "Active sprint", ov.ActiveSprint.Name) }
    if len(fl.CycleTime) > 0 {
        fmt.Fprintf(b, "\n*%s*\n", esc("Slowest items"))
        for i, p := range fl.CycleTime {
            if i >= 3 { break }
            fmt.Fprintf(b, "%s\n", esc(fmt.Sprintf("%d. %s (%s) %dd", i+1, p.Issue, p.IssueType, p.CycleTime)))
        }
    }
    if narrative != "" { fmt.Fprintf(b, "\n%s\n", esc(narrative)) }
    return b.String()
}

// chunkText splits text into chunks of up to max runes, attempting to break on line boundaries.
func chunkText(s string, max int) []string {
    if max <= 0 { return []string{s} }
    var chunks []string
    cur := []rune{}
    flush := func() {
        if len(cur) > 0 { chunks = append(chunks, string(cur)); cur = cur[:0] }
    }
    for _, ln := range strings.Split(s, "\n") {
        r := []rune(ln)
        if len(r) > max {
            flush()
            for i := 0; i < len(r); i += max { chunks = append(chunks, string(r[i:min(i+max, len(r))])) }
            continue
        }
        extra := len(r)
        if len(cur) > 0 { extra++ }
        if len(cur)+extra > max { flush() }
        if len(cur) > 0 { cur = append(cur, '\n') }
        cur = append(cur, r...)
    }
    flush()
    if len(chunks) == 0 { chunks = []string{""} }
    return chunks
}
