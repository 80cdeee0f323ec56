package services

import (
    "context"
    "errors"
    "strings"
    "testing"

    "github.com/HamedShams/agile-dashboard/internal/composer"
    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/HamedShams/agile-dashboard/internal/domain"
    "github.com/rs/zerolog"
)

type fakeViews struct{ state composer.State }

func (f fakeViews) Overview(ctx context.Context, project string, days int) composer.Overview {
    return composer.Overview{State: f.state, Project: project, Days: days, TotalIssues: 10, CompletedIssues: 4, CompletionRate: 40, AvgVelocity: 21, AvgCycleTime: 3,
        ActiveSprint: &domain.Sprint{Name: "Sprint 12"}}
}

func (f fakeViews) Flow(ctx context.Context, project string, days int) composer.FlowView {
    return composer.FlowView{State: f.state, WIP: 5, CycleTime: []domain.CycleTimePoint{{Issue: "DEMO-9", IssueType: "Bug", CycleTime: 12}}}
}

func (f fakeViews) Quality(ctx context.Context, project string, days int) composer.QualityView {
    return composer.QualityView{State: f.state, BugRate: 25, DefectRate: 12.5, FirstTimeFix: 90}
}

func (f fakeViews) Team(ctx context.Context, project string, days int) composer.TeamView {
    return composer.TeamView{State: f.state, Members: []composer.MemberView{{User: domain.User{AccountID: "acc-1", DisplayName: "Alice Smith"}}}}
}

type fakeLLM struct {
    got []map[string]any
    err error
}

func (f *fakeLLM) Enabled() bool { return true }
func (f *fakeLLM) Summarize(ctx context.Context, kpis map[string]float64, highlights []map[string]any) (string, error) {
    f.got = highlights
    if f.err != nil { return "", f.err }
    return "Cycle time is up. Look at DEMO-9.", nil
}

type fakeNotifier struct {
    sent           map[int64][]string
    plain          map[int64][]string
    rejectMarkdown bool
    plainErr       error
}

func (f *fakeNotifier) Enabled() bool { return true }
func (f *fakeNotifier) SendMarkdownV2(ctx context.Context, chatID int64, text string) error {
    if f.rejectMarkdown { return errors.New("telegram status=400: can't parse entities") }
    if f.sent == nil { f.sent = map[int64][]string{} }
    f.sent[chatID] = append(f.sent[chatID], text)
    return nil
}
func (f *fakeNotifier) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
    if f.plainErr != nil { return f.plainErr }
    if f.plain == nil { f.plain = map[int64][]string{} }
    f.plain[chatID] = append(f.plain[chatID], text)
    return nil
}

func digestConfig() config.Config {
    return config.Config{JiraDefaultProject: "DEMO", DefaultDays: 30, TelegramChatIDs: []int64{1, 2}}
}

func TestRunWeeklyDigest_SendsToEveryChat(t *testing.T) {
    llm := &fakeLLM{}
    tg := &fakeNotifier{}
    svc := New(digestConfig(), zerolog.Nop(), fakeViews{}, llm, tg)

    if err := svc.RunWeeklyDigest(context.Background()); err != nil { t.Fatalf("digest: %v", err) }
    if len(tg.sent) != 2 { t.Fatalf("expected 2 chats, got %d", len(tg.sent)) }
    text := strings.Join(tg.sent[1], "\n")
    for _, want := range []string{"DEMO", "Sprint 12", "DEMO\\-9", "Cycle time is up\\."} {
        if !strings.Contains(text, want) { t.Fatalf("digest missing %q:\n%s", want, text) }
    }
    if len(llm.got) != 1 { t.Fatalf("expected one highlight payload") }
    members, _ := llm.got[0]["members"].([]composer.MemberView)
    if len(members) != 1 || members[0].User.DisplayName == "Alice Smith" { t.Fatalf("members not redacted: %#v", members) }
}

func TestBuild_FailuresAndFallbacks(t *testing.T) {
    cfg := digestConfig()
    cfg.JiraDefaultProject = ""
    if _, err := New(cfg, zerolog.Nop(), fakeViews{}, nil, nil).Build(context.Background()); !errors.Is(err, ErrNoProject) {
        t.Fatalf("expected ErrNoProject, got %v", err)
    }
    if _, err := New(digestConfig(), zerolog.Nop(), fakeViews{state: composer.State{Loading: true}}, nil, nil).Build(context.Background()); !errors.Is(err, ErrStillLoading) {
        t.Fatalf("expected ErrStillLoading, got %v", err)
    }
    if _, err := New(digestConfig(), zerolog.Nop(), fakeViews{state: composer.State{Error: composer.GenericError}}, nil, nil).Build(context.Background()); !errors.Is(err, ErrFetchFailed) {
        t.Fatalf("expected ErrFetchFailed, got %v", err)
    }

    d, err := New(digestConfig(), zerolog.Nop(), fakeViews{}, &fakeLLM{err: errors.New("quota")}, nil).Build(context.Background())
    if err != nil { t.Fatalf("narrative failure must not fail the digest: %v", err) }
    if d.Narrative != "" || d.KPIs["defect_rate"] != 12.5 { t.Fatalf("unexpected digest %+v", d) }
}

func TestChunkText(t *testing.T) {
    got := chunkText("aaaa\nbbbb\ncc", 9)
    if len(got) != 2 || got[0] != "aaaa\nbbbb" || got[1] != "cc" { t.Fatalf("unexpected chunks %q", got) }
    long := chunkText(strings.Repeat("x", 10), 4)
    if len(long) != 3 || long[2] != "xx" { t.Fatalf("long line not hard split: %q", long) }
    if c := chunkText("", 5); len(c) != 1 || c[0] != "" { t.Fatalf("empty input: %q", c) }
}

func TestRunWeeklyDigest_FallsBackToPlainText(t *testing.T) {
    tg := &fakeNotifier{rejectMarkdown: true}
    svc := New(digestConfig(), zerolog.Nop(), fakeViews{}, &fakeLLM{}, tg)

    if err := svc.RunWeeklyDigest(context.Background()); err != nil { t.Fatalf("digest: %v", err) }
    if len(tg.sent) != 0 || len(tg.plain) != 2 { t.Fatalf("sent=%d plain=%d", len(tg.sent), len(tg.plain)) }
    text := strings.Join(tg.plain[2], "\n")
    for _, want := range []string{"Agile Dashboard: DEMO", "Active sprint: Sprint 12", "1. DEMO-9 (Bug) 12d", "Cycle time is up."} {
        if !strings.Contains(text, want) { t.Fatalf("plain digest missing %q:\n%s", want, text) }
    }
    if strings.ContainsAny(text, "*\\") { t.Fatalf("markup left in plain digest:\n%s", text) }

    tg = &fakeNotifier{rejectMarkdown: true, plainErr: errors.New("blocked")}
    if err := New(digestConfig(), zerolog.Nop(), fakeViews{}, nil, tg).RunWeeklyDigest(context.Background()); err == nil {
        t.Fatal("expected error when every chat fails both sends")
    }
}

func TestStripMarkdownV2(t *testing.T) {
    in := "*Bug rate:* 25\\.0% \\(a\\\\b\\)"
    if got := stripMarkdownV2(in); got != "Bug rate: 25.0% (a\\b)" { t.Fatalf("got %q", got) }
    if got := stripMarkdownV2(escapeMarkdownV2("x_y*z [1] c:\\d")); got != "x_y*z [1] c:\\d" { t.Fatalf("round trip got %q", got) }
}
