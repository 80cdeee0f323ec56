package config

import (
    "os"
    "path/filepath"
    "testing"
    "time"
)

func TestLoadFieldsFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "fields.json")
    body := `[
      {"id":"customfield_10016","name":"Story point estimate"},
      {"id":"customfield_10026","name":"Story Points"},
      {"id":"customfield_10020","name":"Sprint"},
      {"id":"customfield_10014","name":"Epic Link"},
      {"id":"customfield_10021","name":"Flagged"},
      {"id":"","name":"Sprint"}
    ]`
    if err := os.WriteFile(path, []byte(body), 0o644); err != nil { t.Fatal(err) }
    m, err := LoadFieldsFile(path)
    if err != nil { t.Fatalf("load: %v", err) }
    if m.StoryPoints != "customfield_10016" || m.Sprint != "customfield_10020" || m.EpicLink != "customfield_10014" || m.Flagged != "customfield_10021" {
        t.Fatalf("mapping = %+v", m)
    }
    if _, err := LoadFieldsFile(filepath.Join(t.TempDir(), "missing.json")); err == nil { t.Fatalf("expected error for missing file") }
}

func TestLoadEnvAndFieldsPrecedence(t *testing.T) {
    path := filepath.Join(t.TempDir(), "fields.json")
    if err := os.WriteFile(path, []byte(`[{"id":"customfield_1","name":"Sprint"},{"id":"customfield_2","name":"Story Points"}]`), 0o644); err != nil { t.Fatal(err) }
    t.Setenv("APP_TZ", "UTC")
    t.Setenv("JIRA_FIELDS_FILE", path)
    t.Setenv("JIRA_STORY_POINTS_FIELD", "customfield_env")
    t.Setenv("JIRA_BASE_URL", "https://example.atlassian.net/")
    t.Setenv("RATE_LIMIT_RETRY_DELAY", "250ms")
    t.Setenv("DEFAULT_DAYS", "bogus")
    t.Setenv("TELEGRAM_CHAT_IDS", "1, -100200, x,")

    cfg := Load()
    if cfg.JiraFields.StoryPoints != "customfield_env" { t.Fatalf("env should win: %+v", cfg.JiraFields) }
    if cfg.JiraFields.Sprint != "customfield_1" { t.Fatalf("file should fill sprint: %+v", cfg.JiraFields) }
    if cfg.JiraBaseURL != "https://example.atlassian.net" { t.Fatalf("base url = %q", cfg.JiraBaseURL) }
    if cfg.RetryDelay != 250*time.Millisecond { t.Fatalf("retry delay = %v", cfg.RetryDelay) }
    if cfg.DefaultDays != 30 { t.Fatalf("bad int should fall back: %d", cfg.DefaultDays) }
    if len(cfg.TelegramChatIDs) != 2 || cfg.TelegramChatIDs[1] != -100200 { t.Fatalf("chat ids = %v", cfg.TelegramChatIDs) }
}

func TestValidate(t *testing.T) {
    if err := (Config{}).Validate(); err != ErrNoBaseURL { t.Fatalf("err = %v", err) }
    if err := (Config{JiraBaseURL: "x"}).Validate(); err != ErrNoCredentials { t.Fatalf("err = %v", err) }
    if err := (Config{JiraBaseURL: "x", JiraEmail: "a", JiraAPIToken: "b"}).Validate(); err != nil { t.Fatalf("err = %v", err) }
}
