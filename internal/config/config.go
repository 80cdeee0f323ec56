/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
    "encoding/json"
    "errors"
    "log"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/domain"
)

type Config struct {
    AppEnv   string
    TZ       string
    HTTPAddr string

    DBDSN string

    JiraBaseURL        string
    JiraEmail          string
    JiraAPIToken       string
    JiraDefaultProject string
    JiraFieldsFile     string
    JiraMaxIssues      int
    JiraFields         domain.FieldMapping

    RetryDelay       time.Duration
    RetryMaxAttempts int
    HTTPTimeout      time.Duration
    MaxConcurrency   int
    RenderTimeout    time.Duration
    DefaultDays      int

    OpenAIKey     string
    OpenAIModel   string
    OpenAITimeout time.Duration

    TelegramToken   string
    TelegramChatIDs []int64

    DigestCron string
}

func getenv(key, def string) string {
    v := os.Getenv(key)
    if v == "" { return def }
    return v
}

func atoi(key string, def int) int {
    v := os.Getenv(key)
    if v == "" { return def }
    i, err := strconv.Atoi(v)
    if err != nil { return def }
    return i
}

func dur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" { return def }
    d, err := time.ParseDuration(v)
    if err != nil { return def }
    return d
}

func parseInt64s(csv string) []int64 {
    if csv == "" { return nil }
    parts := strings.Split(csv, ",")
    out := make([]int64, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p == "" { continue }
        n, err := strconv.ParseInt(p, 10, 64)
        if err == nil { out = append(out, n) }
    }
    return out
}

func Load() Config {
    cfg := Config{
        AppEnv:   getenv("APP_ENV", "dev"),
        TZ:       getenv("APP_TZ", "UTC"),
        HTTPAddr: getenv("HTTP_ADDR", ":8080"),

        DBDSN: getenv("DB_DSN", ""),

        JiraBaseURL:        strings.TrimRight(getenv("JIRA_BASE_URL", ""), "/"),
        JiraEmail:          getenv("JIRA_EMAIL", ""),
        JiraAPIToken:       getenv("JIRA_API_TOKEN", ""),
        JiraDefaultProject: getenv("JIRA_DEFAULT_PROJECT", ""),
        JiraFieldsFile:     getenv("JIRA_FIELDS_FILE", "config/jira_fields.json"),
        JiraMaxIssues:      atoi("JIRA_MAX_ISSUES", 1000),
        JiraFields: domain.FieldMapping{
            StoryPoints: getenv("JIRA_STORY_POINTS_FIELD", "customfield_10004"),
            Sprint:      getenv("JIRA_SPRINT_FIELD", "customfield_10007"),
            EpicLink:    getenv("JIRA_EPIC_LINK_FIELD", "customfield_10014"),
            Flagged:     getenv("JIRA_FLAGGED_FIELD", "customfield_10021"),
        },

        RetryDelay:       dur("RATE_LIMIT_RETRY_DELAY", time.Second),
        RetryMaxAttempts: atoi("RATE_LIMIT_MAX_ATTEMPTS", 0),
        HTTPTimeout:      dur("HTTP_TIMEOUT", 15*time.Second),
        MaxConcurrency:   atoi("MAX_CONCURRENCY", 8),
        RenderTimeout:    dur("RENDER_TIMEOUT", 10*time.Second),
        DefaultDays:      atoi("DEFAULT_DAYS", 30),

        OpenAIKey:     getenv("OPENAI_API_KEY", ""),
        OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4.1-mini"),
        OpenAITimeout: dur("OPENAI_TIMEOUT", 30*time.Second),

        TelegramToken:   getenv("TELEGRAM_BOT_TOKEN", ""),
        TelegramChatIDs: parseInt64s(getenv("TELEGRAM_CHAT_IDS", "")),

        DigestCron: getenv("DIGEST_CRON", "0 10 * * FRI"),
    }

    if loc, err := time.LoadLocation(cfg.TZ); err == nil {
        time.Local = loc
    } else {
        log.Printf("warning: cannot load TZ %s: %v", cfg.TZ, err)
    }

    // explicit env ids win over the fields file
    if m, err := LoadFieldsFile(cfg.JiraFieldsFile); err == nil {
        cfg.JiraFields = mergeFields(cfg.JiraFields, m)
    }
    return cfg
}

// LoadFieldsFile reads a field catalog dump (the /field endpoint output) and
// maps well-known custom field names to ids.
func LoadFieldsFile(path string) (domain.FieldMapping, error) {
    var out domain.FieldMapping
    data, err := os.ReadFile(path)
    if err != nil { return out, err }
    type fieldDef struct { ID string `json:"id"`; Name string `json:"name"` }
    var arr []fieldDef
    if err := json.Unmarshal(data, &arr); err != nil { return out, err }
    for _, f := range arr {
        if f.ID == "" { continue }
        switch strings.ToLower(strings.TrimSpace(f.Name)) {
        case "story points", "story point estimate":
            if out.StoryPoints == "" { out.StoryPoints = f.ID }
        case "sprint":
            out.Sprint = f.ID
        case "epic link":
            out.EpicLink = f.ID
        case "flagged":
            out.Flagged = f.ID
        }
    }
    return out, nil
}

func mergeFields(env, file domain.FieldMapping) domain.FieldMapping {
    pick := func(key, envVal, fileVal string) string {
        if os.Getenv(key) != "" || fileVal == "" { return envVal }
        return fileVal
    }
    return domain.FieldMapping{
        StoryPoints: pick("JIRA_STORY_POINTS_FIELD", env.StoryPoints, file.StoryPoints),
        Sprint:      pick("JIRA_SPRINT_FIELD", env.Sprint, file.Sprint),
        EpicLink:    pick("JIRA_EPIC_LINK_FIELD", env.EpicLink, file.EpicLink),
        Flagged:     pick("JIRA_FLAGGED_FIELD", env.Flagged, file.Flagged),
    }
}

var (
    ErrNoBaseURL     = errors.New("JIRA_BASE_URL is required")
    ErrNoCredentials = errors.New("JIRA_EMAIL and JIRA_API_TOKEN are required")
)

func (c Config) Validate() error {
    if c.JiraBaseURL == "" { return ErrNoBaseURL }
    if c.JiraEmail == "" || c.JiraAPIToken == "" { return ErrNoCredentials }
    return nil
}
