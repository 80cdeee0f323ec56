package telegram

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/rs/zerolog"
)

func TestSendMarkdownV2(t *testing.T) {
    var got map[string]any
    var path string
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        path = r.URL.Path
        _ = json.NewDecoder(r.Body).Decode(&got)
        w.WriteHeader(http.StatusOK)
    }))
    defer srv.Close()

    c := NewClient(config.Config{TelegramToken: "T0K"}, zerolog.Nop()).WithBaseURL(srv.URL)
    if err := c.SendMarkdownV2(context.Background(), 42, "*hi*"); err != nil { t.Fatalf("send: %v", err) }
    if path != "/botT0K/sendMessage" { t.Fatalf("unexpected path %q", path) }
    if got["parse_mode"] != "MarkdownV2" || got["text"] != "*hi*" || got["chat_id"] != float64(42) {
        t.Fatalf("unexpected body %#v", got)
    }

    got = nil
    if err := c.SendMessagePlain(context.Background(), 42, "plain"); err != nil { t.Fatalf("send plain: %v", err) }
    if _, ok := got["parse_mode"]; ok { t.Fatalf("plain message should not set parse_mode") }
}

func TestSend_Errors(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        http.Error(w, `{"ok":false}`, http.StatusBadRequest)
    }))
    defer srv.Close()
    c := NewClient(config.Config{TelegramToken: "T0K"}, zerolog.Nop()).WithBaseURL(srv.URL)
    if err := c.SendMarkdownV2(context.Background(), 1, "x"); err == nil { t.Fatalf("expected status error") }
    if err := c.SendMarkdownV2(context.Background(), 0, "x"); err == nil { t.Fatalf("expected missing chat error") }
    if NewClient(config.Config{}, zerolog.Nop()).Enabled() { t.Fatalf("client without token must be disabled") }
}
