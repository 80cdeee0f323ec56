/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package telegram

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "strings"
    "time"

    "github.com/HamedShams/agile-dashboard/internal/config"
    "github.com/rs/zerolog"
)

const defaultAPIBase = "https://api.telegram.org"

type Client struct {
    token string
    base  string
    http  *http.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{token: cfg.TelegramToken, base: defaultAPIBase, http: &http.Client{Timeout: 10 * time.Second}, log: log}
}

// WithBaseURL points the client at another Bot API host.
func (c *Client) WithBaseURL(u string) *Client {
    c.base = strings.TrimRight(u, "/")
    return c
}

func (c *Client) Enabled() bool { return c.token != "" }

func (c *Client) send(ctx context.Context, chatID int64, text, parseMode string) error {
    if c.token == "" || chatID == 0 { return fmt.Errorf("telegram: missing token or chat id") }
    url := fmt.Sprintf("%s/bot%s/sendMessage", c.base, c.token)
    body := map[string]any{"chat_id": chatID, "text": text, "disable_web_page_preview": true}
    if parseMode != "" { body["parse_mode"] = parseMode }
    b, _ := json.Marshal(body)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
    if err != nil { return err }
    req.Header.Set("Content-Type", "application/json")
    resp, err := c.http.Do(req)
    if err != nil { return err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        bodyBytes, _ := io.ReadAll(resp.Body)
        return fmt.Errorf("telegram sendMessage status=%d body=%s", resp.StatusCode, string(bodyBytes))
    }
    return nil
}

// SendMessagePlain sends without parse_mode to avoid markdown parsing errors
func (c *Client) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
    return c.send(ctx, chatID, text, "")
}

// SendMarkdownV2 sends a message using MarkdownV2 parse mode.
func (c *Client) SendMarkdownV2(ctx context.Context, chatID int64, text string) error {
    return c.send(ctx, chatID, text, "MarkdownV2")
}
