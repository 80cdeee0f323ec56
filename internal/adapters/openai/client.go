package openai

import (
    "context"
    "encoding/json"
    "errors"
    "strings"

    "github.com/HamedShams/agile-dashboard/internal/config"
    openai "github.com/openai/openai-go/v2"
    "github.com/openai/openai-go/v2/option"
    "github.com/openai/openai-go/v2/shared"
    "github.com/rs/zerolog"
)

var ErrMissingKey = errors.New("openai: missing key")

const digestPrompt = "You are a senior agile coach. Given dashboard KPIs for the last period and a few highlighted items, write a short, actionable summary: what changed, what looks risky, and one or two suggested actions. Plain text, at most 8 lines."

type Client struct {
    key   string
    model string
    cli   openai.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger, opts ...option.RequestOption) *Client {
    model := cfg.OpenAIModel
    if strings.TrimSpace(model) == "" { model = "gpt-4.1-mini" }
    base := []option.RequestOption{option.WithAPIKey(cfg.OpenAIKey)}
    if cfg.OpenAITimeout > 0 { base = append(base, option.WithRequestTimeout(cfg.OpenAITimeout)) }
    cli := openai.NewClient(append(base, opts...)...)
    return &Client{key: cfg.OpenAIKey, model: model, cli: cli, log: log.With().Str("component", "openai").Logger()}
}

func (c *Client) Enabled() bool { return strings.TrimSpace(c.key) != "" }

// Summarize asks the model for a digest narrative over already-redacted input.
func (c *Client) Summarize(ctx context.Context, kpis map[string]float64, highlights []map[string]any) (string, error) {
    if !c.Enabled() { return "", ErrMissingKey }
    c.log.Info().Str("model", c.model).Int("highlights", len(highlights)).Msg("openai Summarize call")
    userContent := ""
    if b, err := json.Marshal(map[string]any{"kpis": kpis, "highlights": highlights}); err == nil { userContent = string(b) }
    params := openai.ChatCompletionNewParams{
        Model: shared.ChatModel(c.model),
        Messages: []openai.ChatCompletionMessageParamUnion{
            openai.SystemMessage(digestPrompt),
            openai.UserMessage(userContent),
        },
    }
    resp, err := c.cli.Chat.Completions.New(ctx, params)
    if err != nil { return "", err }
    if len(resp.Choices) == 0 { return "", errors.New("openai: no choices") }
    return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
