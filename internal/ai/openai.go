package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tmazur/personabot/internal/config"
)

// openaiClient talks to any OpenAI-compatible chat completions endpoint.
// The base URL is configurable, so the same client covers OpenAI proper and
// compatible providers like Fireworks.
type openaiClient struct {
	client      openai.Client
	log         *slog.Logger
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

func newOpenAIClient(cfg config.AIConfig, log *slog.Logger) (*openaiClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("AI API token is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.Token)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	return &openaiClient{
		client:      openai.NewClient(opts...),
		log:         log.With("component", "openai_client"),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: float64(cfg.Temperature),
		timeout:     cfg.Timeout,
	}, nil
}

func (c *openaiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	c.log.DebugContext(ctx, "Generating completion", "message_count", len(messages))

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(reqCtx, params)
	if err != nil {
		c.log.ErrorContext(ctx, "Chat completion request failed", "error", err)
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}
	return text, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
