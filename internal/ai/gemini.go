package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/tmazur/personabot/internal/config"
)

// geminiClient implements the completion boundary against the Gemini API.
type geminiClient struct {
	client  *genai.Client
	log     *slog.Logger
	model   string
	baseCfg *genai.GenerateContentConfig
	timeout time.Duration
}

func newGeminiClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (*geminiClient, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("AI API token is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Token,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
		//nolint:gosec // max_tokens is validated to a small positive range
		MaxOutputTokens: int32(cfg.MaxTokens),
	}

	return &geminiClient{
		client:  gi,
		log:     log.With("component", "gemini_client"),
		model:   cfg.Model,
		baseCfg: baseCfg,
		timeout: cfg.Timeout,
	}, nil
}

func (c *geminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	c.log.DebugContext(ctx, "Generating completion", "message_count", len(messages))

	genCfg := *c.baseCfg
	var contents []*genai.Content

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			genCfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: m.Content}}}
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(reqCtx, c.model, contents, &genCfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Gemini completion request failed", "error", err)
		return "", fmt.Errorf("gemini completion request failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "reason", reason)
		return "", fmt.Errorf("completion blocked by safety filter: %s", reason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini completion returned empty content")
	}
	return text, nil
}
