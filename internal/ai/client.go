// Package ai provides the completion client used to generate replies,
// with interchangeable OpenAI-compatible and Gemini backends.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmazur/personabot/internal/config"
)

// Message roles in a completion request.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged entry in a completion request.
type Message struct {
	Role    string
	Content string
}

// Client is the completion service boundary: a single synchronous request
// carrying an ordered role-tagged message list, answered with completion
// text or an error.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// NewClient creates a completion client for the configured backend.
// It acts as a factory, selecting either the OpenAI-compatible or the
// Gemini implementation.
func NewClient(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (Client, error) {
	log.Info("Initializing AI client", "backend", cfg.Backend, "model", cfg.Model)

	switch cfg.Backend {
	case "openai":
		return newOpenAIClient(cfg, log)
	case "gemini":
		return newGeminiClient(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown AI backend: %s", cfg.Backend)
	}
}
