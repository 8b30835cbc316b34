package handlers

import (
	"log/slog"

	"github.com/tmazur/personabot/internal/ai"
	"github.com/tmazur/personabot/internal/config"
	"github.com/tmazur/personabot/internal/database"
)

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	AIClient ai.Client
}
