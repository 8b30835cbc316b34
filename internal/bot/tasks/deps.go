// Package tasks implements scheduled background tasks for personabot.
package tasks

import (
	"log/slog"

	"github.com/tmazur/personabot/internal/config"
	"github.com/tmazur/personabot/internal/database"
)

// TaskDeps contains the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
