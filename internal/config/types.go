// Package config manages application configuration from config.yaml,
// BOT_-prefixed environment variables, and default values.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config holds all application configuration, grouped by component.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	AI        AIConfig        `mapstructure:"ai"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls log verbosity and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram transport settings and the static admin list.
type TelegramConfig struct {
	Token    string  `mapstructure:"token"     validate:"required"`
	AdminIDs []int64 `mapstructure:"admin_ids" validate:"required,min=1,dive,gt=0"`

	// BotInfo is populated at startup from GetMe, not from configuration.
	BotInfo *models.User `mapstructure:"-"`
}

// IsAdmin reports whether the given user ID is in the configured admin list.
func (c TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AIConfig holds completion service settings.
type AIConfig struct {
	Backend     string        `mapstructure:"backend"     validate:"required,oneof=openai gemini"`
	Token       string        `mapstructure:"token"       validate:"required"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxTokens   int           `mapstructure:"max_tokens"  validate:"min=1"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	Instruction string        `mapstructure:"instruction" validate:"required"`
}

// BotConfig holds conversational behavior settings.
type BotConfig struct {
	// ReplyDelay is the pause between consecutive reply chunks.
	ReplyDelay time.Duration `mapstructure:"reply_delay" validate:"min=0"`

	// HistoryLimit caps how many transcript turns are replayed to the
	// completion service. Zero replays the full transcript.
	HistoryLimit int `mapstructure:"history_limit" validate:"min=0"`

	Messages BotMessages `mapstructure:"messages"`
}

// BotMessages holds every user-visible canned message.
type BotMessages struct {
	Welcome         string `mapstructure:"welcome"          validate:"required"`
	Blacklisted     string `mapstructure:"blacklisted"      validate:"required"`
	NotAuthorized   string `mapstructure:"not_authorized"   validate:"required"`
	ProvideTarget   string `mapstructure:"provide_target"   validate:"required"`
	Banned          string `mapstructure:"banned"           validate:"required"`
	AlreadyBanned   string `mapstructure:"already_banned"   validate:"required"`
	Unbanned        string `mapstructure:"unbanned"         validate:"required"`
	NotInBlacklist  string `mapstructure:"not_in_blacklist" validate:"required"`
	BlacklistHeader string `mapstructure:"blacklist_header" validate:"required"`
	BlacklistEmpty  string `mapstructure:"blacklist_empty"  validate:"required"`
	GeneralError    string `mapstructure:"general_error"    validate:"required"`
	Fallback        string `mapstructure:"fallback"         validate:"required"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig holds scheduled task definitions keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single scheduled task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
