package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from, in order of precedence:
// BOT_* environment variables, the config file at path, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets have no default value, so they need an explicit binding for
	// the environment lookup to reach Unmarshal.
	for _, key := range []string{"telegram.token", "ai.token"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, everything can come from
		// defaults and environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", DefaultLogJSON)

	v.SetDefault("ai.backend", DefaultAIBackend)
	v.SetDefault("ai.base_url", DefaultAIBaseURL)
	v.SetDefault("ai.model", DefaultAIModel)
	v.SetDefault("ai.temperature", DefaultAITemperature)
	v.SetDefault("ai.max_tokens", DefaultAIMaxTokens)
	v.SetDefault("ai.timeout", DefaultAITimeout)
	v.SetDefault("ai.instruction", DefaultAIInstruction)

	v.SetDefault("bot.reply_delay", DefaultBotReplyDelay)
	v.SetDefault("bot.history_limit", DefaultBotHistoryLimit)

	v.SetDefault("bot.messages.welcome", DefaultBotMessages.Welcome)
	v.SetDefault("bot.messages.blacklisted", DefaultBotMessages.Blacklisted)
	v.SetDefault("bot.messages.not_authorized", DefaultBotMessages.NotAuthorized)
	v.SetDefault("bot.messages.provide_target", DefaultBotMessages.ProvideTarget)
	v.SetDefault("bot.messages.banned", DefaultBotMessages.Banned)
	v.SetDefault("bot.messages.already_banned", DefaultBotMessages.AlreadyBanned)
	v.SetDefault("bot.messages.unbanned", DefaultBotMessages.Unbanned)
	v.SetDefault("bot.messages.not_in_blacklist", DefaultBotMessages.NotInBlacklist)
	v.SetDefault("bot.messages.blacklist_header", DefaultBotMessages.BlacklistHeader)
	v.SetDefault("bot.messages.blacklist_empty", DefaultBotMessages.BlacklistEmpty)
	v.SetDefault("bot.messages.general_error", DefaultBotMessages.GeneralError)
	v.SetDefault("bot.messages.fallback", DefaultBotMessages.Fallback)

	v.SetDefault("database.path", DefaultDBPath)
}
