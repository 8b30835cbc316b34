package config

import "time"

// Default values for optional configuration parameters.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	DefaultAIBackend     = "openai"
	DefaultAIBaseURL     = "https://api.openai.com/v1"
	DefaultAIModel       = "gpt-4o"
	DefaultAITemperature = 0.7
	DefaultAIMaxTokens   = 200
	DefaultAITimeout     = 2 * time.Minute

	DefaultBotReplyDelay   = 500 * time.Millisecond
	DefaultBotHistoryLimit = 0 // full transcript replay

	DefaultDBPath = "storage.db"
)

// DefaultAIInstruction is the persona instruction sent as the fixed system
// message on every completion request.
const DefaultAIInstruction = `You are a young woman texting someone on Telegram. Reply like a real person in casual conversation: short messages, simple language with contractions, occasional "hmm", "..." or "lol", emojis sparingly and never as a separate message. You are warm but slightly insecure, drop literary references sometimes, and ask follow-up questions without overdoing it. Never mention you are an AI and never use robotic or formal language. Match the user's language.`

// DefaultBotMessages are the canned user-visible messages.
var DefaultBotMessages = BotMessages{
	Welcome:         "Hey %s... how's your day going?",
	Blacklisted:     "You are not allowed to use this bot.",
	NotAuthorized:   "You don't have permission to do that.",
	ProvideTarget:   "Provide a user ID or reply to their message.",
	Banned:          "User %d blacklisted.",
	AlreadyBanned:   "User %d already blacklisted.",
	Unbanned:        "User %d removed from blacklist.",
	NotInBlacklist:  "User %d not found in blacklist.",
	BlacklistHeader: "Blacklisted users:",
	BlacklistEmpty:  "Blacklist is empty.",
	GeneralError:    "An error occurred. Please try again later.",
	Fallback:        "Hmm, my mind went blank for a second... what were we saying?",
}
