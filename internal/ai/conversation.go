package ai

import "github.com/tmazur/personabot/internal/database"

// BuildConversation assembles the ordered message sequence for a completion
// request: the fixed system instruction, one role-tagged entry per stored
// transcript turn, and the current cleaned user text as the final entry.
//
// historyLimit caps how many of the most recent turns are replayed; zero
// replays the full transcript. Full replay grows the prompt without bound,
// which is an accepted trade-off for long-running personas.
func BuildConversation(instruction string, turns []database.TranscriptTurn, userText string, historyLimit int) []Message {
	if historyLimit > 0 && len(turns) > historyLimit {
		turns = turns[len(turns)-historyLimit:]
	}

	messages := make([]Message, 0, len(turns)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: instruction})

	for _, turn := range turns {
		role := RoleUser
		if turn.Role == database.RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: turn.Content})
	}

	return append(messages, Message{Role: RoleUser, Content: userText})
}
