package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command. It re-registers
// the sender's identity metadata and sends the greeting, or a rejection
// notice when the sender is blacklisted.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	userID := msg.From.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", userID)

	// Explicit commands from blacklisted users get a fixed rejection,
	// unlike ordinary messages which are ignored silently.
	if h.deps.Store.IsBlacklisted(ctx, userID) {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   h.deps.Config.Bot.Messages.Blacklisted,
		}); err != nil {
			log.ErrorContext(ctx, "Failed to send blacklist rejection", "error", err, "chat_id", chatID)
		}
		return
	}

	rec := h.deps.Store.LoadUserRecord(ctx, chatID, userID)
	rec.MergeSender(msg.From.Username, msg.From.FirstName, msg.From.LastName, msg.From.LanguageCode, msg.From.IsBot)
	rec.MergeChatType(string(msg.Chat.Type))
	rec.FirstSeen = time.Now().UTC()

	if err := h.deps.Store.SaveUserRecord(ctx, rec); err != nil {
		log.ErrorContext(ctx, "Failed to save record on /start", "error", err, "key", rec.Key().String())
	}

	greeting := fmt.Sprintf(h.deps.Config.Bot.Messages.Welcome, rec.DisplayName())
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: greeting}); err != nil {
		log.ErrorContext(ctx, "Failed to send greeting", "error", err, "chat_id", chatID)
	}
}
