package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewBlacklistHandler returns a handler for the admin-only /blacklist
// command, which lists all denylisted user IDs.
func NewBlacklistHandler(deps HandlerDeps) bot.HandlerFunc {
	return blacklistHandler{deps}.Handle
}

type blacklistHandler struct {
	deps HandlerDeps
}

func (h blacklistHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "blacklist")
	messages := h.deps.Config.Bot.Messages

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	ids, err := h.deps.Store.ListBlacklist(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list blacklist", "error", err)
		sendText(ctx, b, log, chatID, messages.GeneralError)
		return
	}

	if len(ids) == 0 {
		sendText(ctx, b, log, chatID, messages.BlacklistEmpty)
		return
	}

	var sb strings.Builder
	sb.WriteString(messages.BlacklistHeader)
	for _, id := range ids {
		sb.WriteString("\n")
		sb.WriteString(strconv.FormatInt(id, 10))
	}
	sendText(ctx, b, log, chatID, sb.String())
}

// sendText sends a plain message to a chat and logs delivery failures.
func sendText(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
