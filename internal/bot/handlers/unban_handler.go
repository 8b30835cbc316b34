package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewUnbanHandler returns a handler for the admin-only /unban command.
func NewUnbanHandler(deps HandlerDeps) bot.HandlerFunc {
	return unbanHandler{deps}.Handle
}

type unbanHandler struct {
	deps HandlerDeps
}

func (h unbanHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "unban")
	messages := h.deps.Config.Bot.Messages

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	target, ok := commandArgID(msg.Text)
	if !ok {
		sendText(ctx, b, log, chatID, messages.ProvideTarget)
		return
	}

	removed, err := h.deps.Store.Unban(ctx, target)
	if err != nil {
		log.ErrorContext(ctx, "Failed to unban user", "error", err, "target", target)
		sendText(ctx, b, log, chatID, messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Unban command processed", "target", target, "removed", removed, "admin_id", msg.From.ID)

	text := fmt.Sprintf(messages.Unbanned, target)
	if !removed {
		text = fmt.Sprintf(messages.NotInBlacklist, target)
	}
	sendText(ctx, b, log, chatID, text)
}
