package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewBanHandler returns a handler for the admin-only /ban command. The
// target is taken from the command argument or from the replied-to message.
func NewBanHandler(deps HandlerDeps) bot.HandlerFunc {
	return banHandler{deps}.Handle
}

type banHandler struct {
	deps HandlerDeps
}

func (h banHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "ban")
	messages := h.deps.Config.Bot.Messages

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	target, ok := banTarget(msg)
	if !ok {
		sendText(ctx, b, log, chatID, messages.ProvideTarget)
		return
	}

	added, err := h.deps.Store.Ban(ctx, target)
	if err != nil {
		log.ErrorContext(ctx, "Failed to ban user", "error", err, "target", target)
		sendText(ctx, b, log, chatID, messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Ban command processed", "target", target, "added", added, "admin_id", msg.From.ID)

	text := fmt.Sprintf(messages.Banned, target)
	if !added {
		text = fmt.Sprintf(messages.AlreadyBanned, target)
	}
	sendText(ctx, b, log, chatID, text)
}

// banTarget resolves the ban target from a replied-to message or from the
// first command argument.
func banTarget(msg *models.Message) (int64, bool) {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		return msg.ReplyToMessage.From.ID, true
	}
	return commandArgID(msg.Text)
}

// commandArgID parses the first argument of a command as a user ID.
func commandArgID(text string) (int64, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, false
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
