package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/tmazur/personabot/internal/ai"
	"github.com/tmazur/personabot/internal/database"
	"github.com/tmazur/personabot/internal/entity"
	"github.com/tmazur/personabot/internal/reply"
)

const (
	photoFetchTimeout  = 10 * time.Second
	sendMessageTimeout = 10 * time.Second
)

type messageHandler struct {
	deps  HandlerDeps
	locks *keyedMutex
}

// NewMessageHandler creates the default handler for ordinary text messages.
// It runs the full conversational pipeline: access gate, record load and
// metadata merge, entity extraction, addressing decision, completion, and
// paced multi-part reply delivery.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	h := &messageHandler{deps: deps, locks: &keyedMutex{}}
	return h.Handle
}

func (h *messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	deps := h.deps
	log := deps.Logger.With("handler", "message")

	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message, empty text, or nil sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	userID := msg.From.ID

	// Access gate comes before any record mutation. Ordinary messages from
	// blacklisted users are dropped in total silence.
	if deps.Store.IsBlacklisted(ctx, userID) {
		log.DebugContext(ctx, "Ignoring message from blacklisted user", "chat_id", chatID, "user_id", userID)
		return
	}

	// Serialize the whole load-extract-save-respond-save pipeline per
	// identity key so concurrent messages from the same user can't lose
	// each other's updates.
	unlock := h.locks.Lock(database.IdentityKey{ChatID: chatID, UserID: userID})
	defer unlock()

	now := time.Now().UTC()
	rec := deps.Store.LoadUserRecord(ctx, chatID, userID)
	rec.Touch(now)
	rec.MergeSender(msg.From.Username, msg.From.FirstName, msg.From.LastName, msg.From.LanguageCode, msg.From.IsBot)
	rec.MergeChatType(string(msg.Chat.Type))

	h.fetchProfilePhoto(ctx, b, rec)

	spans := toSpans(msg.Entities)
	entity.Extract(ctx, log, rec, msg.Text, spans)

	// First terminal point: metadata and entities are persisted whether or
	// not this message warrants a reply.
	h.saveRecord(ctx, rec)

	botInfo := deps.Config.Telegram.BotInfo
	if !shouldReply(msg, botInfo.ID, botInfo.Username, spans) {
		log.DebugContext(ctx, "Message not addressed to bot, skipping reply", "chat_id", chatID)
		return
	}

	cleaned := entity.CleanText(msg.Text, spans, botInfo.Username)
	conversation := ai.BuildConversation(deps.Config.AI.Instruction, rec.Transcript, cleaned, deps.Config.Bot.HistoryLimit)
	rec.AppendTurn(database.RoleUser, cleaned, now)

	_, _ = b.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	replyText, err := deps.AIClient.Complete(ctx, conversation)
	if err != nil {
		// The conversational flow always produces some reply; service
		// failures degrade to a fixed in-character fallback.
		log.ErrorContext(ctx, "Completion failed, using fallback reply", "error", err, "chat_id", chatID)
		replyText = deps.Config.Bot.Messages.Fallback
	}
	rec.AppendTurn(database.RoleAssistant, replyText, time.Now().UTC())

	// Generated replies are segmented for pacing; the fallback is always
	// delivered as a single chunk regardless of its punctuation.
	chunks := []string{replyText}
	if err == nil {
		chunks = reply.Split(replyText)
	}
	h.sendPaced(ctx, b, chatID, chunks)

	// Final terminal point: persist the transcript turns.
	h.saveRecord(ctx, rec)
}

// shouldReply is the addressing decision: reply only in private chats, on an
// exact mention of the bot's handle, or on a direct reply to a bot message.
func shouldReply(msg *models.Message, botID int64, botUsername string, spans []entity.Span) bool {
	if msg.Chat.Type == models.ChatTypePrivate {
		return true
	}
	if entity.IsBotMentioned(msg.Text, spans, botUsername) {
		return true
	}
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == botID {
		return true
	}
	return false
}

// sendPaced sends the reply chunks with the configured typing-cadence delay
// in between.
func (h *messageHandler) sendPaced(ctx context.Context, b *bot.Bot, chatID int64, chunks []string) {
	log := h.deps.Logger.With("handler", "message")
	pacer := reply.Pacer{Delay: h.deps.Config.Bot.ReplyDelay}

	err := pacer.Send(ctx, chunks, func(ctx context.Context, chunk string) error {
		sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
		defer cancel()
		_, err := b.SendMessage(sendCtx, &bot.SendMessageParams{ChatID: chatID, Text: chunk})
		return err
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to deliver paced reply", "error", err, "chat_id", chatID)
	}
}

// fetchProfilePhoto caches the user's profile photo reference the first time
// it is seen. Fetch failures are logged and the field stays null; it is not
// retried on later messages once set.
func (h *messageHandler) fetchProfilePhoto(ctx context.Context, b *bot.Bot, rec *database.UserRecord) {
	if rec.ProfilePhoto.Valid {
		return
	}
	log := h.deps.Logger.With("handler", "message")

	fetchCtx, cancel := context.WithTimeout(ctx, photoFetchTimeout)
	defer cancel()

	photos, err := b.GetUserProfilePhotos(fetchCtx, &bot.GetUserProfilePhotosParams{
		UserID: rec.UserID,
		Limit:  1,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to fetch profile photo", "error", err, "user_id", rec.UserID)
		return
	}
	if photos == nil || photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return
	}

	// The last size of a photo set is the largest.
	sizes := photos.Photos[0]
	rec.SetProfilePhoto(sizes[len(sizes)-1].FileID)
}

// saveRecord persists the record, logging and swallowing failures: a failed
// save must never break message handling.
func (h *messageHandler) saveRecord(ctx context.Context, rec *database.UserRecord) {
	if err := h.deps.Store.SaveUserRecord(ctx, rec); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to save user record",
			"error", err, "key", rec.Key().String())
	}
}

// toSpans converts Telegram message entities to extractor spans.
func toSpans(entities []models.MessageEntity) []entity.Span {
	if len(entities) == 0 {
		return nil
	}
	spans := make([]entity.Span, 0, len(entities))
	for _, e := range entities {
		spans = append(spans, entity.Span{
			Type:   string(e.Type),
			Offset: e.Offset,
			Length: e.Length,
		})
	}
	return spans
}
