// Package entity extracts structured entities from annotated message text
// and prepares message text for storage and prompting.
package entity

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/tmazur/personabot/internal/database"
)

// Span types as reported by the Telegram transport.
const (
	TypeURL     = "url"
	TypePhone   = "phone_number"
	TypeHashtag = "hashtag"
	TypeMention = "mention"
)

// Span is an annotated region of message text: a category plus a byte
// offset and length into the text.
type Span struct {
	Type   string
	Offset int
	Length int
}

// slice returns the substring a span covers, or false when the span's
// offsets don't fit the text.
func (s Span) slice(text string) (string, bool) {
	if s.Offset < 0 || s.Length <= 0 || s.Offset+s.Length > len(text) {
		return "", false
	}
	return text[s.Offset : s.Offset+s.Length], true
}

// Extract classifies every span, normalizes the covered substring, and
// inserts it into the matching record collection with set semantics.
// The record's entity counter advances by the number of spans processed
// regardless of deduplication. A malformed span is logged and skipped
// without aborting the remaining spans.
func Extract(ctx context.Context, log *slog.Logger, rec *database.UserRecord, text string, spans []Span) {
	if len(spans) == 0 {
		return
	}
	rec.EntitiesParsed += int64(len(spans))

	for _, span := range spans {
		value, ok := span.slice(text)
		if !ok {
			log.WarnContext(ctx, "Entity span out of range, skipping",
				"type", span.Type, "offset", span.Offset, "length", span.Length, "text_len", len(text))
			continue
		}

		switch span.Type {
		case TypeURL:
			rec.AddLink(value)
		case TypePhone:
			rec.AddPhoneNumber(value)
		case TypeHashtag:
			rec.AddHashtag(value)
		case TypeMention:
			rec.AddMention(value)
		}
	}
}

// IsBotMentioned reports whether any span is exactly a mention of the
// bot's own handle, compared case-insensitively.
func IsBotMentioned(text string, spans []Span, botUsername string) bool {
	if botUsername == "" {
		return false
	}
	handle := "@" + botUsername

	for _, span := range spans {
		if span.Type != TypeMention {
			continue
		}
		if value, ok := span.slice(text); ok && strings.EqualFold(value, handle) {
			return true
		}
	}
	return false
}

// CleanText removes the mention spans equal to the bot's own handle and
// trims surrounding whitespace. Spans are removed in reverse offset order
// so earlier removals don't invalidate later offsets. The result is what
// gets stored in the transcript and shown to the model; it never contains
// the bot's handle.
func CleanText(text string, spans []Span, botUsername string) string {
	if botUsername == "" || len(spans) == 0 {
		return strings.TrimSpace(text)
	}
	handle := "@" + botUsername

	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Offset > ordered[j].Offset
	})

	for _, span := range ordered {
		if span.Type != TypeMention {
			continue
		}
		value, ok := span.slice(text)
		if !ok || !strings.EqualFold(value, handle) {
			continue
		}
		text = text[:span.Offset] + text[span.Offset+span.Length:]
	}
	return strings.TrimSpace(text)
}
