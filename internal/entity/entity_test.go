package entity_test

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/tmazur/personabot/internal/database"
	"github.com/tmazur/personabot/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtract_Classification(t *testing.T) {
	t.Parallel()

	text := "check https://example.com or call +5511999998888 #GoLang @SomeUser"
	spans := []entity.Span{
		{Type: entity.TypeURL, Offset: 6, Length: 19},
		{Type: entity.TypePhone, Offset: 34, Length: 14},
		{Type: entity.TypeHashtag, Offset: 49, Length: 7},
		{Type: entity.TypeMention, Offset: 57, Length: 9},
	}

	rec := database.NewUserRecord(1, 2)
	entity.Extract(context.Background(), discardLogger(), rec, text, spans)

	if got, want := rec.Links, []string{"https://example.com"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Links = %v, want %v", got, want)
	}
	if got, want := rec.PhoneNumbers, []string{"+5511999998888"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PhoneNumbers = %v, want %v", got, want)
	}
	if got, want := rec.Hashtags, []string{"golang"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Hashtags = %v, want %v", got, want)
	}
	if got, want := rec.Mentions, []string{"someuser"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Mentions = %v, want %v", got, want)
	}
	if rec.EntitiesParsed != 4 {
		t.Errorf("EntitiesParsed = %d, want 4", rec.EntitiesParsed)
	}
}

func TestExtract_CounterAdvancesOnDuplicates(t *testing.T) {
	t.Parallel()

	text := "#go #GO #Go"
	spans := []entity.Span{
		{Type: entity.TypeHashtag, Offset: 0, Length: 3},
		{Type: entity.TypeHashtag, Offset: 4, Length: 3},
		{Type: entity.TypeHashtag, Offset: 8, Length: 3},
	}

	rec := database.NewUserRecord(1, 2)
	entity.Extract(context.Background(), discardLogger(), rec, text, spans)

	if got, want := rec.Hashtags, []string{"go"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Hashtags = %v, want %v", got, want)
	}
	if rec.EntitiesParsed != 3 {
		t.Errorf("EntitiesParsed = %d, want 3", rec.EntitiesParsed)
	}
}

func TestExtract_PreservesFirstSeenOrder(t *testing.T) {
	t.Parallel()

	text := "#beta #alpha #beta"
	spans := []entity.Span{
		{Type: entity.TypeHashtag, Offset: 0, Length: 5},
		{Type: entity.TypeHashtag, Offset: 6, Length: 6},
		{Type: entity.TypeHashtag, Offset: 13, Length: 5},
	}

	rec := database.NewUserRecord(1, 2)
	entity.Extract(context.Background(), discardLogger(), rec, text, spans)

	if got, want := rec.Hashtags, []string{"beta", "alpha"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Hashtags = %v, want %v", got, want)
	}
}

func TestExtract_MalformedSpanSkipped(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		span entity.Span
	}{
		{name: "Negative offset", span: entity.Span{Type: entity.TypeURL, Offset: -1, Length: 3}},
		{name: "Zero length", span: entity.Span{Type: entity.TypeURL, Offset: 0, Length: 0}},
		{name: "Past end of text", span: entity.Span{Type: entity.TypeURL, Offset: 2, Length: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := database.NewUserRecord(1, 2)
			spans := []entity.Span{
				tt.span,
				{Type: entity.TypeHashtag, Offset: 0, Length: 3},
			}
			entity.Extract(context.Background(), discardLogger(), rec, "#ok more text", spans)

			if got, want := rec.Hashtags, []string{"ok"}; !reflect.DeepEqual(got, want) {
				t.Errorf("Hashtags = %v, want %v", got, want)
			}
			if len(rec.Links) != 0 {
				t.Errorf("Links = %v, want none", rec.Links)
			}
			if rec.EntitiesParsed != 2 {
				t.Errorf("EntitiesParsed = %d, want 2", rec.EntitiesParsed)
			}
		})
	}
}

func TestIsBotMentioned(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		text        string
		spans       []entity.Span
		botUsername string
		expected    bool
	}{
		{
			name:        "Exact mention",
			text:        "@mybot hello",
			spans:       []entity.Span{{Type: entity.TypeMention, Offset: 0, Length: 6}},
			botUsername: "mybot",
			expected:    true,
		},
		{
			name:        "Case-insensitive mention",
			text:        "@MyBot hello",
			spans:       []entity.Span{{Type: entity.TypeMention, Offset: 0, Length: 6}},
			botUsername: "mybot",
			expected:    true,
		},
		{
			name:        "Mention of someone else",
			text:        "@other hello",
			spans:       []entity.Span{{Type: entity.TypeMention, Offset: 0, Length: 6}},
			botUsername: "mybot",
			expected:    false,
		},
		{
			name:        "Prefix of another handle",
			text:        "@mybotfan hello",
			spans:       []entity.Span{{Type: entity.TypeMention, Offset: 0, Length: 9}},
			botUsername: "mybot",
			expected:    false,
		},
		{
			name:        "Handle in text without a mention span",
			text:        "@mybot hello",
			spans:       nil,
			botUsername: "mybot",
			expected:    false,
		},
		{
			name:        "Empty bot username",
			text:        "@mybot hello",
			spans:       []entity.Span{{Type: entity.TypeMention, Offset: 0, Length: 6}},
			botUsername: "",
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := entity.IsBotMentioned(tt.text, tt.spans, tt.botUsername)
			if got != tt.expected {
				t.Errorf("IsBotMentioned() = %t, want %t", got, tt.expected)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		text        string
		spans       []entity.Span
		botUsername string
		expected    string
	}{
		{
			name:        "Leading mention removed",
			text:        "@mybot hello there",
			spans:       []entity.Span{{Type: entity.TypeMention, Offset: 0, Length: 6}},
			botUsername: "mybot",
			expected:    "hello there",
		},
		{
			name:        "Mention in the middle",
			text:        "hey @mybot what's up",
			spans:       []entity.Span{{Type: entity.TypeMention, Offset: 4, Length: 6}},
			botUsername: "mybot",
			expected:    "hey  what's up",
		},
		{
			name:  "Multiple mentions removed in one pass",
			text:  "@mybot hi @mybot",
			spans: []entity.Span{
				{Type: entity.TypeMention, Offset: 0, Length: 6},
				{Type: entity.TypeMention, Offset: 10, Length: 6},
			},
			botUsername: "mybot",
			expected:    "hi",
		},
		{
			name:        "Other mentions kept",
			text:        "@mybot ask @other",
			spans:       []entity.Span{{Type: entity.TypeMention, Offset: 0, Length: 6}, {Type: entity.TypeMention, Offset: 11, Length: 6}},
			botUsername: "mybot",
			expected:    "ask @other",
		},
		{
			name:        "No spans trims whitespace",
			text:        "  plain text  ",
			spans:       nil,
			botUsername: "mybot",
			expected:    "plain text",
		},
		{
			name:        "Non-mention spans ignored",
			text:        "#tag @mybot done",
			spans:       []entity.Span{{Type: entity.TypeHashtag, Offset: 0, Length: 4}, {Type: entity.TypeMention, Offset: 5, Length: 6}},
			botUsername: "mybot",
			expected:    "#tag  done",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := entity.CleanText(tt.text, tt.spans, tt.botUsername)
			if got != tt.expected {
				t.Errorf("CleanText() = %q, want %q", got, tt.expected)
			}
		})
	}
}
