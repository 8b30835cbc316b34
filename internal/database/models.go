package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Transcript turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entity collection kinds, matching the Telegram entity types they come from.
const (
	KindLink    = "link"
	KindPhone   = "phone_number"
	KindHashtag = "hashtag"
	KindMention = "mention"
)

// IdentityKey addresses one persisted record: a (chat, user) pair.
// Two chats never share a record even for the same user.
type IdentityKey struct {
	ChatID int64 `db:"chat_id"`
	UserID int64 `db:"user_id"`
}

// String returns the deterministic storage key for this identity.
func (k IdentityKey) String() string {
	return fmt.Sprintf("%d_%d", k.ChatID, k.UserID)
}

// UserRecord is the durable per-(chat,user) record: identity metadata,
// extracted entity collections, conversation transcript, and counters.
type UserRecord struct {
	ChatID int64 `db:"chat_id"`
	UserID int64 `db:"user_id"`

	Username     sql.NullString `db:"username"`
	FirstName    sql.NullString `db:"first_name"`
	LastName     sql.NullString `db:"last_name"`
	LanguageCode sql.NullString `db:"language_code"`
	IsBot        bool           `db:"is_bot"`
	ChatType     sql.NullString `db:"chat_type"`

	// ProfilePhoto holds a cached Telegram file ID, fetched once and
	// never re-fetched once set.
	ProfilePhoto sql.NullString `db:"profile_photo"`

	FirstSeen time.Time    `db:"first_seen"`
	LastSeen  sql.NullTime `db:"last_seen"`

	MessageCount   int64 `db:"message_count"`
	EntitiesParsed int64 `db:"entities_parsed"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Links        []string `db:"-"`
	PhoneNumbers []string `db:"-"`
	Hashtags     []string `db:"-"`
	Mentions     []string `db:"-"`

	Transcript []TranscriptTurn `db:"-"`
}

// TranscriptTurn is a single conversation turn, spoken either by the user
// or by the bot.
type TranscriptTurn struct {
	ID        uint      `db:"id"`
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
	CreatedAt time.Time `db:"created_at"`
}

// NewUserRecord returns a fully-populated default record for the given
// identity key. Every field has a usable zero value so callers never have
// to branch on absence.
func NewUserRecord(chatID, userID int64) *UserRecord {
	now := time.Now().UTC()
	return &UserRecord{
		ChatID:    chatID,
		UserID:    userID,
		FirstSeen: now,
	}
}

// Key returns the identity key of this record.
func (r *UserRecord) Key() IdentityKey {
	return IdentityKey{ChatID: r.ChatID, UserID: r.UserID}
}

// MergeSender overwrites identity fields with fresher values from the
// transport, keeping existing values where the incoming ones are empty.
func (r *UserRecord) MergeSender(username, firstName, lastName, languageCode string, isBot bool) {
	mergeString(&r.Username, username)
	mergeString(&r.FirstName, firstName)
	mergeString(&r.LastName, lastName)
	mergeString(&r.LanguageCode, languageCode)
	r.IsBot = isBot
}

// MergeChatType records the container type (private, group, ...) when known.
func (r *UserRecord) MergeChatType(chatType string) {
	mergeString(&r.ChatType, chatType)
}

// SetProfilePhoto caches the profile photo reference. It is a no-op once a
// reference is present.
func (r *UserRecord) SetProfilePhoto(fileID string) {
	if r.ProfilePhoto.Valid || fileID == "" {
		return
	}
	r.ProfilePhoto = sql.NullString{String: fileID, Valid: true}
}

// Touch marks an inbound message: bumps the message counter and refreshes
// the last-seen timestamp.
func (r *UserRecord) Touch(now time.Time) {
	r.LastSeen = sql.NullTime{Time: now.UTC(), Valid: true}
	r.MessageCount++
}

// DisplayName returns the best available name for addressing the user.
func (r *UserRecord) DisplayName() string {
	switch {
	case r.FirstName.Valid && r.FirstName.String != "":
		return r.FirstName.String
	case r.Username.Valid && r.Username.String != "":
		return r.Username.String
	default:
		return "there"
	}
}

// AddLink inserts a link into the record if not already present.
// Links are compared literally. Reports whether the value was added.
func (r *UserRecord) AddLink(value string) bool {
	return appendUnique(&r.Links, value)
}

// AddPhoneNumber inserts a phone number, compared literally.
func (r *UserRecord) AddPhoneNumber(value string) bool {
	return appendUnique(&r.PhoneNumbers, value)
}

// AddHashtag inserts a hashtag. The value is stored sigil-stripped and
// lower-cased, so comparison is case-insensitive.
func (r *UserRecord) AddHashtag(value string) bool {
	return appendUnique(&r.Hashtags, strings.ToLower(strings.TrimPrefix(value, "#")))
}

// AddMention inserts a mention, sigil-stripped and lower-cased.
func (r *UserRecord) AddMention(value string) bool {
	return appendUnique(&r.Mentions, strings.ToLower(strings.TrimPrefix(value, "@")))
}

// AppendTurn appends a conversation turn to the in-memory transcript.
// The turn is persisted on the next SaveUserRecord.
func (r *UserRecord) AppendTurn(role, content string, timestamp time.Time) {
	r.Transcript = append(r.Transcript, TranscriptTurn{
		ChatID:    r.ChatID,
		UserID:    r.UserID,
		Role:      role,
		Content:   content,
		Timestamp: timestamp.UTC(),
	})
}

func mergeString(dst *sql.NullString, value string) {
	if value == "" {
		return
	}
	*dst = sql.NullString{String: value, Valid: true}
}

func appendUnique(values *[]string, value string) bool {
	if value == "" {
		return false
	}
	for _, v := range *values {
		if v == value {
			return false
		}
	}
	*values = append(*values, value)
	return true
}
