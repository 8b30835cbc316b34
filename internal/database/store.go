package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the data access interface for user records and the denylist.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// LoadUserRecord returns the record for the given identity key. It never
	// fails the caller: a missing or unreadable record yields a
	// fully-populated default record.
	LoadUserRecord(ctx context.Context, chatID, userID int64) *UserRecord

	// SaveUserRecord writes the full record atomically: the users row is
	// upserted, entity values are inserted with set semantics, and
	// unpersisted transcript turns are appended.
	SaveUserRecord(ctx context.Context, rec *UserRecord) error

	// ListIdentityKeys enumerates all persisted identity keys.
	ListIdentityKeys(ctx context.Context) ([]IdentityKey, error)

	// IsBlacklisted reports whether the user is denylisted. The denylist is
	// re-read on every call so bans take effect immediately across
	// concurrent handlers.
	IsBlacklisted(ctx context.Context, userID int64) bool

	// Ban adds a user to the denylist. Reports whether the user was newly added.
	Ban(ctx context.Context, userID int64) (bool, error)

	// Unban removes a user from the denylist. Reports whether the user was present.
	Unban(ctx context.Context, userID int64) (bool, error)

	// ListBlacklist returns all denylisted user IDs.
	ListBlacklist(ctx context.Context) ([]int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx over SQLite.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store backed by sqlx. It requires a connected
// sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) LoadUserRecord(ctx context.Context, chatID, userID int64) *UserRecord {
	rec := NewUserRecord(chatID, userID)

	query := `
        SELECT chat_id, user_id, username, first_name, last_name, language_code,
               is_bot, chat_type, profile_photo, first_seen, last_seen,
               message_count, entities_parsed, created_at, updated_at
        FROM users
        WHERE chat_id = ? AND user_id = ?;
    `
	err := s.db.GetContext(ctx, rec, query, chatID, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First contact with this identity, hand back the default record.
		return rec

	case err != nil:
		// Unreadable rows are treated like absent ones: the conversational
		// flow must keep working on a default record.
		s.logger.ErrorContext(ctx, "Failed to load user record, using defaults",
			"chat_id", chatID, "user_id", userID, "error", err)
		return NewUserRecord(chatID, userID)
	}

	s.loadEntities(ctx, rec)
	s.loadTranscript(ctx, rec)
	return rec
}

func (s *sqlxStore) loadEntities(ctx context.Context, rec *UserRecord) {
	var rows []struct {
		Kind  string `db:"kind"`
		Value string `db:"value"`
	}
	query := `
        SELECT kind, value FROM user_entities
        WHERE chat_id = ? AND user_id = ?
        ORDER BY id ASC;
    `
	if err := s.db.SelectContext(ctx, &rows, query, rec.ChatID, rec.UserID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load entity collections",
			"chat_id", rec.ChatID, "user_id", rec.UserID, "error", err)
		return
	}

	for _, row := range rows {
		switch row.Kind {
		case KindLink:
			rec.Links = append(rec.Links, row.Value)
		case KindPhone:
			rec.PhoneNumbers = append(rec.PhoneNumbers, row.Value)
		case KindHashtag:
			rec.Hashtags = append(rec.Hashtags, row.Value)
		case KindMention:
			rec.Mentions = append(rec.Mentions, row.Value)
		default:
			s.logger.WarnContext(ctx, "Unknown entity kind in storage, skipping",
				"kind", row.Kind, "chat_id", rec.ChatID, "user_id", rec.UserID)
		}
	}
}

func (s *sqlxStore) loadTranscript(ctx context.Context, rec *UserRecord) {
	query := `
        SELECT id, chat_id, user_id, role, content, timestamp, created_at
        FROM transcript
        WHERE chat_id = ? AND user_id = ?
        ORDER BY timestamp ASC, id ASC;
    `
	if err := s.db.SelectContext(ctx, &rec.Transcript, query, rec.ChatID, rec.UserID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load transcript",
			"chat_id", rec.ChatID, "user_id", rec.UserID, "error", err)
	}
}

func (s *sqlxStore) SaveUserRecord(ctx context.Context, rec *UserRecord) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil user record")
	}
	if rec.ChatID == 0 || rec.UserID == 0 {
		return fmt.Errorf("record must have a non-zero chat_id and user_id")
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for saving record",
			"chat_id", rec.ChatID, "user_id", rec.UserID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	query := `
        INSERT INTO users (
            chat_id, user_id, username, first_name, last_name, language_code,
            is_bot, chat_type, profile_photo, first_seen, last_seen,
            message_count, entities_parsed, created_at, updated_at
        ) VALUES (
            :chat_id, :user_id, :username, :first_name, :last_name, :language_code,
            :is_bot, :chat_type, :profile_photo, :first_seen, :last_seen,
            :message_count, :entities_parsed, :created_at, :updated_at
        )
        ON CONFLICT (chat_id, user_id) DO UPDATE SET
            username = excluded.username,
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            language_code = excluded.language_code,
            is_bot = excluded.is_bot,
            chat_type = excluded.chat_type,
            profile_photo = excluded.profile_photo,
            first_seen = excluded.first_seen,
            last_seen = excluded.last_seen,
            message_count = excluded.message_count,
            entities_parsed = excluded.entities_parsed,
            updated_at = excluded.updated_at;
    `
	if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user record",
			"chat_id", rec.ChatID, "user_id", rec.UserID, "error", err)
		return fmt.Errorf("failed to save user record (chat %d, user %d): %w", rec.ChatID, rec.UserID, err)
	}

	if err := s.saveEntitiesTx(ctx, tx, rec, now); err != nil {
		return err
	}
	if err := s.saveTranscriptTx(ctx, tx, rec, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit record save transaction",
			"chat_id", rec.ChatID, "user_id", rec.UserID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "User record saved",
		"key", rec.Key().String(), "message_count", rec.MessageCount, "turns", len(rec.Transcript))
	return nil
}

// saveEntitiesTx inserts every collection value with set semantics. Values
// already present are ignored, so re-inserting the whole collection keeps
// first-occurrence insertion order (rowid order).
func (s *sqlxStore) saveEntitiesTx(ctx context.Context, tx *sqlx.Tx, rec *UserRecord, now time.Time) error {
	query := `
        INSERT OR IGNORE INTO user_entities (chat_id, user_id, kind, value, created_at)
        VALUES (?, ?, ?, ?, ?);
    `
	collections := []struct {
		kind   string
		values []string
	}{
		{KindLink, rec.Links},
		{KindPhone, rec.PhoneNumbers},
		{KindHashtag, rec.Hashtags},
		{KindMention, rec.Mentions},
	}

	for _, c := range collections {
		for _, value := range c.values {
			if _, err := tx.ExecContext(ctx, query, rec.ChatID, rec.UserID, c.kind, value, now); err != nil {
				s.logger.ErrorContext(ctx, "Error saving entity value",
					"chat_id", rec.ChatID, "user_id", rec.UserID, "kind", c.kind, "error", err)
				return fmt.Errorf("failed to save %s entity: %w", c.kind, err)
			}
		}
	}
	return nil
}

// saveTranscriptTx appends turns that have not been persisted yet (ID == 0).
// Stored turns are never rewritten, the transcript is append-only.
func (s *sqlxStore) saveTranscriptTx(ctx context.Context, tx *sqlx.Tx, rec *UserRecord, now time.Time) error {
	query := `
        INSERT INTO transcript (chat_id, user_id, role, content, timestamp, created_at)
        VALUES (:chat_id, :user_id, :role, :content, :timestamp, :created_at);
    `
	for i := range rec.Transcript {
		turn := &rec.Transcript[i]
		if turn.ID != 0 {
			continue
		}
		turn.CreatedAt = now

		result, err := tx.NamedExecContext(ctx, query, turn)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error saving transcript turn",
				"chat_id", rec.ChatID, "user_id", rec.UserID, "role", turn.Role, "error", err)
			return fmt.Errorf("failed to save transcript turn: %w", err)
		}

		if id, err := result.LastInsertId(); err == nil {
			//nolint:gosec // integer overflow conversion is acceptable here
			turn.ID = uint(id)
		} else {
			s.logger.WarnContext(ctx, "Could not retrieve last insert ID for transcript turn",
				"chat_id", rec.ChatID, "user_id", rec.UserID, "error", err)
		}
	}
	return nil
}

func (s *sqlxStore) ListIdentityKeys(ctx context.Context) ([]IdentityKey, error) {
	var keys []IdentityKey
	query := `SELECT chat_id, user_id FROM users ORDER BY chat_id, user_id;`

	if err := s.db.SelectContext(ctx, &keys, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing identity keys", "error", err)
		return nil, fmt.Errorf("failed to list identity keys: %w", err)
	}
	return keys, nil
}

func (s *sqlxStore) IsBlacklisted(ctx context.Context, userID int64) bool {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM blacklist WHERE user_id = ?);`

	if err := s.db.GetContext(ctx, &exists, query, userID); err != nil {
		// Deny-by-default would lock out everyone on a read failure, so a
		// broken denylist read falls back to "not blacklisted".
		s.logger.ErrorContext(ctx, "Error checking blacklist, treating as not blacklisted",
			"user_id", userID, "error", err)
		return false
	}
	return exists
}

func (s *sqlxStore) Ban(ctx context.Context, userID int64) (bool, error) {
	query := `INSERT OR IGNORE INTO blacklist (user_id, created_at) VALUES (?, ?);`

	result, err := s.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding user to blacklist", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to blacklist user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for ban", "user_id", userID, "error", err)
		return true, nil
	}
	return affected > 0, nil
}

func (s *sqlxStore) Unban(ctx context.Context, userID int64) (bool, error) {
	query := `DELETE FROM blacklist WHERE user_id = ?;`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error removing user from blacklist", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to unban user %d: %w", userID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for unban", "user_id", userID, "error", err)
		return true, nil
	}
	return affected > 0, nil
}

func (s *sqlxStore) ListBlacklist(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `SELECT user_id FROM blacklist ORDER BY created_at ASC, user_id ASC;`

	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		s.logger.ErrorContext(ctx, "Error listing blacklist", "error", err)
		return nil, fmt.Errorf("failed to list blacklist: %w", err)
	}
	return ids, nil
}

// RunSQLMaintenance executes a VACUUM on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}
