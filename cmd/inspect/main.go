// Package main contains a read-only viewer for persisted user records.
// It enumerates identity keys or dumps a single record with its profile
// fields, counters, entity collections, and full transcript.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/tmazur/personabot/internal/database"

	_ "modernc.org/sqlite" //revive:disable:blank-imports
)

func main() {
	dbPath := flag.String("db", "storage.db", "Path to the SQLite database")
	key := flag.String("key", "", "Identity key to dump (chatID_userID); empty lists all keys")
	flag.Parse()

	if err := run(context.Background(), *dbPath, *key); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath, key string) error {
	// The viewer must never mutate state: refuse absent paths (the driver
	// would otherwise create an empty database file), skip migrations, and
	// open the file read-only.
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("cannot access database %q: %w", dbPath, err)
	}
	db, err := sqlx.Connect("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open database %q: %w", dbPath, err)
	}
	defer db.Close()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, quiet)

	if key == "" {
		return listKeys(ctx, store)
	}

	chatID, userID, err := parseKey(key)
	if err != nil {
		return err
	}

	dumpRecord(os.Stdout, store.LoadUserRecord(ctx, chatID, userID))
	return nil
}

func listKeys(ctx context.Context, store database.Store) error {
	keys, err := store.ListIdentityKeys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Println(k.String())
	}
	return nil
}

// parseKey splits a "chatID_userID" key on its last underscore, so negative
// chat IDs (group chats) parse correctly.
func parseKey(key string) (int64, int64, error) {
	idx := strings.LastIndex(key, "_")
	if idx <= 0 || idx == len(key)-1 {
		return 0, 0, fmt.Errorf("invalid identity key %q, expected chatID_userID", key)
	}

	chatID, err := strconv.ParseInt(key[:idx], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid chat ID in key %q: %w", key, err)
	}
	userID, err := strconv.ParseInt(key[idx+1:], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid user ID in key %q: %w", key, err)
	}
	return chatID, userID, nil
}

func dumpRecord(w io.Writer, rec *database.UserRecord) {
	fmt.Fprintf(w, "Record %s\n", rec.Key().String())
	fmt.Fprintf(w, "  Username:      %s\n", nullString(rec.Username))
	fmt.Fprintf(w, "  Name:          %s %s\n", nullString(rec.FirstName), nullString(rec.LastName))
	fmt.Fprintf(w, "  Language:      %s\n", nullString(rec.LanguageCode))
	fmt.Fprintf(w, "  Bot:           %t\n", rec.IsBot)
	fmt.Fprintf(w, "  Chat type:     %s\n", nullString(rec.ChatType))
	fmt.Fprintf(w, "  Profile photo: %s\n", nullString(rec.ProfilePhoto))
	fmt.Fprintf(w, "  First seen:    %s\n", rec.FirstSeen.Format("2006-01-02 15:04:05"))
	if rec.LastSeen.Valid {
		fmt.Fprintf(w, "  Last seen:     %s\n", rec.LastSeen.Time.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(w, "  Last seen:     -\n")
	}
	fmt.Fprintf(w, "  Messages:      %d\n", rec.MessageCount)
	fmt.Fprintf(w, "  Entity spans:  %d\n", rec.EntitiesParsed)

	printCollection(w, "Links", rec.Links)
	printCollection(w, "Phone numbers", rec.PhoneNumbers)
	printCollection(w, "Hashtags", rec.Hashtags)
	printCollection(w, "Mentions", rec.Mentions)

	fmt.Fprintf(w, "  Transcript (%d turns):\n", len(rec.Transcript))
	for _, turn := range rec.Transcript {
		fmt.Fprintf(w, "    [%s] %s: %s\n", turn.Timestamp.Format("2006-01-02 15:04:05"), turn.Role, turn.Content)
	}
}

func printCollection(w io.Writer, name string, values []string) {
	fmt.Fprintf(w, "  %s (%d):\n", name, len(values))
	for _, v := range values {
		fmt.Fprintf(w, "    %s\n", v)
	}
}

func nullString(s sql.NullString) string {
	if !s.Valid || s.String == "" {
		return "-"
	}
	return s.String
}
