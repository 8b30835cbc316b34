package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRun_MissingDatabaseIsNotCreated(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.db")

	if err := run(context.Background(), path, ""); err == nil {
		t.Fatal("run() should fail when the database file does not exist")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("viewer must not create the database file, stat error = %v", err)
	}
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		key    string
		chatID int64
		userID int64
		ok     bool
	}{
		{name: "Private chat key", key: "100_200", chatID: 100, userID: 200, ok: true},
		{name: "Group chat key", key: "-1001234_42", chatID: -1001234, userID: 42, ok: true},
		{name: "No separator", key: "100200", ok: false},
		{name: "Missing chat ID", key: "_200", ok: false},
		{name: "Missing user ID", key: "100_", ok: false},
		{name: "Non-numeric parts", key: "abc_def", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chatID, userID, err := parseKey(tt.key)
			if tt.ok != (err == nil) {
				t.Fatalf("parseKey(%q) error = %v, want ok = %t", tt.key, err, tt.ok)
			}
			if tt.ok && (chatID != tt.chatID || userID != tt.userID) {
				t.Errorf("parseKey(%q) = (%d, %d), want (%d, %d)", tt.key, chatID, userID, tt.chatID, tt.userID)
			}
		})
	}
}
