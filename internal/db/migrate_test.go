package db

import (
	"io"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer src.Close()

	first, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first != 1 {
		t.Errorf("first version: got %d, want 1", first)
	}

	up, _, err := src.ReadUp(first)
	if err != nil {
		t.Fatalf("ReadUp: %v", err)
	}
	defer up.Close()
	body, _ := io.ReadAll(up)
	for _, want := range []string{"CREATE TABLE IF NOT EXISTS users", "lower(username)", "CREATE TABLE IF NOT EXISTS todos"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("up migration missing %q", want)
		}
	}

	down, _, err := src.ReadDown(first)
	if err != nil {
		t.Fatalf("ReadDown: %v", err)
	}
	down.Close()

	next, err := src.Next(first)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	up2, _, err := src.ReadUp(next)
	if err != nil {
		t.Fatalf("ReadUp(%d): %v", next, err)
	}
	defer up2.Close()
	body2, _ := io.ReadAll(up2)
	for _, want := range []string{"username_key", "UNIQUE INDEX", "DROP INDEX IF EXISTS users_username_lower_idx"} {
		if !strings.Contains(string(body2), want) {
			t.Errorf("migration %d missing %q", next, want)
		}
	}
}
