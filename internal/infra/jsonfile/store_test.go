package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quiz-session-service/internal/domain"
	"quiz-session-service/internal/infra/memory"
)

func TestOpenSeedsAndPersists(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.json")
	path := filepath.Join(dir, "data", "db.json")

	if err := WriteDocument(seed, memory.Document{
		Users: []domain.User{{ID: "user_1", Role: domain.RoleStudent}},
		Mode:  domain.ModeState{Mode: domain.ModeGame},
	}); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	store, err := Open(path, seed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected data file: %v", err)
	}
	if err := store.CreateCategory(context.Background(), domain.Category{ID: "cat_1", Name: "Go"}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	// A fresh open reads the data file, not the seed.
	reopened, err := Open(path, seed)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	cats, _ := reopened.ListCategories(context.Background())
	if len(cats) != 1 || cats[0].ID != "cat_1" {
		t.Fatalf("expected persisted category, got %+v", cats)
	}
	if _, err := reopened.GetUser(context.Background(), "user_1"); err != nil {
		t.Fatalf("expected seeded user: %v", err)
	}
}

func TestOpenWithoutFilesStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	store, err := Open(path, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mode, _ := store.GetMode(context.Background())
	if mode.Mode != domain.ModeGame {
		t.Fatalf("expected game mode, got %q", mode.Mode)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected only the data file, found %d entries", len(entries))
	}
}
