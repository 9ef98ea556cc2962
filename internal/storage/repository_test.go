package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"bilancio/internal/kv"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "bilancio.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepositorySetGet(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	if _, err := repo.Get(ctx, "resetDay"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Set(ctx, "resetDay", []byte("5")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.Set(ctx, "resetDay", []byte("12")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := repo.Get(ctx, "resetDay")
	if err != nil || string(got) != "12" {
		t.Fatalf("unexpected value %q err=%v", got, err)
	}

	if err := repo.Delete(ctx, "resetDay"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "resetDay"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteRepositorySetManyAndKeys(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	err := repo.SetMany(ctx, map[string][]byte{
		"variableExpenses": []byte("[]"),
		"monthlyHistory":   []byte(`[{"id":"2024-03"}]`),
	})
	if err != nil {
		t.Fatalf("SetMany: %v", err)
	}

	keys, err := repo.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "monthlyHistory" || keys[1] != "variableExpenses" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)

	if err := kv.SetJSON(ctx, repo, "isLocked", true); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	repo.Close()

	// Migrations must be re-runnable on an existing database.
	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	var locked bool
	if err := kv.GetJSON(ctx, reopened, "isLocked", &locked); err != nil || !locked {
		t.Fatalf("expected persisted true, got %v err=%v", locked, err)
	}
}
