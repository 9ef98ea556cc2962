package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bilancio/internal/kv"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	value := []byte(`[1,2,3]`)
	if err := s.Set(ctx, "numbers", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	// stored bytes must not alias the caller's slice
	value[1] = '9'

	got, err := s.Get(ctx, "numbers")
	if err != nil || string(got) != `[1,2,3]` {
		t.Fatalf("unexpected get: %q err=%v", got, err)
	}

	if err := s.Delete(ctx, "numbers"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "numbers"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStoreKeysSorted(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, k := range []string{"resetDay", "fixedExpenses", "isLocked"} {
		if err := s.Set(ctx, k, []byte("1")); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, _ := s.Keys(ctx)
	want := []string{"fixedExpenses", "isLocked", "resetDay"}
	if len(keys) != len(want) {
		t.Fatalf("unexpected keys: %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("unexpected keys: %v", keys)
		}
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Missing directory -> empty store
	s := NewFromFiles(filepath.Join(dir, "nope"))
	if keys, _ := s.Keys(ctx); len(keys) != 0 {
		t.Fatalf("expected empty store, got %v", keys)
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("resetDay.json", "15")
	mustWrite("customCategories.json", `[{"id":"food","name":"Food","budget":200}]`)
	mustWrite("broken.json", "{not json")
	mustWrite("notes.txt", "ignored")

	s = NewFromFiles(dir)
	keys, _ := s.Keys(ctx)
	if len(keys) != 2 || keys[0] != "customCategories" || keys[1] != "resetDay" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	var day int
	if err := kv.GetJSON(ctx, s, "resetDay", &day); err != nil || day != 15 {
		t.Fatalf("unexpected resetDay: %d err=%v", day, err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := New()

	type item struct {
		ID string `json:"id"`
	}
	if err := kv.SetJSON(ctx, s, "items", []item{{ID: "a"}}); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	var got []item
	if err := kv.GetJSON(ctx, s, "items", &got); err != nil || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("GetJSON: %v %v", got, err)
	}

	if err := s.Set(ctx, "bad", []byte("{")); err != nil {
		t.Fatal(err)
	}
	if err := kv.GetJSON(ctx, s, "bad", &got); err == nil || errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
