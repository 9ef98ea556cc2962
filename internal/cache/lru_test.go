package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string, int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string, int](size, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a becomes most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("b", 3) // refreshes b

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if removed := c.CleanExpired(); removed != 0 {
		t.Errorf("CleanExpired removed %d, want 0", removed)
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Errorf("b = %d, %v", v, ok)
	}

	clock.t = clock.t.Add(time.Hour)
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired removed %d, want 1", removed)
	}
}

func TestLRUNoTTL(t *testing.T) {
	c, clock := newTestCache(1, 0)
	c.Set("a", 1)
	clock.t = clock.t.Add(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry should not expire without ttl")
	}
}

func TestLRUDeleteAndPurge(t *testing.T) {
	c, _ := newTestCache(5, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("a should be deleted")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Errorf("Size after purge = %d", c.Size())
	}
	c.Set("c", 3)
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Error("cache should be usable after purge")
	}
}

func TestJanitorStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, _ := newTestCache(1, time.Minute)
	j := NewJanitor(nil, c)

	done := make(chan error, 1)
	go func() { done <- j.Run(ctx, time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
