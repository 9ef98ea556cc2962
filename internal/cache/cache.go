// Package cache provides a small generic LRU cache with TTL expiry, used to
// memoize per-month projections between mutations.
package cache

import (
	"context"
	"time"
)

// Cache defines a generic cache interface
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache
	Get(key K) (V, bool)

	// Set stores a value in the cache
	Set(key K, value V)

	// Delete removes a key from the cache
	Delete(key K)

	// Purge removes every entry
	Purge()

	// Size returns the current number of items in the cache
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans registered caches until its context ends.
type Janitor struct {
	caches  []Cleaner
	onClean func(removed int)
}

// NewJanitor creates a janitor for caches. onClean, when not nil, is called
// after every sweep that removed at least one entry.
func NewJanitor(onClean func(removed int), caches ...Cleaner) *Janitor {
	return &Janitor{caches: caches, onClean: onClean}
}

// Run sweeps every interval and returns when ctx is done.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, c := range j.caches {
				total += c.CleanExpired()
			}
			if total > 0 && j.onClean != nil {
				j.onClean(total)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
