package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"bilancio/internal/log"
)

type countingChecker struct {
	calls atomic.Int32
	due   bool
}

func (c *countingChecker) CheckRollover(context.Context) bool {
	c.calls.Add(1)
	return c.due
}

func TestRolloverWorker_ChecksImmediately(t *testing.T) {
	checker := &countingChecker{due: true}
	w := NewRolloverWorker(checker, time.Hour, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for checker.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("worker never checked")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRolloverWorker_Ticks(t *testing.T) {
	checker := &countingChecker{}
	w := NewRolloverWorker(checker, 5*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for checker.calls.Load() < 3 {
		if ctx.Err() != nil {
			t.Fatalf("only %d checks before timeout", checker.calls.Load())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}
