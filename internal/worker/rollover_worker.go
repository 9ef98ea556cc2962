// Package worker runs the background loops of the server process.
package worker

import (
	"context"
	"time"

	"bilancio/internal/log"
)

// RolloverChecker archives the current month when its reset day has come.
// *services.FinanceService implements it.
type RolloverChecker interface {
	CheckRollover(ctx context.Context) bool
}

// RolloverWorker runs the rollover check periodically so a long-running
// server archives the month even when nobody issues a command on the reset day.
type RolloverWorker struct {
	checker  RolloverChecker
	interval time.Duration
	logger   *log.Logger
}

// NewRolloverWorker creates a worker checking every interval.
func NewRolloverWorker(checker RolloverChecker, interval time.Duration, logger *log.Logger) *RolloverWorker {
	if logger == nil {
		logger = log.Default(log.ComponentArchiver)
	}
	return &RolloverWorker{checker: checker, interval: interval, logger: logger}
}

// Run checks once immediately, then every interval until ctx is done.
func (w *RolloverWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Rollover worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if w.checker.CheckRollover(ctx) {
			w.logger.InfoContext(ctx, "Rollover worker archived month", log.FieldOperation, log.OpRollover)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Rollover worker stopped")
			return nil
		}
	}
}
