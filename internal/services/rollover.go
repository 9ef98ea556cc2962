// Package services provides business logic and orchestration services.
//
// This file implements the monthly rollover. The reset-day decision is a
// strategy (ResetChecker) so the default "exactly on the reset day" rule can
// be swapped for a catch-up rule without touching the archiver.
package services

import (
	"context"
	"errors"
	"fmt"

	"bilancio/internal/budget"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

var (
	// ErrAlreadyArchived is returned when a snapshot for the month already exists.
	ErrAlreadyArchived = errors.New("month already archived")
	// ErrResetDayNotReached is returned by a non-forced Archive before the reset day.
	ErrResetDayNotReached = errors.New("reset day not reached")
)

// ResetChecker is the strategy interface deciding whether today is a reset day.
type ResetChecker interface {
	// IsDue reports whether the rollover should run on today for resetDay.
	IsDue(today core.Date, resetDay int) bool
}

// MonthlyResetChecker fires only on the reset day itself. A reset day past
// the end of a short month fires on that month's last day.
type MonthlyResetChecker struct{}

// IsDue returns true when today's day of month equals the clamped reset day.
func (MonthlyResetChecker) IsDue(today core.Date, resetDay int) bool {
	return today.Day() == today.MonthKey().ClampDay(resetDay)
}

// CatchUpResetChecker fires on any day on or after the reset day, so a month
// whose reset day passed while the application was not running is still
// archived on the next run.
type CatchUpResetChecker struct{}

// IsDue returns true when today's day of month is at least the clamped reset day.
func (CatchUpResetChecker) IsDue(today core.Date, resetDay int) bool {
	return today.Day() >= today.MonthKey().ClampDay(resetDay)
}

// RolloverProcessor decides when a month is archived and builds its snapshot.
type RolloverProcessor struct {
	checker ResetChecker
	logger  *log.Logger
}

// NewRolloverProcessor creates a processor. A nil checker selects MonthlyResetChecker.
func NewRolloverProcessor(checker ResetChecker, logger *log.Logger) *RolloverProcessor {
	if checker == nil {
		checker = MonthlyResetChecker{}
	}
	if logger == nil {
		logger = log.Default(log.ComponentArchiver)
	}
	return &RolloverProcessor{checker: checker, logger: logger}
}

// Due reports whether the month containing today must be archived: the reset
// day is reached and no snapshot exists for that month yet.
func (p *RolloverProcessor) Due(today core.Date, resetDay int, history []core.MonthlyData) (core.MonthKey, bool) {
	month := today.MonthKey()
	if !p.checker.IsDue(today, resetDay) {
		return month, false
	}
	return month, !Archived(history, month)
}

// Archived reports whether history holds a snapshot for month.
func Archived(history []core.MonthlyData, month core.MonthKey) bool {
	for _, h := range history {
		if h.MonthKey == month {
			return true
		}
	}
	return false
}

// BuildSnapshot freezes the month. Every variable expense is copied into the
// snapshot because all of them are cleared; only those dated inside month
// count towards TotalSpent.
func (p *RolloverProcessor) BuildSnapshot(month core.MonthKey, occurrences []core.Occurrence, variable []core.Expense, categories []core.CustomCategory) core.MonthlyData {
	c := budget.NewCalculator(month, occurrences, variable, categories)
	return core.MonthlyData{
		ID:               month.String(),
		MonthKey:         month,
		FixedExpenses:    append([]core.Occurrence{}, occurrences...),
		VariableExpenses: append([]core.Expense{}, variable...),
		TotalSpent:       c.TotalSpent(),
		Budget:           c.TotalBudget(),
	}
}

// checkRolloverLocked archives the current month when it is due. It runs on
// Load and at the start of every command.
func (s *FinanceService) checkRolloverLocked(ctx context.Context) bool {
	month, due := s.rollover.Due(s.today(), s.settings.ResetDay, s.history)
	if !due {
		return false
	}
	s.archiveLocked(ctx, month)
	return true
}

func (s *FinanceService) archiveLocked(ctx context.Context, month core.MonthKey) core.MonthlyData {
	snapshot := s.rollover.BuildSnapshot(month, s.projectLocked(month), s.variable, s.categories)

	s.history = append(s.history, snapshot)
	cleared := len(s.variable)
	s.variable = nil
	s.persistLocked(ctx, KeyMonthlyHistory, KeyVariableExpenses)

	s.rollover.logger.InfoContext(ctx, "Month archived",
		log.FieldMonthKey, month.String(),
		log.FieldOperation, log.OpRollover,
		"fixed_expenses", len(snapshot.FixedExpenses),
		"cleared_variable_expenses", cleared,
		"total_spent_cents", snapshot.TotalSpent.Cents,
		"budget_cents", snapshot.Budget.Cents)
	s.emitArchivedLocked(snapshot)
	return snapshot
}

// CheckRollover runs the rollover check outside of a command and reports
// whether a snapshot was written.
func (s *FinanceService) CheckRollover(ctx context.Context) bool {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	return s.checkRolloverLocked(ctx)
}

// LoadArchived returns the snapshot written by the rollover check in the most
// recent Load, if that check archived a month.
func (s *FinanceService) LoadArchived() (core.MonthlyData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadArchived == nil {
		return core.MonthlyData{}, false
	}
	return *s.loadArchived, true
}

// Archive snapshots the month containing today. Unless force is set the reset
// day must have been reached. A month is never archived twice.
func (s *FinanceService) Archive(ctx context.Context, force bool) (core.MonthlyData, error) {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	today := s.today()
	month := today.MonthKey()
	if Archived(s.history, month) {
		return core.MonthlyData{}, fmt.Errorf("archive %s: %w", month, ErrAlreadyArchived)
	}
	if !force && !s.rollover.checker.IsDue(today, s.settings.ResetDay) {
		return core.MonthlyData{}, fmt.Errorf("archive %s on day %d: %w", month, s.settings.ResetDay, ErrResetDayNotReached)
	}
	return s.archiveLocked(ctx, month), nil
}
