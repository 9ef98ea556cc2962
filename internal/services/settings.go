package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
)

// Direction is a month navigation step.
type Direction string

const (
	DirectionPrev Direction = "prev"
	DirectionNext Direction = "next"
)

// ParseDirection accepts prev|next in any case.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionPrev, DirectionNext:
		return d, nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be prev or next", s)
	}
}

// Settings returns the current settings.
func (s *FinanceService) Settings() core.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return s.settings
}

// SetResetDay changes the day of month on which the rollover runs. It stays
// allowed while the store is locked.
func (s *FinanceService) SetResetDay(ctx context.Context, day int) error {
	if err := core.ValidateResetDay(day); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	s.settings.ResetDay = day
	s.persistLocked(ctx, KeyResetDay)
	s.logger.InfoContext(ctx, "Reset day updated", "reset_day", day, log.FieldOperation, log.OpSettings)

	// The new day may be today.
	s.checkRolloverLocked(ctx)
	return nil
}

// ToggleLock flips locked mode and returns the new value.
func (s *FinanceService) ToggleLock(ctx context.Context) bool {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	s.settings.IsLocked = !s.settings.IsLocked
	s.persistLocked(ctx, KeyIsLocked)
	s.logger.InfoContext(ctx, "Lock mode toggled", "is_locked", s.settings.IsLocked, log.FieldOperation, log.OpSettings)
	return s.settings.IsLocked
}

// ToggleSync flips the sync preference and returns the new value. The flag
// is persisted only; nothing is synchronised.
func (s *FinanceService) ToggleSync(ctx context.Context) bool {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	s.settings.SyncWithFirebase = !s.settings.SyncWithFirebase
	s.persistLocked(ctx, KeySyncWithFirebase)
	s.logger.InfoContext(ctx, "Sync preference toggled", "sync", s.settings.SyncWithFirebase, log.FieldOperation, log.OpSettings)
	return s.settings.SyncWithFirebase
}

// CurrentMonth is the month being viewed. It starts at the clock's month and
// is not persisted.
func (s *FinanceService) CurrentMonth() core.MonthKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return s.currentMonth
}

// SetCurrentMonth jumps to month.
func (s *FinanceService) SetCurrentMonth(ctx context.Context, month core.MonthKey) error {
	if month.IsZero() {
		return core.ErrInvalidMonthKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustLoaded()

	s.currentMonth = month
	s.logger.DebugContext(ctx, "Viewed month changed", log.FieldMonthKey, month.String(), log.FieldOperation, log.OpNavigate)
	return nil
}

// NavigateMonth moves the viewed month one step and returns the new month.
func (s *FinanceService) NavigateMonth(ctx context.Context, dir Direction) (core.MonthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustLoaded()

	switch dir {
	case DirectionPrev:
		s.currentMonth = s.currentMonth.Prev()
	case DirectionNext:
		s.currentMonth = s.currentMonth.Next()
	default:
		return s.currentMonth, fmt.Errorf("invalid direction %q: must be prev or next", dir)
	}
	s.logger.DebugContext(ctx, "Viewed month changed", log.FieldMonthKey, s.currentMonth.String(), log.FieldOperation, log.OpNavigate)
	return s.currentMonth, nil
}

// Reset deletes every persisted key and returns the service to the state of
// a first Load over an empty store. It is refused while locked. Store
// failures are returned; the in-memory state is reset regardless.
func (s *FinanceService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	if err := s.guardLocked(ctx, log.OpReset); err != nil {
		return err
	}

	var result *multierror.Error
	keys, err := s.store.Keys(ctx)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("list keys: %w", err))
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			result = multierror.Append(result, fmt.Errorf("delete %s: %w", key, err))
		}
	}

	s.fixed = nil
	s.variable = nil
	s.categories = nil
	s.methods = nil
	s.ledger = ledger.New()
	s.history = nil
	s.settings = s.defaults
	s.currentMonth = core.MonthKeyOf(s.now())
	s.loadArchived = nil
	s.invalidateLocked()

	if s.seed {
		s.categories = defaultCategories(s.newID)
		s.methods = defaultPaymentMethods(s.newID)
		s.persistLocked(ctx, KeyCustomCategories, KeyCustomPaymentMethods)
	}

	if err := result.ErrorOrNil(); err != nil {
		s.logger.LogError(ctx, "Reset left persisted keys behind", err, log.OpReset, nil)
		return err
	}
	s.logger.InfoContext(ctx, "State reset", "deleted_keys", len(keys), log.FieldOperation, log.OpReset)
	return nil
}
