package services

import (
	"context"
	"fmt"
	"slices"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
)

// AddFixed stores a new fixed expense with a generated id and returns it.
func (s *FinanceService) AddFixed(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.IsFixed = true
	return s.add(ctx, e)
}

// AddVariable stores a new variable expense with a generated id and returns it.
func (s *FinanceService) AddVariable(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.IsFixed = false
	e.DueDate = core.Date{}
	e.IsPaid = false
	e.IsRecurring = false
	return s.add(ctx, e)
}

func (s *FinanceService) add(ctx context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpCreate); err != nil {
		return core.Expense{}, err
	}
	if err := e.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Rejected invalid expense", "error", err, log.FieldOperation, log.OpCreate)
		return core.Expense{}, err
	}

	e.ID = s.newID()
	if e.IsFixed {
		s.fixed = append(s.fixed, e)
		s.invalidateLocked()
		s.persistLocked(ctx, KeyFixedExpenses)
	} else {
		s.variable = append(s.variable, e)
		s.persistLocked(ctx, KeyVariableExpenses)
	}

	s.logger.InfoContext(ctx, "Expense created", log.NewFields().
		WithExpense(e.ID, e.Name, e.Amount.Cents, e.Category, e.PaymentMethod, e.IsFixed).
		WithOperation(log.OpCreate).ToSlice()...)
	s.emitChangedLocked(amqp.ActionCreated, e)
	return e, nil
}

// UpdateFixed replaces the fixed origin record with the same id. Occurrence
// ids are not accepted; translate them with OriginID first.
func (s *FinanceService) UpdateFixed(ctx context.Context, e core.Expense) error {
	return s.update(ctx, e, true)
}

// UpdateVariable replaces the variable record with the same id.
func (s *FinanceService) UpdateVariable(ctx context.Context, e core.Expense) error {
	return s.update(ctx, e, false)
}

// Update replaces the origin record with the same id, whichever collection
// holds it. The kind of an expense never changes.
func (s *FinanceService) Update(ctx context.Context, e core.Expense) error {
	return s.update(ctx, e, s.isFixedID(e.ID))
}

func (s *FinanceService) update(ctx context.Context, e core.Expense, fixed bool) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpUpdate); err != nil {
		return err
	}

	list := &s.variable
	if fixed {
		list = &s.fixed
	}
	_, i := findExpense(*list, e.ID)
	if i < 0 {
		return fmt.Errorf("update expense %s: %w", e.ID, core.ErrNotFound)
	}

	e.IsFixed = fixed
	if !fixed {
		e.DueDate = core.Date{}
		e.IsPaid = false
		e.IsRecurring = false
	}
	if err := e.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Rejected invalid expense", "error", err, log.FieldOperation, log.OpUpdate)
		return err
	}

	if fixed {
		keys := []string{KeyFixedExpenses}
		if s.reconcileLedgerLocked((*list)[i], &e) {
			keys = append(keys, KeyMonthlyPaymentStatus)
		}
		(*list)[i] = e
		s.invalidateLocked()
		s.persistLocked(ctx, keys...)
	} else {
		(*list)[i] = e
		s.persistLocked(ctx, KeyVariableExpenses)
	}

	s.logger.InfoContext(ctx, "Expense updated", log.NewFields().
		WithExpense(e.ID, e.Name, e.Amount.Cents, e.Category, e.PaymentMethod, e.IsFixed).
		WithOperation(log.OpUpdate).ToSlice()...)
	s.emitChangedLocked(amqp.ActionUpdated, e)
	return nil
}

// reconcileLedgerLocked keeps the ledger consistent with an edited fixed
// expense and reports whether it changed. The origin record owns the paid
// state of its own month, so an entry for the new origin month is folded into
// next.IsPaid when the origin month moves, and dropped when it does not.
// Entries before the new origin month no longer match any occurrence. When the
// origin moves earlier, the old origin month keeps its paid state as an entry.
func (s *FinanceService) reconcileLedgerLocked(prev core.Expense, next *core.Expense) bool {
	from, to := prev.OriginMonth(), next.OriginMonth()
	isPaid, taken := s.ledger.Take(next.ID, to)
	if from == to {
		return taken
	}
	if taken {
		next.IsPaid = isPaid
	}
	changed := taken
	if s.ledger.PurgeBefore(next.ID, to) > 0 {
		changed = true
	}
	if to.Before(from) && prev.IsPaid {
		if _, ok := s.ledger.Lookup(next.ID, from); !ok {
			s.ledger.Set(next.ID, from, true)
			changed = true
		}
	}
	return changed
}

// DeleteFixed removes the fixed origin record and every ledger entry for it.
func (s *FinanceService) DeleteFixed(ctx context.Context, id string) error {
	return s.delete(ctx, id, true)
}

// DeleteVariable removes the variable record.
func (s *FinanceService) DeleteVariable(ctx context.Context, id string) error {
	return s.delete(ctx, id, false)
}

// Delete removes the origin record with id from whichever collection holds it.
func (s *FinanceService) Delete(ctx context.Context, id string) error {
	return s.delete(ctx, id, s.isFixedID(id))
}

// isFixedID reports whether id names a fixed origin record.
func (s *FinanceService) isFixedID(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	_, i := findExpense(s.fixed, id)
	return i >= 0
}

func (s *FinanceService) delete(ctx context.Context, id string, fixed bool) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpDelete); err != nil {
		return err
	}

	list := &s.variable
	if fixed {
		list = &s.fixed
	}
	e, i := findExpense(*list, id)
	if i < 0 {
		return fmt.Errorf("delete expense %s: %w", id, core.ErrNotFound)
	}
	*list = slices.Delete(*list, i, i+1)

	if fixed {
		purged := s.ledger.Purge(id)
		s.invalidateLocked()
		s.persistLocked(ctx, KeyFixedExpenses, KeyMonthlyPaymentStatus)
		s.logger.InfoContext(ctx, "Expense deleted",
			log.FieldExpenseID, id, log.FieldIsFixed, true, "purged_ledger_entries", purged)
	} else {
		s.persistLocked(ctx, KeyVariableExpenses)
		s.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id, log.FieldIsFixed, false)
	}

	s.emitChangedLocked(amqp.ActionDeleted, e)
	return nil
}

// SetExpensePaymentStatus records whether the fixed expense is paid in month.
// expenseID may be an origin id or an occurrence id; the ledger is always
// keyed by the origin id. For the origin month the origin record's own flag
// is updated; for any other month only the ledger changes.
func (s *FinanceService) SetExpensePaymentStatus(ctx context.Context, expenseID string, month core.MonthKey, isPaid bool) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpSetStatus); err != nil {
		return err
	}
	if month.IsZero() {
		return core.ErrInvalidMonthKey
	}

	originID, ok := s.originIDLocked(expenseID)
	if !ok {
		if _, i := findExpense(s.variable, expenseID); i >= 0 {
			return fmt.Errorf("set status %s: %w", expenseID, core.ErrNotFixed)
		}
		return fmt.Errorf("set status %s: %w", expenseID, core.ErrNotFound)
	}
	origin, i := findExpense(s.fixed, originID)

	if origin.OriginMonth() == month {
		s.fixed[i].IsPaid = isPaid
		keys := []string{KeyFixedExpenses}
		// An explicit entry would shadow the origin flag.
		if _, ok := s.ledger.Take(originID, month); ok {
			keys = append(keys, KeyMonthlyPaymentStatus)
		}
		s.persistLocked(ctx, keys...)
	} else {
		s.ledger.Set(originID, month, isPaid)
		s.persistLocked(ctx, KeyMonthlyPaymentStatus)
	}
	s.invalidateLocked()

	s.logger.InfoContext(ctx, "Payment status updated",
		log.FieldExpenseID, originID,
		log.FieldMonthKey, month.String(),
		log.FieldIsPaid, isPaid,
		log.FieldOperation, log.OpSetStatus)
	s.emitStatusLocked(originID, month, isPaid)
	return nil
}

// GetStatus resolves the paid status of the fixed expense for month: an
// explicit ledger entry, then the origin flag for the origin month, then
// unpaid. Unknown ids are unpaid.
func (s *FinanceService) GetStatus(expenseID string, month core.MonthKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()

	originID, ok := s.originIDLocked(expenseID)
	if !ok {
		paid, _ := s.ledger.Lookup(expenseID, month)
		return paid
	}
	origin, _ := findExpense(s.fixed, originID)
	return s.ledger.Status(origin, month)
}

// OriginID translates an origin or occurrence id to the id of an existing
// fixed origin record.
func (s *FinanceService) OriginID(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return s.originIDLocked(id)
}

func (s *FinanceService) originIDLocked(id string) (string, bool) {
	if _, i := findExpense(s.fixed, id); i >= 0 {
		return id, true
	}
	ref, ok := core.ParseOccurrenceID(id)
	if !ok {
		return "", false
	}
	if _, i := findExpense(s.fixed, ref.OriginID); i >= 0 {
		return ref.OriginID, true
	}
	return "", false
}

// guardLocked rejects mutations while the store is locked.
func (s *FinanceService) guardLocked(ctx context.Context, op string) error {
	if s.settings.IsLocked {
		s.logger.WarnContext(ctx, "Mutation rejected, store is locked", log.FieldOperation, op)
		return core.ErrLocked
	}
	return nil
}

func findExpense(list []core.Expense, id string) (core.Expense, int) {
	for i, e := range list {
		if e.ID == id {
			return e, i
		}
	}
	return core.Expense{}, -1
}
