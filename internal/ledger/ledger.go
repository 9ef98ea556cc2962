// Package ledger holds per-month payment overrides for fixed expenses.
//
// Entries are keyed by (origin expense id, month key) and never by a derived
// occurrence id. The ledger never touches the origin record's own IsPaid.
package ledger

import (
	"sort"

	"bilancio/internal/core"
)

type entryKey struct {
	expenseID string
	month     core.MonthKey
}

// Ledger is a sparse map of payment overrides. The zero value is not usable;
// create one with New or FromEntries.
type Ledger struct {
	entries map[entryKey]bool
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[entryKey]bool)}
}

// FromEntries builds a ledger from persisted entries. Later duplicates win.
func FromEntries(entries []core.MonthlyPaymentStatus) *Ledger {
	l := New()
	for _, e := range entries {
		l.Set(e.ExpenseID, e.MonthKey, e.IsPaid)
	}
	return l
}

// Lookup returns the explicit override for (expenseID, month), if any.
func (l *Ledger) Lookup(expenseID string, month core.MonthKey) (isPaid, ok bool) {
	isPaid, ok = l.entries[entryKey{expenseID: expenseID, month: month}]
	return isPaid, ok
}

// Status resolves the paid state of origin in month: an explicit entry wins,
// then the origin record's IsPaid in its own month, otherwise unpaid.
func (l *Ledger) Status(origin core.Expense, month core.MonthKey) bool {
	if isPaid, ok := l.Lookup(origin.ID, month); ok {
		return isPaid
	}
	if origin.OriginMonth() == month {
		return origin.IsPaid
	}
	return false
}

// Set upserts the override for (expenseID, month).
func (l *Ledger) Set(expenseID string, month core.MonthKey, isPaid bool) {
	l.entries[entryKey{expenseID: expenseID, month: month}] = isPaid
}

// Take removes the override for (expenseID, month) and returns it, if any.
func (l *Ledger) Take(expenseID string, month core.MonthKey) (isPaid, ok bool) {
	k := entryKey{expenseID: expenseID, month: month}
	isPaid, ok = l.entries[k]
	delete(l.entries, k)
	return isPaid, ok
}

// PurgeBefore removes the entries of expenseID for months strictly before
// month and returns how many were dropped.
func (l *Ledger) PurgeBefore(expenseID string, month core.MonthKey) int {
	removed := 0
	for k := range l.entries {
		if k.expenseID == expenseID && k.month.Before(month) {
			delete(l.entries, k)
			removed++
		}
	}
	return removed
}

// Purge removes every entry of expenseID and returns how many were dropped.
func (l *Ledger) Purge(expenseID string) int {
	removed := 0
	for k := range l.entries {
		if k.expenseID == expenseID {
			delete(l.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns all entries sorted by expense id then month, ready to persist.
func (l *Ledger) Entries() []core.MonthlyPaymentStatus {
	out := make([]core.MonthlyPaymentStatus, 0, len(l.entries))
	for k, v := range l.entries {
		out = append(out, core.MonthlyPaymentStatus{ExpenseID: k.expenseID, MonthKey: k.month, IsPaid: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpenseID != out[j].ExpenseID {
			return out[i].ExpenseID < out[j].ExpenseID
		}
		return out[i].MonthKey.Before(out[j].MonthKey)
	})
	return out
}
