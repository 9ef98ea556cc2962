// Package projection derives the per-month view of fixed expenses.
//
// Fixed expenses are stored once, with their original due date. A month view
// is produced on demand by re-projecting every origin record into the target
// month; nothing is copied or written back.
package projection

import (
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Project returns the occurrences of the fixed expenses visible in month.
//
// Expenses without a due date, and expenses whose origin month is after
// month, are omitted. In the origin month the occurrence keeps the origin id
// and due date. In later months the due day is clamped to the month length
// and the id becomes originId_YYYY-MM. IsPaid is resolved through the ledger,
// which falls back to the origin record's flag for the origin month.
// The result follows the input order.
func Project(fixed []core.Expense, l *ledger.Ledger, month core.MonthKey) []core.Occurrence {
	out := make([]core.Occurrence, 0, len(fixed))
	for _, e := range fixed {
		if occ, ok := ProjectOne(e, l, month); ok {
			out = append(out, occ)
		}
	}
	return out
}

// ProjectOne projects a single origin expense into month.
func ProjectOne(e core.Expense, l *ledger.Ledger, month core.MonthKey) (core.Occurrence, bool) {
	if !e.IsFixed || e.DueDate.IsZero() {
		return core.Occurrence{}, false
	}
	originMonth := e.OriginMonth()
	if month.Before(originMonth) {
		return core.Occurrence{}, false
	}

	ref := core.NewOccurrenceRef(e, month)
	view := e
	if !ref.Origin {
		view.DueDate = month.DateOn(e.DueDate.Day())
	}
	view.IsPaid = l.Status(e, month)
	return core.Occurrence{Ref: ref, Expense: view}, true
}
