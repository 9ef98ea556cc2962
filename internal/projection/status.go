package projection

import (
	"bilancio/internal/core"
)

// Status is the display state of an expense occurrence.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
)

// StatusOf derives the state of e as of today. Variable expenses are always
// pending. A fixed expense is paid when IsPaid is set, overdue once today is
// on or after the day following its due date, and pending otherwise.
//
// e may be an origin record or the Expense of a projected occurrence; the due
// date it carries is the one evaluated.
func StatusOf(e core.Expense, today core.Date) Status {
	if !e.IsFixed {
		return StatusPending
	}
	if e.IsPaid {
		return StatusPaid
	}
	if e.DueDate.IsZero() {
		return StatusPending
	}
	if !today.Before(e.DueDate.AddDays(1)) {
		return StatusOverdue
	}
	return StatusPending
}
