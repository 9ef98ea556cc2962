package projection

import (
	"fmt"
	"sort"
	"strings"

	"bilancio/internal/core"
)

// SortField selects the key used to order expenses.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByName   SortField = "name"
	SortByAmount SortField = "amount"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSort validates user supplied sort parameters. Empty values default to
// date, descending (most recent first).
func ParseSort(field, order string) (SortField, SortOrder, error) {
	f := SortField(strings.ToLower(strings.TrimSpace(field)))
	o := SortOrder(strings.ToLower(strings.TrimSpace(order)))
	if f == "" {
		f = SortByDate
	}
	if o == "" {
		o = Descending
	}
	switch f {
	case SortByDate, SortByName, SortByAmount:
	default:
		return "", "", fmt.Errorf("unknown sort field: %s", field)
	}
	switch o {
	case Ascending, Descending:
	default:
		return "", "", fmt.Errorf("unknown sort order: %s", order)
	}
	return f, o, nil
}

// effectiveDate is the due date for fixed expenses and the transaction date
// for variable ones.
func effectiveDate(e core.Expense) core.Date {
	if e.IsFixed {
		return e.DueDate
	}
	return e.Date
}

func less(a, b core.Expense, field SortField) (bool, bool) {
	switch field {
	case SortByName:
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		return an < bn, an == bn
	case SortByAmount:
		return a.Amount.Cents < b.Amount.Cents, a.Amount.Cents == b.Amount.Cents
	default:
		ad, bd := effectiveDate(a), effectiveDate(b)
		return ad.Before(bd), ad.Equal(bd.Time)
	}
}

// ordered reports whether a sorts before b. Ties fall back to name then id so
// the result is deterministic.
func ordered(a, b core.Expense, field SortField, order SortOrder) bool {
	lt, eq := less(a, b, field)
	if !eq {
		if order == Descending {
			return !lt
		}
		return lt
	}
	if field != SortByName {
		if lt, eq := less(a, b, SortByName); !eq {
			return lt
		}
	}
	return a.ID < b.ID
}

// SortOccurrences orders occurrences in place.
func SortOccurrences(occs []core.Occurrence, field SortField, order SortOrder) {
	sort.SliceStable(occs, func(i, j int) bool {
		a, b := occs[i].Expense, occs[j].Expense
		a.ID, b.ID = occs[i].ID(), occs[j].ID()
		return ordered(a, b, field, order)
	})
}

// SortExpenses orders expenses in place.
func SortExpenses(expenses []core.Expense, field SortField, order SortOrder) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return ordered(expenses[i], expenses[j], field, order)
	})
}

// VariablesInMonth returns the variable expenses dated inside month.
func VariablesInMonth(variable []core.Expense, month core.MonthKey) []core.Expense {
	out := make([]core.Expense, 0, len(variable))
	for _, e := range variable {
		if month.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out
}

// FilterByName keeps expenses whose name contains query, case-insensitively.
// An empty query keeps everything.
func FilterByName(expenses []core.Expense, query string) []core.Expense {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	return out
}
