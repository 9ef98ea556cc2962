package projection

import (
	"testing"

	"bilancio/internal/core"
)

func TestStatusOf(t *testing.T) {
	due := core.NewDate(2024, 3, 10)
	fixed := fixedExpense("1", due, false)
	paid := fixedExpense("2", due, true)
	variable := core.Expense{ID: "v", Name: "Lunch", Date: core.NewDate(2024, 1, 1)}

	tests := []struct {
		name  string
		e     core.Expense
		today core.Date
		want  Status
	}{
		{"before due", fixed, core.NewDate(2024, 3, 9), StatusPending},
		{"on due date", fixed, due, StatusPending},
		{"day after due", fixed, core.NewDate(2024, 3, 11), StatusOverdue},
		{"long after due", fixed, core.NewDate(2024, 6, 1), StatusOverdue},
		{"paid is never overdue", paid, core.NewDate(2024, 6, 1), StatusPaid},
		{"variable always pending", variable, core.NewDate(2030, 1, 1), StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.e, tt.today); got != tt.want {
				t.Errorf("StatusOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusOfUsesProjectedDueDate(t *testing.T) {
	occ := core.Occurrence{
		Ref:     core.OccurrenceRef{OriginID: "1", Month: core.MustMonthKey("2024-02")},
		Expense: fixedExpense("1", core.NewDate(2024, 2, 29), false),
	}
	if got := StatusOf(occ.Expense, core.NewDate(2024, 2, 29)); got != StatusPending {
		t.Errorf("on due date: got %s, want pending", got)
	}
	if got := StatusOf(occ.Expense, core.NewDate(2024, 3, 1)); got != StatusOverdue {
		t.Errorf("after due date: got %s, want overdue", got)
	}
}
