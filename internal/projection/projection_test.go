package projection

import (
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func fixedExpense(id string, due core.Date, paid bool) core.Expense {
	return core.Expense{
		ID:            id,
		Name:          "Rent " + id,
		Amount:        core.NewMoney(50000),
		Category:      "housing",
		PaymentMethod: "bank",
		IsFixed:       true,
		DueDate:       due,
		IsPaid:        paid,
	}
}

func TestProjectClampsDueDay(t *testing.T) {
	e := fixedExpense("1", core.NewDate(2024, 1, 31), true)
	occs := Project([]core.Expense{e}, ledger.New(), core.MustMonthKey("2024-02"))

	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	got := occs[0]
	if got.ID() != "1_2024-02" {
		t.Errorf("ID = %q, want 1_2024-02", got.ID())
	}
	if want := core.NewDate(2024, 2, 29); !got.DueDate().Equal(want.Time) {
		t.Errorf("DueDate = %s, want %s", got.DueDate(), want)
	}
	if got.IsPaid() {
		t.Error("later month must not inherit origin IsPaid")
	}
	if got.Ref.OriginID != "1" {
		t.Errorf("OriginID = %q, want 1", got.Ref.OriginID)
	}
}

func TestProjectOriginMonth(t *testing.T) {
	e := fixedExpense("abc", core.NewDate(2024, 3, 15), true)
	occs := Project([]core.Expense{e}, ledger.New(), core.MustMonthKey("2024-03"))

	if len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
	if occs[0].ID() != "abc" {
		t.Errorf("origin month occurrence should keep origin id, got %q", occs[0].ID())
	}
	if !occs[0].IsPaid() {
		t.Error("origin month occurrence should carry origin IsPaid")
	}
	if !occs[0].DueDate().Equal(e.DueDate.Time) {
		t.Errorf("DueDate = %s, want %s", occs[0].DueDate(), e.DueDate)
	}
}

func TestProjectSkipsEarlierMonthsAndMissingDueDate(t *testing.T) {
	fixed := []core.Expense{
		fixedExpense("a", core.NewDate(2024, 5, 10), false),
		fixedExpense("b", core.Date{}, false),
		{ID: "v", Name: "Coffee", IsFixed: false, Date: core.NewDate(2024, 4, 2)},
	}

	if occs := Project(fixed, ledger.New(), core.MustMonthKey("2024-04")); len(occs) != 0 {
		t.Fatalf("expected no occurrences before origin month, got %d", len(occs))
	}
	if occs := Project(fixed, ledger.New(), core.MustMonthKey("2024-06")); len(occs) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(occs))
	}
}

func TestProjectUsesLedger(t *testing.T) {
	e := fixedExpense("1", core.NewDate(2024, 1, 10), false)
	l := ledger.New()
	l.Set("1", core.MustMonthKey("2024-03"), true)

	tests := []struct {
		month string
		paid  bool
	}{
		{"2024-01", false},
		{"2024-02", false},
		{"2024-03", true},
		{"2024-04", false},
	}
	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			occs := Project([]core.Expense{e}, l, core.MustMonthKey(tt.month))
			if len(occs) != 1 {
				t.Fatalf("expected 1 occurrence, got %d", len(occs))
			}
			if occs[0].IsPaid() != tt.paid {
				t.Errorf("IsPaid = %v, want %v", occs[0].IsPaid(), tt.paid)
			}
		})
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	fixed := []core.Expense{
		fixedExpense("1", core.NewDate(2024, 1, 31), false),
		fixedExpense("2", core.NewDate(2023, 11, 5), true),
	}
	l := ledger.New()
	l.Set("2", core.MustMonthKey("2024-02"), true)
	month := core.MustMonthKey("2024-02")

	first := Project(fixed, l, month)
	second := Project(fixed, l, month)
	if len(first) != len(second) {
		t.Fatalf("length changed between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID() != second[i].ID() || first[i].IsPaid() != second[i].IsPaid() ||
			!first[i].DueDate().Equal(second[i].DueDate().Time) {
			t.Errorf("occurrence %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
	// origin records are untouched
	if !fixed[0].DueDate.Equal(core.NewDate(2024, 1, 31).Time) {
		t.Errorf("origin due date mutated: %s", fixed[0].DueDate)
	}
}

func TestProjectDueDayWithinMonthProperty(t *testing.T) {
	start := core.MustMonthKey("2023-01")
	for day := 1; day <= 31; day++ {
		e := fixedExpense("x", core.NewDate(2023, 1, day), false)
		month := start
		for i := 0; i < 24; i++ {
			occ, ok := ProjectOne(e, ledger.New(), month)
			if !ok {
				t.Fatalf("day %d month %s: expected occurrence", day, month)
			}
			due := occ.DueDate()
			if due.MonthKey() != month {
				t.Fatalf("day %d month %s: due %s outside month", day, month, due)
			}
			want := day
			if last := month.LastDay(); want > last {
				want = last
			}
			if due.Day() != want {
				t.Fatalf("day %d month %s: due day %d, want %d", day, month, due.Day(), want)
			}
			month = month.Next()
		}
	}
}
