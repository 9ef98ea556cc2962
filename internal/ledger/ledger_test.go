package ledger

import (
	"testing"

	"bilancio/internal/core"
)

func origin() core.Expense {
	return core.Expense{ID: "1", IsFixed: true, DueDate: core.NewDate(2024, 1, 31), IsPaid: false}
}

func TestStatusFallbackOrder(t *testing.T) {
	l := New()
	e := origin()
	jan, feb := core.MustMonthKey("2024-01"), core.MustMonthKey("2024-02")

	if l.Status(e, jan) {
		t.Fatalf("origin month should reflect origin.IsPaid=false")
	}
	e.IsPaid = true
	if !l.Status(e, jan) {
		t.Fatalf("origin month should reflect origin.IsPaid=true")
	}
	if l.Status(e, feb) {
		t.Fatalf("non-origin month without entry defaults to unpaid")
	}

	l.Set("1", jan, false)
	if l.Status(e, jan) {
		t.Fatalf("explicit entry must win over origin.IsPaid")
	}
}

func TestSetThenGetIsolatedPerMonth(t *testing.T) {
	l := New()
	e := origin()
	jan, feb, mar := core.MustMonthKey("2024-01"), core.MustMonthKey("2024-02"), core.MustMonthKey("2024-03")

	l.Set("1", feb, true)
	if !l.Status(e, feb) {
		t.Fatalf("expected feb paid")
	}
	if l.Status(e, jan) {
		t.Fatalf("origin month must still reflect origin.IsPaid")
	}
	if l.Status(e, mar) {
		t.Fatalf("other months must be unaffected")
	}

	l.Set("1", feb, false)
	if l.Status(e, feb) || l.Len() != 1 {
		t.Fatalf("upsert should update in place, len=%d", l.Len())
	}
}

func TestPurge(t *testing.T) {
	l := New()
	l.Set("1", core.MustMonthKey("2024-02"), true)
	l.Set("1", core.MustMonthKey("2024-03"), true)
	l.Set("2", core.MustMonthKey("2024-02"), true)

	if n := l.Purge("1"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := l.Lookup("1", core.MustMonthKey("2024-02")); ok {
		t.Fatalf("stale entry survived purge")
	}
	if _, ok := l.Lookup("2", core.MustMonthKey("2024-02")); !ok {
		t.Fatalf("purge removed another expense's entry")
	}
}

func TestTake(t *testing.T) {
	l := New()
	feb := core.MustMonthKey("2024-02")
	l.Set("1", feb, true)

	isPaid, ok := l.Take("1", feb)
	if !ok || !isPaid {
		t.Fatalf("Take() = %v, %v, want true, true", isPaid, ok)
	}
	if _, ok := l.Lookup("1", feb); ok {
		t.Fatalf("entry survived Take")
	}
	if _, ok := l.Take("1", feb); ok {
		t.Fatalf("second Take found an entry")
	}
}

func TestPurgeBefore(t *testing.T) {
	l := New()
	l.Set("1", core.MustMonthKey("2023-12"), true)
	l.Set("1", core.MustMonthKey("2024-02"), false)
	l.Set("1", core.MustMonthKey("2024-03"), true)
	l.Set("2", core.MustMonthKey("2024-01"), true)

	if n := l.PurgeBefore("1", core.MustMonthKey("2024-03")); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := l.Lookup("1", core.MustMonthKey("2024-03")); !ok {
		t.Fatalf("entry of the boundary month was removed")
	}
	if _, ok := l.Lookup("2", core.MustMonthKey("2024-01")); !ok {
		t.Fatalf("purge removed another expense's entry")
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 entries left, got %d", l.Len())
	}
}

func TestEntriesRoundTrip(t *testing.T) {
	l := FromEntries([]core.MonthlyPaymentStatus{
		{ExpenseID: "b", MonthKey: core.MustMonthKey("2024-02"), IsPaid: true},
		{ExpenseID: "a", MonthKey: core.MustMonthKey("2024-03"), IsPaid: false},
		{ExpenseID: "a", MonthKey: core.MustMonthKey("2024-02"), IsPaid: true},
		{ExpenseID: "b", MonthKey: core.MustMonthKey("2024-02"), IsPaid: false},
	})
	got := l.Entries()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].ExpenseID != "a" || got[0].MonthKey.String() != "2024-02" || got[2].ExpenseID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[2].IsPaid {
		t.Fatalf("later duplicate should win")
	}
}
