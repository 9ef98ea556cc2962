package core

import (
	"encoding/json"
	"testing"
)

func TestOccurrenceRefString(t *testing.T) {
	origin := Expense{ID: "1", IsFixed: true, DueDate: NewDate(2024, 1, 31)}

	if got := NewOccurrenceRef(origin, MustMonthKey("2024-01")).String(); got != "1" {
		t.Fatalf("origin month id = %q, want %q", got, "1")
	}
	if got := NewOccurrenceRef(origin, MustMonthKey("2024-02")).String(); got != "1_2024-02" {
		t.Fatalf("derived id = %q, want %q", got, "1_2024-02")
	}
}

func TestParseOccurrenceID(t *testing.T) {
	tests := []struct {
		id          string
		wantOrigin  string
		wantMonth   string
		wantDerived bool
	}{
		{"1_2024-02", "1", "2024-02", true},
		{"abc", "abc", "", false},
		{"rent_home", "rent_home", "", false},
		{"rent_home_2024-03", "rent_home", "2024-03", true},
		{"_2024-03", "_2024-03", "", false},
		{"x_", "x_", "", false},
		{"x_2024-13", "x_2024-13", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			ref, derived := ParseOccurrenceID(tt.id)
			if ref.OriginID != tt.wantOrigin || derived != tt.wantDerived {
				t.Fatalf("got (%q, %v), want (%q, %v)", ref.OriginID, derived, tt.wantOrigin, tt.wantDerived)
			}
			if derived && ref.Month.String() != tt.wantMonth {
				t.Fatalf("month = %s, want %s", ref.Month, tt.wantMonth)
			}
		})
	}
}

func TestOccurrenceJSON(t *testing.T) {
	origin := Expense{ID: "1", Name: "Rent", Amount: NewMoney(1000), IsFixed: true, DueDate: NewDate(2024, 2, 29)}
	occ := Occurrence{Ref: OccurrenceRef{OriginID: "1", Month: MustMonthKey("2024-02")}, Expense: origin}

	data, err := json.Marshal(occ)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if decoded["id"] != "1_2024-02" || decoded["originId"] != "1" || decoded["monthKey"] != "2024-02" {
		t.Fatalf("unexpected encoding %s", data)
	}

	var back Occurrence
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Ref != occ.Ref || back.Expense.ID != "1" || back.DueDate().String() != "2024-02-29" {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}
