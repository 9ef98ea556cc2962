package amqp

import (
	"encoding/json"
	"testing"
	"time"

	"bilancio/internal/core"
)

func TestNewExpenseChangedMessage(t *testing.T) {
	e := core.Expense{ID: "rent", IsFixed: true}

	msg := NewExpenseChangedMessage(ActionUpdated, e)

	if msg.ExpenseID != "rent" || !msg.IsFixed || msg.Action != ActionUpdated {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.IsPaid != nil || msg.MonthKey != "" {
		t.Errorf("plain change should not carry status fields: %+v", msg)
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestStatusChangedMessage_JSON(t *testing.T) {
	msg := NewStatusChangedMessage("rent", core.MustMonthKey("2024-02"), false)
	msg.Timestamp = time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		t.Fatal(err)
	}
	// isPaid=false must still be present
	if v, ok := raw["isPaid"]; !ok || v != false {
		t.Errorf("isPaid missing or wrong: %s", jsonBytes)
	}

	parsed, err := ExpenseChangedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ExpenseChangedMessageFromJSON() error = %v", err)
	}
	if parsed.MonthKey != "2024-02" || parsed.Action != ActionStatusChanged || !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestMonthArchivedMessage(t *testing.T) {
	snapshot := core.MonthlyData{
		ID:               "2024-03",
		MonthKey:         core.MustMonthKey("2024-03"),
		FixedExpenses:    make([]core.Occurrence, 2),
		VariableExpenses: make([]core.Expense, 3),
		TotalSpent:       core.NewMoney(12345),
		Budget:           core.NewMoney(50000),
	}

	msg := NewMonthArchivedMessage(snapshot)
	if msg.MonthKey != "2024-03" || msg.FixedCount != 2 || msg.VariableCount != 3 {
		t.Errorf("unexpected message: %+v", msg)
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := MonthArchivedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("MonthArchivedMessageFromJSON() error = %v", err)
	}
	if parsed.TotalSpent.Cents != 12345 || parsed.Budget.Cents != 50000 {
		t.Errorf("amounts = %s / %s", parsed.TotalSpent, parsed.Budget)
	}
}

func TestMessages_InvalidJSON(t *testing.T) {
	if _, err := ExpenseChangedMessageFromJSON([]byte(`{"expenseId": 12}`)); err == nil {
		t.Error("ExpenseChangedMessageFromJSON() should fail with invalid JSON")
	}
	if _, err := MonthArchivedMessageFromJSON([]byte(`[`)); err == nil {
		t.Error("MonthArchivedMessageFromJSON() should fail with invalid JSON")
	}
}
