package amqp

import (
	"encoding/json"
	"time"

	"bilancio/internal/core"
)

// Message types, sent as the AMQP Type property.
const (
	TypeExpenseChanged = "expense.changed"
	TypeMonthArchived  = "month.archived"
)

// Expense change actions.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionStatusChanged = "status_changed"
)

// ExpenseChangedMessage announces a mutation of an origin expense or of its
// paid status for a month. It carries identifiers only; consumers read the
// current state from the API.
type ExpenseChangedMessage struct {
	Action    string    `json:"action"`
	ExpenseID string    `json:"expenseId"`
	IsFixed   bool      `json:"isFixed"`
	MonthKey  string    `json:"monthKey,omitempty"`
	IsPaid    *bool     `json:"isPaid,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseChangedMessage creates a change message for e.
func NewExpenseChangedMessage(action string, e core.Expense) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		Action:    action,
		ExpenseID: e.ID,
		IsFixed:   e.IsFixed,
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusChangedMessage creates the message for a paid-status toggle.
func NewStatusChangedMessage(expenseID string, month core.MonthKey, isPaid bool) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		Action:    ActionStatusChanged,
		ExpenseID: expenseID,
		IsFixed:   true,
		MonthKey:  month.String(),
		IsPaid:    &isPaid,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseChangedMessageFromJSON creates a message from JSON bytes
func ExpenseChangedMessageFromJSON(data []byte) (*ExpenseChangedMessage, error) {
	var msg ExpenseChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MonthArchivedMessage announces a new monthly history snapshot.
type MonthArchivedMessage struct {
	MonthKey      string     `json:"monthKey"`
	TotalSpent    core.Money `json:"totalSpent"`
	Budget        core.Money `json:"budget"`
	FixedCount    int        `json:"fixedCount"`
	VariableCount int        `json:"variableCount"`
	Timestamp     time.Time  `json:"timestamp"`
}

// NewMonthArchivedMessage summarises snapshot.
func NewMonthArchivedMessage(snapshot core.MonthlyData) *MonthArchivedMessage {
	return &MonthArchivedMessage{
		MonthKey:      snapshot.MonthKey.String(),
		TotalSpent:    snapshot.TotalSpent,
		Budget:        snapshot.Budget,
		FixedCount:    len(snapshot.FixedExpenses),
		VariableCount: len(snapshot.VariableExpenses),
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MonthArchivedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthArchivedMessageFromJSON creates a message from JSON bytes
func MonthArchivedMessageFromJSON(data []byte) (*MonthArchivedMessage, error) {
	var msg MonthArchivedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
