package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxNameLength   = 200
	MinResetDay     = 1
	MaxResetDay     = 31
	DefaultResetDay = 1
)

type (
	// Expense is an origin record owned by the expense store. Fixed expenses
	// carry DueDate and IsPaid (paid status for the origin month only);
	// variable expenses carry Date.
	Expense struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Amount        Money  `json:"amount"`
		Category      string `json:"category"`
		PaymentMethod string `json:"paymentMethod"`
		IsFixed       bool   `json:"isFixed"`

		Date Date `json:"date"`

		DueDate     Date `json:"dueDate"`
		IsPaid      bool `json:"isPaid,omitempty"`
		IsRecurring bool `json:"isRecurring,omitempty"`
	}

	CustomCategory struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Budget Money  `json:"budget"`
		Color  string `json:"color"`
		Icon   string `json:"icon,omitempty"`
	}

	CustomPaymentMethod struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon,omitempty"`
	}

	// MonthlyPaymentStatus is a ledger override, keyed by the origin expense id.
	MonthlyPaymentStatus struct {
		ExpenseID string   `json:"expenseId"`
		MonthKey  MonthKey `json:"monthKey"`
		IsPaid    bool     `json:"isPaid"`
	}

	// MonthlyData is the immutable snapshot written by the monthly rollover.
	MonthlyData struct {
		ID               string       `json:"id"`
		MonthKey         MonthKey     `json:"monthKey"`
		FixedExpenses    []Occurrence `json:"fixedExpenses"`
		VariableExpenses []Expense    `json:"variableExpenses"`
		TotalSpent       Money        `json:"totalSpent"`
		Budget           Money        `json:"budget"`
	}

	Settings struct {
		ResetDay         int  `json:"resetDay"`
		IsLocked         bool `json:"isLocked"`
		SyncWithFirebase bool `json:"syncWithFirebase"`
	}
)

var (
	ErrLocked             = errors.New("store is locked")
	ErrNotFound           = errors.New("record not found")
	ErrNotFixed           = errors.New("expense is not a fixed expense")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyPaymentMethod = errors.New("empty payment method")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonthKey    = errors.New("invalid month key")
	ErrInvalidResetDay    = errors.New("reset day must be between 1 and 31")
	ErrInvalidPercentage  = errors.New("percentage must be between 0 and 1")
	ErrCategoryInUse      = errors.New("category is referenced by an expense")
	ErrPaymentMethodInUse = errors.New("payment method is referenced by an expense")
)

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{ResetDay: DefaultResetDay}
}

func validateName(name string) error {
	if len(strings.TrimSpace(name)) == 0 {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Validate checks the fields common to both kinds and the kind-specific date.
func (e Expense) Validate() error {
	if err := validateName(e.Name); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		return ErrEmptyPaymentMethod
	}
	if e.IsFixed {
		if err := e.DueDate.Validate(); err != nil {
			return fmt.Errorf("invalid due date: %w", err)
		}
		return nil
	}
	if err := e.Date.Validate(); err != nil {
		return fmt.Errorf("invalid transaction date: %w", err)
	}
	return nil
}

// OriginMonth is the month of the fixed expense's original due date.
func (e Expense) OriginMonth() MonthKey {
	return e.DueDate.MonthKey()
}

func (c CustomCategory) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	return c.Budget.Validate()
}

func (m CustomPaymentMethod) Validate() error {
	return validateName(m.Name)
}

// ValidateResetDay checks the configured reset day.
func ValidateResetDay(day int) error {
	if day < MinResetDay || day > MaxResetDay {
		return ErrInvalidResetDay
	}
	return nil
}
