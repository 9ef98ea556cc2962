package services

import (
	"slices"
	"time"

	"bilancio/internal/budget"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/projection"
)

// projectLocked returns the memoized projection for month. Callers must not
// modify the returned slice.
func (s *FinanceService) projectLocked(month core.MonthKey) []core.Occurrence {
	if occs, ok := s.projections.Get(month); ok {
		return occs
	}
	occs := projection.Project(s.fixed, s.ledger, month)
	s.projections.Set(month, occs)
	return occs
}

// ProjectFixedExpenses returns the fixed-expense occurrences visible in month.
// The order is unspecified; use projection.SortOccurrences.
func (s *FinanceService) ProjectFixedExpenses(month core.MonthKey) []core.Occurrence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return slices.Clone(s.projectLocked(month))
}

// Projections exposes the projection cache for periodic expiry sweeps.
func (s *FinanceService) Projections() cache.Cleaner {
	return s.projections
}

// FixedExpenses returns the fixed origin records.
func (s *FinanceService) FixedExpenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return slices.Clone(s.fixed)
}

// VariableExpenses returns every variable expense regardless of date.
func (s *FinanceService) VariableExpenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return slices.Clone(s.variable)
}

// VariableExpensesInMonth returns the variable expenses dated inside month.
func (s *FinanceService) VariableExpensesInMonth(month core.MonthKey) []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return projection.VariablesInMonth(s.variable, month)
}

// Expense returns the origin record with id from either collection.
func (s *FinanceService) Expense(id string) (core.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	if e, i := findExpense(s.fixed, id); i >= 0 {
		return e, true
	}
	if e, i := findExpense(s.variable, id); i >= 0 {
		return e, true
	}
	return core.Expense{}, false
}

func (s *FinanceService) Categories() []core.CustomCategory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return slices.Clone(s.categories)
}

func (s *FinanceService) PaymentMethods() []core.CustomPaymentMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return slices.Clone(s.methods)
}

// History returns the archived snapshots in archive order.
func (s *FinanceService) History() []core.MonthlyData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return slices.Clone(s.history)
}

// Snapshot returns the archived snapshot for month.
func (s *FinanceService) Snapshot(month core.MonthKey) (core.MonthlyData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	for _, h := range s.history {
		if h.MonthKey == month {
			return h, true
		}
	}
	return core.MonthlyData{}, false
}

// ExpenseStatus derives paid/pending/overdue against today. Pass an
// occurrence's Expense to evaluate its projected due date.
func (s *FinanceService) ExpenseStatus(e core.Expense) projection.Status {
	return projection.StatusOf(e, s.today())
}

// Calculator returns a budget calculator for month.
func (s *FinanceService) Calculator(month core.MonthKey) *budget.Calculator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return budget.NewCalculator(month, s.projectLocked(month), s.variable, slices.Clone(s.categories))
}

// CategoryBudget is the budget of the category.
func (s *FinanceService) CategoryBudget(categoryID string) core.Money {
	return s.Calculator(s.CurrentMonth()).Budget(categoryID)
}

// CategorySpent is the paid fixed plus variable spending of the category in
// the viewed month.
func (s *FinanceService) CategorySpent(categoryID string) core.Money {
	return s.Calculator(s.CurrentMonth()).Spent(categoryID)
}

// CategoryRemaining is budget minus spent in the viewed month. It may be negative.
func (s *FinanceService) CategoryRemaining(categoryID string) core.Money {
	return s.Calculator(s.CurrentMonth()).Remaining(categoryID)
}

// CategoryProgress is spent as a percentage of budget in the viewed month.
func (s *FinanceService) CategoryProgress(categoryID string) float64 {
	return s.Calculator(s.CurrentMonth()).Progress(categoryID)
}

// PaymentMethodSpent is the paid fixed plus variable spending settled with
// the payment method in the viewed month.
func (s *FinanceService) PaymentMethodSpent(methodID string) core.Money {
	return s.Calculator(s.CurrentMonth()).SpentByPaymentMethod(methodID)
}

// TotalBudget is the sum of every category budget.
func (s *FinanceService) TotalBudget() core.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return budget.TotalBudget(s.categories)
}

// Summary builds the overview for month.
func (s *FinanceService) Summary(month core.MonthKey) budget.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return budget.Summarize(month, s.projectLocked(month), s.variable, s.categories)
}

// ExportDocument is the full state dump written by Export.
type ExportDocument struct {
	FixedExpenses        []core.Expense              `json:"fixedExpenses"`
	VariableExpenses     []core.Expense              `json:"variableExpenses"`
	CustomCategories     []core.CustomCategory       `json:"customCategories"`
	CustomPaymentMethods []core.CustomPaymentMethod  `json:"customPaymentMethods"`
	MonthlyPaymentStatus []core.MonthlyPaymentStatus `json:"monthlyPaymentStatus"`
	MonthlyHistory       []core.MonthlyData          `json:"monthlyHistory"`
	Settings             core.Settings               `json:"settings"`
	ExportDate           time.Time                   `json:"exportDate"`
}

// Export returns every persisted collection plus the export time.
func (s *FinanceService) Export() ExportDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	return ExportDocument{
		FixedExpenses:        slices.Clone(nonNil(s.fixed)),
		VariableExpenses:     slices.Clone(nonNil(s.variable)),
		CustomCategories:     slices.Clone(nonNil(s.categories)),
		CustomPaymentMethods: slices.Clone(nonNil(s.methods)),
		MonthlyPaymentStatus: s.ledger.Entries(),
		MonthlyHistory:       slices.Clone(nonNil(s.history)),
		Settings:             s.settings,
		ExportDate:           s.now(),
	}
}
