// Package budget aggregates a month's spending per category and per payment
// method and compares it with the category budgets.
package budget

import (
	"sort"

	"bilancio/internal/core"
)

// Calculator answers budget queries for one month. It is built from the
// month's projected fixed occurrences, the variable expenses and the category
// catalog; it never mutates them.
type Calculator struct {
	month      core.MonthKey
	categories []core.CustomCategory
	byCategory map[string]core.Money
	byMethod   map[string]core.Money
	total      core.Money
}

// NewCalculator builds a calculator for month. Only paid occurrences count as
// spent. Variable expenses dated outside month are ignored, so callers may pass
// the whole collection.
func NewCalculator(month core.MonthKey, occurrences []core.Occurrence, variable []core.Expense, categories []core.CustomCategory) *Calculator {
	c := &Calculator{
		month:      month,
		categories: categories,
		byCategory: make(map[string]core.Money),
		byMethod:   make(map[string]core.Money),
	}
	for _, o := range occurrences {
		if !o.IsPaid() {
			continue
		}
		c.add(o.Expense)
	}
	for _, e := range variable {
		if !month.Contains(e.Date) {
			continue
		}
		c.add(e)
	}
	return c
}

func (c *Calculator) add(e core.Expense) {
	c.byCategory[e.Category] = c.byCategory[e.Category].Add(e.Amount)
	c.byMethod[e.PaymentMethod] = c.byMethod[e.PaymentMethod].Add(e.Amount)
	c.total = c.total.Add(e.Amount)
}

// Month is the month the calculator was built for.
func (c *Calculator) Month() core.MonthKey { return c.month }

// Budget returns the budget of the category, or zero when it is unknown.
func (c *Calculator) Budget(categoryID string) core.Money {
	for _, cat := range c.categories {
		if cat.ID == categoryID {
			return cat.Budget
		}
	}
	return core.Money{}
}

// Spent is the paid fixed plus variable spending of the category.
func (c *Calculator) Spent(categoryID string) core.Money {
	return c.byCategory[categoryID]
}

// Remaining is budget minus spent. It goes negative when overspent.
func (c *Calculator) Remaining(categoryID string) core.Money {
	return c.Budget(categoryID).Sub(c.Spent(categoryID))
}

// Progress is spent as a percentage of budget, 0 when the budget is zero.
// Values above 100 mean the category is over budget.
func (c *Calculator) Progress(categoryID string) float64 {
	return core.Percent(c.Spent(categoryID), c.Budget(categoryID))
}

// SpentByPaymentMethod sums the month's spending paid with the method.
func (c *Calculator) SpentByPaymentMethod(methodID string) core.Money {
	return c.byMethod[methodID]
}

// TotalBudget is the sum of every category budget.
func (c *Calculator) TotalBudget() core.Money {
	return TotalBudget(c.categories)
}

// TotalSpent is the month's paid fixed plus variable spending.
func (c *Calculator) TotalSpent() core.Money { return c.total }

// TotalBudget sums the budgets of categories.
func TotalBudget(categories []core.CustomCategory) core.Money {
	var total core.Money
	for _, cat := range categories {
		total = total.Add(cat.Budget)
	}
	return total
}

// CategoryLine is one row of the per-category breakdown.
type CategoryLine struct {
	CategoryID string     `json:"categoryId"`
	Name       string     `json:"name"`
	Color      string     `json:"color"`
	Budget     core.Money `json:"budget"`
	Spent      core.Money `json:"spent"`
	Remaining  core.Money `json:"remaining"`
	Progress   float64    `json:"progress"`
}

// MethodLine is one row of the per-payment-method breakdown.
type MethodLine struct {
	PaymentMethodID string     `json:"paymentMethodId"`
	Spent           core.Money `json:"spent"`
}

// Summary is the month overview shown on the dashboard.
type Summary struct {
	MonthKey       core.MonthKey  `json:"monthKey"`
	TotalBudget    core.Money     `json:"totalBudget"`
	TotalSpent     core.Money     `json:"totalSpent"`
	TotalRemaining core.Money     `json:"totalRemaining"`
	Progress       float64        `json:"progress"`
	Categories     []CategoryLine `json:"categories"`
	PaymentMethods []MethodLine   `json:"paymentMethods"`
	Uncategorized  core.Money     `json:"uncategorized"`
	PaidFixedCount int            `json:"paidFixedCount"`
	FixedCount     int            `json:"fixedCount"`
	VariableCount  int            `json:"variableCount"`
}

// Summarize builds the month overview. Categories follow catalog order;
// payment methods are sorted by spending, highest first. Spending recorded
// under a category id missing from the catalog is reported as Uncategorized.
func Summarize(month core.MonthKey, occurrences []core.Occurrence, variable []core.Expense, categories []core.CustomCategory) Summary {
	c := NewCalculator(month, occurrences, variable, categories)
	s := Summary{
		MonthKey:    month,
		TotalBudget: c.TotalBudget(),
		TotalSpent:  c.TotalSpent(),
		FixedCount:  len(occurrences),
	}
	s.TotalRemaining = s.TotalBudget.Sub(s.TotalSpent)
	s.Progress = core.Percent(s.TotalSpent, s.TotalBudget)

	known := make(map[string]bool, len(categories))
	s.Categories = make([]CategoryLine, 0, len(categories))
	for _, cat := range categories {
		known[cat.ID] = true
		s.Categories = append(s.Categories, CategoryLine{
			CategoryID: cat.ID,
			Name:       cat.Name,
			Color:      cat.Color,
			Budget:     cat.Budget,
			Spent:      c.Spent(cat.ID),
			Remaining:  c.Remaining(cat.ID),
			Progress:   c.Progress(cat.ID),
		})
	}
	for id, spent := range c.byCategory {
		if !known[id] {
			s.Uncategorized = s.Uncategorized.Add(spent)
		}
	}

	s.PaymentMethods = make([]MethodLine, 0, len(c.byMethod))
	for id, spent := range c.byMethod {
		s.PaymentMethods = append(s.PaymentMethods, MethodLine{PaymentMethodID: id, Spent: spent})
	}
	sort.Slice(s.PaymentMethods, func(i, j int) bool {
		a, b := s.PaymentMethods[i], s.PaymentMethods[j]
		if a.Spent.Cents != b.Spent.Cents {
			return a.Spent.Cents > b.Spent.Cents
		}
		return a.PaymentMethodID < b.PaymentMethodID
	})

	for _, o := range occurrences {
		if o.IsPaid() {
			s.PaidFixedCount++
		}
	}
	for _, e := range variable {
		if month.Contains(e.Date) {
			s.VariableCount++
		}
	}
	return s
}
