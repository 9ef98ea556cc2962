package services

import (
	"context"
	"fmt"
	"slices"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// DefaultColors is the palette assigned to catalog entries created without a color.
var DefaultColors = []string{
	"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF",
	"#FF9F40", "#C9CBCF", "#7BC225", "#E7298A", "#1B9E77",
}

func defaultCategories(newID func() string) []core.CustomCategory {
	names := []string{"Monthly bills", "Groceries", "Leisure", "Fuel", "Other"}
	out := make([]core.CustomCategory, len(names))
	for i, name := range names {
		out[i] = core.CustomCategory{ID: newID(), Name: name, Color: DefaultColors[i%len(DefaultColors)]}
	}
	return out
}

func defaultPaymentMethods(newID func() string) []core.CustomPaymentMethod {
	names := []string{"PIX", "Card", "Cash", "Other"}
	out := make([]core.CustomPaymentMethod, len(names))
	for i, name := range names {
		out[i] = core.CustomPaymentMethod{ID: newID(), Name: name, Color: DefaultColors[i%len(DefaultColors)]}
	}
	return out
}

func nextColor(used int) string {
	return DefaultColors[used%len(DefaultColors)]
}

// AddCategory stores a new category with a generated id.
func (s *FinanceService) AddCategory(ctx context.Context, c core.CustomCategory) (core.CustomCategory, error) {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpCreate); err != nil {
		return core.CustomCategory{}, err
	}
	if err := c.Validate(); err != nil {
		return core.CustomCategory{}, err
	}
	c.ID = s.newID()
	if c.Color == "" {
		c.Color = nextColor(len(s.categories))
	}
	s.categories = append(s.categories, c)
	s.persistLocked(ctx, KeyCustomCategories)

	s.logger.InfoContext(ctx, "Category created", log.FieldCategory, c.ID, "name", c.Name, "budget_cents", c.Budget.Cents)
	return c, nil
}

// UpdateCategory replaces the category with the same id.
func (s *FinanceService) UpdateCategory(ctx context.Context, c core.CustomCategory) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpUpdate); err != nil {
		return err
	}
	i := slices.IndexFunc(s.categories, func(x core.CustomCategory) bool { return x.ID == c.ID })
	if i < 0 {
		return fmt.Errorf("update category %s: %w", c.ID, core.ErrNotFound)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Color == "" {
		c.Color = s.categories[i].Color
	}
	s.categories[i] = c
	s.persistLocked(ctx, KeyCustomCategories)

	s.logger.InfoContext(ctx, "Category updated", log.FieldCategory, c.ID, "budget_cents", c.Budget.Cents)
	return nil
}

// SetCategoryBudgetShare sets the category budget to share (0..1) of total.
func (s *FinanceService) SetCategoryBudgetShare(ctx context.Context, id string, share float64, total core.Money) error {
	budget, err := core.Share(total, share)
	if err != nil {
		return err
	}

	c, ok := s.categoryByID(id)
	if !ok {
		return fmt.Errorf("update category %s: %w", id, core.ErrNotFound)
	}

	c.Budget = budget
	return s.UpdateCategory(ctx, c)
}

func (s *FinanceService) categoryByID(id string) (core.CustomCategory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.mustLoaded()
	i := slices.IndexFunc(s.categories, func(x core.CustomCategory) bool { return x.ID == id })
	if i < 0 {
		return core.CustomCategory{}, false
	}
	return s.categories[i], true
}

// DeleteCategory removes the category. It is refused while any expense
// references it.
func (s *FinanceService) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpDelete); err != nil {
		return err
	}
	i := slices.IndexFunc(s.categories, func(x core.CustomCategory) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("delete category %s: %w", id, core.ErrNotFound)
	}
	if s.referencedLocked(func(e core.Expense) bool { return e.Category == id }) {
		s.logger.WarnContext(ctx, "Refusing to delete category in use", log.FieldCategory, id)
		return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryInUse)
	}
	s.categories = slices.Delete(s.categories, i, i+1)
	s.persistLocked(ctx, KeyCustomCategories)

	s.logger.InfoContext(ctx, "Category deleted", log.FieldCategory, id)
	return nil
}

// AddPaymentMethod stores a new payment method with a generated id.
func (s *FinanceService) AddPaymentMethod(ctx context.Context, m core.CustomPaymentMethod) (core.CustomPaymentMethod, error) {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpCreate); err != nil {
		return core.CustomPaymentMethod{}, err
	}
	if err := m.Validate(); err != nil {
		return core.CustomPaymentMethod{}, err
	}
	m.ID = s.newID()
	if m.Color == "" {
		m.Color = nextColor(len(s.methods))
	}
	s.methods = append(s.methods, m)
	s.persistLocked(ctx, KeyCustomPaymentMethods)

	s.logger.InfoContext(ctx, "Payment method created", log.FieldPaymentMethod, m.ID, "name", m.Name)
	return m, nil
}

// UpdatePaymentMethod replaces the payment method with the same id.
func (s *FinanceService) UpdatePaymentMethod(ctx context.Context, m core.CustomPaymentMethod) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpUpdate); err != nil {
		return err
	}
	i := slices.IndexFunc(s.methods, func(x core.CustomPaymentMethod) bool { return x.ID == m.ID })
	if i < 0 {
		return fmt.Errorf("update payment method %s: %w", m.ID, core.ErrNotFound)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Color == "" {
		m.Color = s.methods[i].Color
	}
	s.methods[i] = m
	s.persistLocked(ctx, KeyCustomPaymentMethods)

	s.logger.InfoContext(ctx, "Payment method updated", log.FieldPaymentMethod, m.ID)
	return nil
}

// DeletePaymentMethod removes the payment method. It is refused while any
// expense references it.
func (s *FinanceService) DeletePaymentMethod(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.flush(ctx)
	defer s.mu.Unlock()
	s.mustLoaded()

	s.checkRolloverLocked(ctx)

	if err := s.guardLocked(ctx, log.OpDelete); err != nil {
		return err
	}
	i := slices.IndexFunc(s.methods, func(x core.CustomPaymentMethod) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("delete payment method %s: %w", id, core.ErrNotFound)
	}
	if s.referencedLocked(func(e core.Expense) bool { return e.PaymentMethod == id }) {
		s.logger.WarnContext(ctx, "Refusing to delete payment method in use", log.FieldPaymentMethod, id)
		return fmt.Errorf("delete payment method %s: %w", id, core.ErrPaymentMethodInUse)
	}
	s.methods = slices.Delete(s.methods, i, i+1)
	s.persistLocked(ctx, KeyCustomPaymentMethods)

	s.logger.InfoContext(ctx, "Payment method deleted", log.FieldPaymentMethod, id)
	return nil
}

func (s *FinanceService) referencedLocked(match func(core.Expense) bool) bool {
	return slices.ContainsFunc(s.fixed, match) || slices.ContainsFunc(s.variable, match)
}
