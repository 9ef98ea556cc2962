package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/projection"
)

// occurrenceView is a projected fixed expense as returned by the API.
type occurrenceView struct {
	ID            string            `json:"id"`
	OriginID      string            `json:"originId"`
	MonthKey      core.MonthKey     `json:"monthKey"`
	Name          string            `json:"name"`
	Amount        core.Money        `json:"amount"`
	Category      string            `json:"category"`
	PaymentMethod string            `json:"paymentMethod"`
	DueDate       core.Date         `json:"dueDate"`
	IsPaid        bool              `json:"isPaid"`
	Status        projection.Status `json:"status"`
}

func (s *Server) newOccurrenceView(o core.Occurrence) occurrenceView {
	return occurrenceView{
		ID:            o.ID(),
		OriginID:      o.Ref.OriginID,
		MonthKey:      o.Ref.Month,
		Name:          o.Expense.Name,
		Amount:        o.Expense.Amount,
		Category:      o.Expense.Category,
		PaymentMethod: o.Expense.PaymentMethod,
		DueDate:       o.DueDate(),
		IsPaid:        o.IsPaid(),
		Status:        s.svc.ExpenseStatus(o.Expense),
	}
}

func (s *Server) handleListFixed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := ParseMonthParam(q, "month", s.svc.CurrentMonth())
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	field, order, err := ParseSortParams(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	occs := s.svc.ProjectFixedExpenses(month)
	projection.SortOccurrences(occs, field, order)

	views := make([]occurrenceView, 0, len(occs))
	for _, o := range occs {
		views = append(views, s.newOccurrenceView(o))
	}
	NewJSONResponse().Body(views).Write(w)
}

func (s *Server) handleCreateFixed(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := s.svc.AddFixed(r.Context(), req.toExpense("", true))
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(e).Write(w)
}

// handleUpdateFixed accepts an origin or occurrence id in the path and
// always updates the origin record.
func (s *Server) handleUpdateFixed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.svc.OriginID(r.PathValue("id"))
	if !ok {
		NotFoundError("fixed expense not found").Write(w)
		return
	}
	var req expenseRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e := req.toExpense(id, true)
	if err := s.svc.UpdateFixed(r.Context(), e); err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

func (s *Server) handleDeleteFixed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.svc.OriginID(r.PathValue("id"))
	if !ok {
		NotFoundError("fixed expense not found").Write(w)
		return
	}
	if err := s.svc.DeleteFixed(r.Context(), id); err != nil {
		ServiceError(err).Write(w)
		return
	}
	NoContent().Write(w)
}

// statusMonth picks the month of a status request: the explicit value, the
// month encoded in an occurrence id, or the viewed month.
func (s *Server) statusMonth(id, explicit string) (core.MonthKey, error) {
	if explicit != "" {
		return core.ParseMonthKey(explicit)
	}
	if ref, ok := core.ParseOccurrenceID(id); ok {
		return ref.Month, nil
	}
	return s.svc.CurrentMonth(), nil
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	month, err := s.statusMonth(id, r.URL.Query().Get("month"))
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	origin, ok := s.svc.OriginID(id)
	if !ok {
		NotFoundError("fixed expense not found").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"expenseId": origin,
		"monthKey":  month,
		"isPaid":    s.svc.GetStatus(origin, month),
	}).Write(w)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req statusRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	month, err := s.statusMonth(id, req.MonthKey)
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	if err := s.svc.SetExpensePaymentStatus(r.Context(), id, month, req.IsPaid); err != nil {
		ServiceError(err).Write(w)
		return
	}
	origin, _ := s.svc.OriginID(id)
	NewJSONResponse().Body(map[string]any{
		"expenseId": origin,
		"monthKey":  month,
		"isPaid":    req.IsPaid,
	}).Write(w)
}

func (s *Server) handleListVariable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	field, order, err := ParseSortParams(q)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var expenses []core.Expense
	if q.Get("month") == "all" {
		expenses = s.svc.VariableExpenses()
	} else {
		month, err := ParseMonthParam(q, "month", s.svc.CurrentMonth())
		if err != nil {
			ServiceError(err).Write(w)
			return
		}
		expenses = s.svc.VariableExpensesInMonth(month)
	}
	expenses = projection.FilterByName(expenses, q.Get("q"))
	projection.SortExpenses(expenses, field, order)

	if expenses == nil {
		expenses = []core.Expense{}
	}
	NewJSONResponse().Body(expenses).Write(w)
}

func (s *Server) handleCreateVariable(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := s.svc.AddVariable(r.Context(), req.toExpense("", false))
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(e).Write(w)
}

func (s *Server) handleUpdateVariable(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e := req.toExpense(r.PathValue("id"), false)
	if err := s.svc.UpdateVariable(r.Context(), e); err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Body(e).Write(w)
}

func (s *Server) handleDeleteVariable(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.DeleteVariable(r.Context(), id); err != nil {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Delete failed", log.FieldExpenseID, id, "error", err)
		ServiceError(err).Write(w)
		return
	}
	NoContent().Write(w)
}
