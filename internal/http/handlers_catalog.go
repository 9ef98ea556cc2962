package http

import (
	"net/http"
	"strings"

	"bilancio/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	cats := s.svc.Categories()
	if cats == nil {
		cats = []core.CustomCategory{}
	}
	NewJSONResponse().Body(cats).Write(w)
}

func (req categoryRequest) toCategory(id string) core.CustomCategory {
	return core.CustomCategory{
		ID:     id,
		Name:   strings.TrimSpace(req.Name),
		Budget: req.Budget,
		Color:  strings.TrimSpace(req.Color),
		Icon:   strings.TrimSpace(req.Icon),
	}
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	c, err := s.svc.AddCategory(r.Context(), req.toCategory(""))
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(c).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	c := req.toCategory(r.PathValue("id"))
	if err := s.svc.UpdateCategory(r.Context(), c); err != nil {
		ServiceError(err).Write(w)
		return
	}
	// The stored record may keep its previous color.
	for _, stored := range s.svc.Categories() {
		if stored.ID == c.ID {
			c = stored
			break
		}
	}
	NewJSONResponse().Body(c).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		ServiceError(err).Write(w)
		return
	}
	NoContent().Write(w)
}

// handleCategoryBudget reports budget, spent, remaining and progress of one
// category for the viewed month.
func (s *Server) handleCategoryBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	month := s.svc.CurrentMonth()
	c := s.svc.Calculator(month)

	known := false
	for _, cat := range s.svc.Categories() {
		if cat.ID == id {
			known = true
			break
		}
	}
	if !known {
		NotFoundError("category not found").Write(w)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"categoryId": id,
		"monthKey":   month,
		"budget":     c.Budget(id),
		"spent":      c.Spent(id),
		"remaining":  c.Remaining(id),
		"progress":   c.Progress(id),
	}).Write(w)
}

func (s *Server) handleCategoryShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	id := r.PathValue("id")
	if err := s.svc.SetCategoryBudgetShare(r.Context(), id, req.Share, req.Total); err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"categoryId": id, "budget": s.svc.CategoryBudget(id)}).Write(w)
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, _ *http.Request) {
	methods := s.svc.PaymentMethods()
	if methods == nil {
		methods = []core.CustomPaymentMethod{}
	}
	NewJSONResponse().Body(methods).Write(w)
}

func (req paymentMethodRequest) toPaymentMethod(id string) core.CustomPaymentMethod {
	return core.CustomPaymentMethod{
		ID:    id,
		Name:  strings.TrimSpace(req.Name),
		Color: strings.TrimSpace(req.Color),
		Icon:  strings.TrimSpace(req.Icon),
	}
}

func (s *Server) handleCreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	m, err := s.svc.AddPaymentMethod(r.Context(), req.toPaymentMethod(""))
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(m).Write(w)
}

func (s *Server) handleUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	m := req.toPaymentMethod(r.PathValue("id"))
	if err := s.svc.UpdatePaymentMethod(r.Context(), m); err != nil {
		ServiceError(err).Write(w)
		return
	}
	for _, stored := range s.svc.PaymentMethods() {
		if stored.ID == m.ID {
			m = stored
			break
		}
	}
	NewJSONResponse().Body(m).Write(w)
}

func (s *Server) handleDeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePaymentMethod(r.Context(), r.PathValue("id")); err != nil {
		ServiceError(err).Write(w)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handlePaymentMethodSpent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	known := false
	for _, m := range s.svc.PaymentMethods() {
		if m.ID == id {
			known = true
			break
		}
	}
	if !known {
		NotFoundError("payment method not found").Write(w)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"paymentMethodId": id,
		"monthKey":        s.svc.CurrentMonth(),
		"spent":           s.svc.PaymentMethodSpent(id),
	}).Write(w)
}
