package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

func (s *Server) monthBody() map[string]any {
	m := s.svc.CurrentMonth()
	return map[string]any{"monthKey": m, "lastDay": m.LastDay()}
}

func (s *Server) handleGetMonth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(s.monthBody()).Write(w)
}

func (s *Server) handleSetMonth(w http.ResponseWriter, r *http.Request) {
	var req monthRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	month, err := core.ParseMonthKey(req.MonthKey)
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	if err := s.svc.SetCurrentMonth(r.Context(), month); err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Body(s.monthBody()).Write(w)
}

func (s *Server) handleNavigateMonth(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	dir, err := services.ParseDirection(req.Direction)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if _, err := s.svc.NavigateMonth(r.Context(), dir); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Body(s.monthBody()).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query(), "month", s.svc.CurrentMonth())
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Body(s.svc.Summary(month)).Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	history := s.svc.History()
	if history == nil {
		history = []core.MonthlyData{}
	}
	NewJSONResponse().Body(history).Write(w)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonthKey(r.PathValue("month"))
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	snap, ok := s.svc.Snapshot(month)
	if !ok {
		NotFoundError("no snapshot for " + month.String()).Write(w)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

// handleRollover archives the current month. ?force=true skips the reset-day
// check; a month is never archived twice.
func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	force, err := ParseBoolParam(r.URL.Query(), "force")
	if err != nil {
		BadRequestError("invalid force parameter").Write(w)
		return
	}
	snap, err := s.svc.Archive(r.Context(), force)
	if err != nil {
		ServiceError(err).Write(w)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Month archived on request",
		log.FieldMonthKey, snap.MonthKey.String(), "force", force)
	NewJSONResponse().Status(http.StatusCreated).Body(snap).Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(s.svc.Settings()).Write(w)
}

func (s *Server) handleSetResetDay(w http.ResponseWriter, r *http.Request) {
	var req resetDayRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.SetResetDay(r.Context(), req.ResetDay); err != nil {
		ServiceError(err).Write(w)
		return
	}
	NewJSONResponse().Body(s.svc.Settings()).Write(w)
}

func (s *Server) handleToggleLock(w http.ResponseWriter, r *http.Request) {
	s.svc.ToggleLock(r.Context())
	NewJSONResponse().Body(s.svc.Settings()).Write(w)
}

func (s *Server) handleToggleSync(w http.ResponseWriter, r *http.Request) {
	s.svc.ToggleSync(r.Context())
	NewJSONResponse().Body(s.svc.Settings()).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc := s.svc.Export()
	log.FromContext(r.Context()).InfoContext(r.Context(), "State exported", log.FieldOperation, log.OpExport)
	NewJSONResponse().
		Header("Content-Disposition", `attachment; filename="bilancio-export-`+doc.ExportDate.Format("2006-01-02")+`.json"`).
		Body(doc).
		Write(w)
}
