package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Test"); got != "1" {
		t.Errorf("X-Test = %q", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"n":1}` {
		t.Errorf("Body = %q", got)
	}
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent().Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d with %d bytes", w.Code, w.Body.Len())
	}
}

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrLocked, http.StatusLocked},
		{fmt.Errorf("update x: %w", core.ErrNotFound), http.StatusNotFound},
		{core.ErrCategoryInUse, http.StatusConflict},
		{core.ErrPaymentMethodInUse, http.StatusConflict},
		{services.ErrAlreadyArchived, http.StatusConflict},
		{services.ErrResetDayNotReached, http.StatusConflict},
		{core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{fmt.Errorf("invalid due date: %w", core.ErrInvalidDate), http.StatusUnprocessableEntity},
		{core.ErrNotFixed, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			ServiceError(tt.err).Write(w)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestServiceErrorHidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	ServiceError(errors.New("sqlite: database is locked")).Write(w)
	if strings.Contains(w.Body.String(), "sqlite") {
		t.Errorf("internal error leaked: %s", w.Body.String())
	}
}
