package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		Component: ComponentStore,
	})
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.Info("Expense created", FieldExpenseID, "abc")
	out := buf.String()
	if !strings.Contains(out, "component=store") || !strings.Contains(out, "expense_id=abc") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentArchiver).Info("Month archived")
	out = buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=archiver") {
		t.Fatalf("component should be replaced, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf).WithComponent(ComponentHTTP)

	var seenID string
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/fixed?month=2024-02", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seenID == "" || rec.Header().Get(RequestIDHeader) != seenID {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seenID, rec.Header().Get(RequestIDHeader))
	}
	out := buf.String()
	for _, want := range []string{"inside handler", "request_id=" + seenID, "status_code=404", "level=WARN", "client_ip=10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	h := RequestLogger(Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("request id = %q, want req-123", got)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4321"
	if got := ClientIP(req); got != "192.168.1.5" {
		t.Errorf("ClientIP = %q", got)
	}
	req.Header.Set("X-Real-IP", "172.16.0.9")
	if got := ClientIP(req); got != "172.16.0.9" {
		t.Errorf("ClientIP = %q", got)
	}
}
