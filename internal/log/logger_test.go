package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentRates, Output: &buf})
	logger.Info("refreshed", FieldRateCount, 3)

	out := buf.String()
	if !strings.Contains(out, "component=rates") || !strings.Contains(out, "rate_count=3") {
		t.Fatalf("unexpected log output: %s", out)
	}
	if logger.Component() != ComponentRates {
		t.Fatalf("expected component %q, got %q", ComponentRates, logger.Component())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", l)
	}
	want := Discard()
	if got := FromContext(NewContext(context.Background(), want)); got != want {
		t.Fatalf("expected logger from context")
	}
}

func TestAccessLogMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	h := Middleware(logger)(RequestIDMiddleware(
		AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))))

	req := httptest.NewRequest(http.MethodGet, "/api/rates?x=1", nil)
	req.Header.Set("X-Request-ID", "req_1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") != "req_1" {
		t.Fatalf("missing request id header")
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "status_code=418", "request_id=req_1", "path=/api/rates"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestRequestIDReplacesUnusableIDs(t *testing.T) {
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, supplied := range []string{"", "has space", strings.Repeat("x", 65)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if supplied != "" {
			req.Header.Set("X-Request-ID", supplied)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		got := rr.Header().Get("X-Request-ID")
		if got == "" || got == supplied {
			t.Errorf("supplied %q: got request id %q", supplied, got)
		}
	}
}

func TestAccessLogImplicitStatusAndFlush(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})

	var flushable bool
	h := Middleware(logger)(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, flushable = w.(http.Flusher)
		_, _ = w.Write([]byte("hello"))
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !flushable {
		t.Errorf("wrapped writer hides http.Flusher")
	}
	out := buf.String()
	for _, want := range []string{"level=INFO", "status_code=200", "bytes=5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != slog.LevelInfo || cfg.Component != ComponentApp || cfg.Output == nil {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
