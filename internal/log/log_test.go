package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"it10bb/internal/core"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentEstimate, Output: &buf})

	logger.Info("estimate computed", FieldTotal, 600000)
	out := buf.String()
	if !strings.Contains(out, "component=estimate") {
		t.Fatalf("missing component in %q", out)
	}
	if !strings.Contains(out, "total=600000") {
		t.Fatalf("missing total in %q", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentHTTP).Warn("slow")
	if !strings.Contains(buf.String(), "component=http") {
		t.Fatalf("WithComponent not applied: %q", buf.String())
	}
}

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

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithProfile(core.Profile{TotalExpense: 10.6, Location: "dhaka", FamilySize: 4, Mode: "weird"}).
		WithOperation(OpEstimate).
		WithError(errors.New("boom")).
		WithError(nil)

	if f[FieldTotal] != int64(11) || f[FieldMode] != "balanced" || f[FieldError] != "boom" {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Fatalf("ToSlice length mismatch")
	}
}

func TestCLIHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewCLIHandler(&buf, slog.LevelInfo, false))

	logger.Debug("hidden")
	logger.With("queue", "estimate_requests").Info("published", FieldComponent, "amqp", "id", 7)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %q", out)
	}
	if strings.TrimSpace(out) != "published: queue=estimate_requests id=7" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("logger not propagated: %+v", got)
	}
	got.Info("hello")
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("request id missing: %q", buf.String())
	}

	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}
