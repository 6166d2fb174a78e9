package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHandler(t *testing.T, max int) Handler {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return Handler{
		Limiter: Limiter{Client: client, Prefix: "kasir:rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "10.0.0.1" },
			Window: time.Minute,
			Max:    max,
		},
	}
}

func TestMiddlewareSetsBudgetHeaders(t *testing.T) {
	h := newTestHandler(t, 5)
	next := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Fatalf("unexpected limit header: %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "4" {
		t.Fatalf("unexpected remaining header: %q", got)
	}
}

func TestMiddlewareRejectsOverBudget(t *testing.T) {
	h := newTestHandler(t, 1)
	next := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	next.ServeHTTP(first, httptest.NewRequest(http.MethodPut, "/api/v1/settings/tax", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	next.ServeHTTP(second, httptest.NewRequest(http.MethodPut, "/api/v1/settings/tax", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "RATE_LIMITED" {
		t.Fatalf("unexpected error code: %q", body.Error.Code)
	}
}

func TestMiddlewareFailsOpenOnLimiterError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer func() { _ = client.Close() }()

	var reported error
	h := Handler{
		Limiter: Limiter{Client: client, Prefix: "kasir:rl:"},
		Config: Config{
			Key:    func(*http.Request) string { return "10.0.0.1" },
			Window: time.Minute,
			Max:    1,
		},
		OnError: func(err error) { reported = err },
	}

	rec := httptest.NewRecorder()
	h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200, got %d", rec.Code)
	}
	if reported == nil {
		t.Fatal("expected limiter error to be reported")
	}
}
