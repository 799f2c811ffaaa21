package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"promptvault/internal/config"
)

func testLimiter(rps, burst int) *RateLimiter {
	rl := NewRateLimiter(config.ServerConfig{RateLimitRPS: rps, RateLimitBurst: burst})
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }
	return rl
}

func TestAllowSpendsBurst(t *testing.T) {
	rl := testLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("request over burst was allowed")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	rl := testLimiter(2, 2)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	now := base
	rl.now = func() time.Time { return now }

	rl.allow("c")
	rl.allow("c")
	if rl.allow("c") {
		t.Fatal("empty bucket allowed a request")
	}

	now = base.Add(time.Second) // 2 rps refills 2 tokens
	if !rl.allow("c") {
		t.Fatal("bucket did not refill")
	}
	if !rl.allow("c") {
		t.Fatal("second refilled token missing")
	}
	if rl.allow("c") {
		t.Fatal("refill exceeded the elapsed budget")
	}
}

func TestAllowIsolatesClients(t *testing.T) {
	rl := testLimiter(1, 1)

	if !rl.allow("a") {
		t.Fatal("first client denied")
	}
	if !rl.allow("b") {
		t.Fatal("second client throttled by first client's spend")
	}
	if rl.allow("a") {
		t.Fatal("exhausted client allowed")
	}
}

func TestLimitRejectsWith429(t *testing.T) {
	rl := testLimiter(1, 1)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prompts", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("throttled request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("missing Retry-After header")
	}
}
