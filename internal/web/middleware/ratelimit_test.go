package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestRateLimiter_PerClientBudget(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("expected the burst to be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("expected third request to be rejected")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("another client should have its own budget")
	}
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("10.0.0.1")

	now = now.Add(idleLimiterTTL / 2)
	rl.Allow("10.0.0.2")

	now = now.Add(idleLimiterTTL/2 + time.Second)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Error("expected idle client to be swept")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Error("expected recent client to be kept")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Stop()
	rl.Stop()
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Stop()
	logger, hook := test.NewNullLogger()
	handler := RateLimit(rl, logger)(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	handler.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", second.Code)
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error, got Content-Type %q", ct)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel || entry.Data["ip"] != "192.0.2.1" {
		t.Errorf("expected warning with client ip, got %+v", entry)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote   string
		expected string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.7", "192.0.2.7"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := clientIP(req); got != tt.expected {
			t.Errorf("clientIP(%q) = %q, want %q", tt.remote, got, tt.expected)
		}
	}
}
