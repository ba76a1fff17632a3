package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterPool_EvictsIdleClients(t *testing.T) {
	pool := newLimiterPool(10, 10)
	t0 := time.Now()

	pool.get("10.0.0.1", t0)
	pool.get("10.0.0.2", t0.Add(limiterIdleTTL/2))
	if pool.len() != 2 {
		t.Fatalf("len = %d, want 2", pool.len())
	}

	// The sweep at t0+TTL drops the client unseen since t0 and keeps
	// the one seen at t0+TTL/2.
	pool.get("10.0.0.3", t0.Add(limiterIdleTTL))
	if pool.len() != 2 {
		t.Fatalf("len = %d, want 2 after first sweep", pool.len())
	}

	// By t0+2TTL both older clients have gone idle.
	pool.get("10.0.0.3", t0.Add(2*limiterIdleTTL))
	if pool.len() != 1 {
		t.Errorf("len = %d, want 1 after idle sweep", pool.len())
	}
}

func TestLimiterPool_RepeatUseKeepsClientAlive(t *testing.T) {
	pool := newLimiterPool(10, 10)
	t0 := time.Now()

	for i := 0; i < 5; i++ {
		pool.get("10.0.0.1", t0.Add(time.Duration(i)*limiterIdleTTL/2))
	}
	if pool.len() != 1 {
		t.Errorf("len = %d, want the active client retained", pool.len())
	}
}

func TestRateLimit_RejectsBurstOverflow(t *testing.T) {
	handler := rateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("within burst: statuses = %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("over burst: status = %d, want 429", statuses[2])
	}

	// A different client has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.2:4000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh client: status = %d, want 200", rec.Code)
	}
}
