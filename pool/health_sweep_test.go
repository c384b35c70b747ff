package pool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/whisperpool/worker"
)

func TestRunHealthSweep_MarksHealthyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.BaseURL = srv.URL
	h.State = worker.StateUnhealthy
	m.workers[h.ID] = h

	m.runHealthSweep(context.Background())

	if h.State != worker.StateHealthy {
		t.Errorf("State = %v, want StateHealthy", h.State)
	}
	if h.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0", h.ConsecutiveFailures)
	}
}

func TestRecordProbeResult_TriggersReplaceAtThreshold(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.ConsecutiveFailures = HealthMaxFailures - 1
	m.workers[h.ID] = h

	m.recordProbeResult(context.Background(), h, false)

	if h.ConsecutiveFailures != HealthMaxFailures {
		t.Errorf("ConsecutiveFailures = %d, want %d", h.ConsecutiveFailures, HealthMaxFailures)
	}
	if !h.Replacing {
		t.Error("expected replacement to be triggered at HealthMaxFailures")
	}
}

func TestRecordProbeResult_BelowThresholdDoesNotReplace(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	m.workers[h.ID] = h

	m.recordProbeResult(context.Background(), h, false)

	if h.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", h.ConsecutiveFailures)
	}
	if h.Replacing {
		t.Error("expected no replacement below HealthMaxFailures")
	}
	if h.State != worker.StateHealthy {
		t.Errorf("State = %v, want StateHealthy: a single failed probe below threshold must not pull a worker out of rotation", h.State)
	}
}

func TestRecordProbeResult_SuccessResetsFailures(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.ConsecutiveFailures = 2
	m.workers[h.ID] = h

	m.recordProbeResult(context.Background(), h, true)

	if h.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0 after a successful probe", h.ConsecutiveFailures)
	}
}
