package pool

import (
	"context"
	"testing"

	"github.com/kbukum/whisperpool/worker"
)

func TestInit_MissingCommandReturnsConfigMissing(t *testing.T) {
	m := newTestManager(t)
	if err := m.Init(context.Background()); err == nil {
		t.Error("expected ConfigMissing error for empty child command")
	}
}

func TestTriggerReplace_OnlyFiresOnce(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	m.workers[h.ID] = h

	first := m.triggerReplace(context.Background(), h, "test", false)
	second := m.triggerReplace(context.Background(), h, "test", false)

	if !first {
		t.Error("expected first triggerReplace call to fire")
	}
	if second {
		t.Error("expected second triggerReplace call to be suppressed by Replacing guard")
	}
}

func TestMaybeRotate_MarksReplacingAtThreshold(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.RequestCount = m.cfg.RotateThreshold
	m.workers[h.ID] = h

	m.maybeRotate(context.Background(), h)

	if !h.Replacing {
		t.Error("expected Replacing to be set once RotateThreshold is reached")
	}
	if h.AcceptingRequests {
		t.Error("expected AcceptingRequests to be cleared immediately on rotation")
	}
}

func TestMaybeRotate_NoOpBelowThreshold(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.RequestCount = m.cfg.RotateThreshold - 1
	m.workers[h.ID] = h

	m.maybeRotate(context.Background(), h)

	if h.Replacing {
		t.Error("expected no rotation below RotateThreshold")
	}
	if !h.AcceptingRequests {
		t.Error("expected AcceptingRequests untouched below threshold")
	}
}

func TestDispose_IsIdempotent(t *testing.T) {
	m := newTestManager(t)
	m.workers["w1"] = healthyHandle("w1", 9100)

	m.Dispose()
	m.Dispose() // must not panic or double-terminate
}

func TestSnapshot_CountsHealthyWorkers(t *testing.T) {
	m := newTestManager(t)
	m.workers["a"] = healthyHandle("a", 9100)
	unhealthy := healthyHandle("b", 9101)
	unhealthy.State = worker.StateUnhealthy
	m.workers["b"] = unhealthy

	snap := m.Snapshot()
	if snap.TotalWorkers != 2 {
		t.Errorf("TotalWorkers = %d, want 2", snap.TotalWorkers)
	}
	if snap.HealthyWorkers != 1 {
		t.Errorf("HealthyWorkers = %d, want 1", snap.HealthyWorkers)
	}
}
