package pool

import (
	"testing"

	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/worker"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := Config{PoolSize: 2, RotateThreshold: 3, StartingPort: 9100}
	return NewManager(cfg, logger.NewDefault("pool.test"), nil)
}

func healthyHandle(id string, port int) *worker.Handle {
	return &worker.Handle{
		ID:                id,
		Port:              port,
		BaseURL:           "http://127.0.0.1:0",
		State:             worker.StateHealthy,
		AcceptingRequests: true,
	}
}

func TestSelectWorker_RoundRobinAdvancesCursor(t *testing.T) {
	m := newTestManager(t)
	a, b := healthyHandle("a", 9100), healthyHandle("b", 9101)
	m.workers[a.ID] = a
	m.workers[b.ID] = b

	first, err := m.SelectWorker()
	if err != nil {
		t.Fatalf("SelectWorker() error = %v", err)
	}
	second, err := m.SelectWorker()
	if err != nil {
		t.Fatalf("SelectWorker() error = %v", err)
	}
	if first.ID == second.ID {
		t.Error("expected round-robin to alternate between workers")
	}
	third, err := m.SelectWorker()
	if err != nil {
		t.Fatalf("SelectWorker() error = %v", err)
	}
	if third.ID != first.ID {
		t.Error("expected round-robin to wrap back to the first worker")
	}
}

func TestSelectWorker_SkipsUnhealthyAndReplacing(t *testing.T) {
	m := newTestManager(t)
	healthy := healthyHandle("healthy", 9100)
	unhealthy := healthyHandle("unhealthy", 9101)
	unhealthy.State = worker.StateUnhealthy
	replacing := healthyHandle("replacing", 9102)
	replacing.Replacing = true

	for _, h := range []*worker.Handle{healthy, unhealthy, replacing} {
		m.workers[h.ID] = h
	}

	for i := 0; i < 5; i++ {
		got, err := m.SelectWorker()
		if err != nil {
			t.Fatalf("SelectWorker() error = %v", err)
		}
		if got.ID != "healthy" {
			t.Errorf("SelectWorker() = %q, want only healthy worker selected", got.ID)
		}
	}
}

func TestSelectWorker_NoneAvailableReturnsError(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.SelectWorker(); err == nil {
		t.Error("expected NoHealthyWorker error on empty registry")
	}
}
