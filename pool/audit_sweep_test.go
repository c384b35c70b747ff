package pool

import (
	"context"
	"testing"
)

func TestRunAuditSweep_DeadWorkerMarkedReplacing(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100) // proc is nil, so Alive() reports false
	m.workers[h.ID] = h

	m.runAuditSweep(context.Background())

	if !h.Replacing {
		t.Error("expected audit sweep to mark a dead worker as Replacing")
	}
}

func TestRunAuditSweep_SkipsWorkersAlreadyReplacing(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.Replacing = true
	m.workers[h.ID] = h

	// Must not panic or double-fire replacement for a worker already
	// mid-replacement.
	m.runAuditSweep(context.Background())
}

func TestRunAuditSweep_EmptyRegistryRecovers(t *testing.T) {
	m := newTestManager(t)

	// With an empty registry the audit sweep calls recoverPool, which will
	// fail to spawn (no configured command) but must not panic.
	m.runAuditSweep(context.Background())

	if len(m.workers) != 0 {
		t.Errorf("expected registry to remain empty when spawning is unconfigured, got %d", len(m.workers))
	}
}
