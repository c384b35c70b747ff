package pool

import (
	"context"

	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/worker"
)

// replaceWorker retires h and spawns its successor on the same port. The
// old handle is removed from the registry immediately, freeing its id, but
// the old OS process is left running until the replacement spawn resolves
// (success or failure) so a fast-failing replacement doesn't gratuitously
// reduce capacity. This means a port can briefly have two live processes:
// the old one still serving, and the new one starting up.
//
// h.Replacing must already be true when this is called; it is the guard
// against a worker being replaced twice concurrently (once by the Health
// Sweep, once by a rotation trigger racing it).
func (m *Manager) replaceWorker(ctx context.Context, h *worker.Handle, reason string, graceful bool) {
	port := h.Port
	m.log.Info("replacing worker", logger.Fields(
		logger.FieldWorkerID, h.ID,
		logger.FieldPort, port,
		"reason", reason,
	))

	m.mu.Lock()
	h.State = worker.StateUnhealthy
	h.AcceptingRequests = false
	delete(m.workers, h.ID)
	if m.byPort[port] == h.ID {
		delete(m.byPort, port)
	}
	m.mu.Unlock()

	m.rec.IncReplacement(reason)

	if _, err := m.spawnWorker(ctx, port); err != nil {
		m.log.Error("replacement spawn failed", logger.Fields(
			logger.FieldPort, port,
			logger.FieldError, err.Error(),
			"reason", reason,
		))
	}

	m.driver.Terminate(h, graceful)
}

// triggerReplace marks h as replacing (if not already) and launches
// replaceWorker in the background. It returns false if h was already
// being replaced, so callers don't double-fire.
func (m *Manager) triggerReplace(ctx context.Context, h *worker.Handle, reason string, graceful bool) bool {
	m.mu.Lock()
	if h.Replacing {
		m.mu.Unlock()
		return false
	}
	h.Replacing = true
	h.AcceptingRequests = false
	m.mu.Unlock()

	go m.replaceWorker(ctx, h, reason, graceful)
	return true
}
