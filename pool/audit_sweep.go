package pool

import (
	"context"
	"time"

	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/worker"
)

// auditSweepLoop runs the Audit Sweep on its own ticker until ctx is
// canceled. Unlike the Health Sweep, which reacts to probe failures on
// live processes, the Audit Sweep reaps processes that have exited
// outright and recovers the pool if it has emptied entirely.
func (m *Manager) auditSweepLoop(ctx context.Context) {
	defer m.sweepWG.Done()

	ticker := time.NewTicker(AuditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runAuditSweep(ctx)
		}
	}
}

func (m *Manager) runAuditSweep(ctx context.Context) {
	m.mu.Lock()
	dead := make([]*worker.Handle, 0)
	for _, h := range m.workers {
		if !h.Alive() && !h.Replacing {
			dead = append(dead, h)
		}
	}
	registrySize := len(m.workers)
	m.mu.Unlock()

	for _, h := range dead {
		m.log.Warn("audit sweep found dead worker process", logger.Fields(
			logger.FieldWorkerID, h.ID,
			logger.FieldPort, h.Port,
		))
		// Dead processes are respawned directly by the audit sweep, not
		// routed through triggerReplace: there is no live process left to
		// drain or terminate, and the health sweep must not also fire a
		// replacement for the same handle.
		m.mu.Lock()
		h.Replacing = true
		m.mu.Unlock()
		go m.replaceWorker(ctx, h, "dead-process", false)
	}

	if registrySize == 0 {
		m.log.Error("pool registry empty, recovering", logger.Fields(logger.FieldOperation, "recover_pool"))
		m.recoverPool(ctx)
		return
	}

	m.mu.Lock()
	healthy := 0
	for _, h := range m.workers {
		if h.State == worker.StateHealthy {
			healthy++
		}
	}
	m.mu.Unlock()

	if healthy < m.cfg.PoolSize/2 {
		m.log.Warn("pool below low watermark", logger.Fields(
			"healthy", healthy,
			"configured", m.cfg.PoolSize,
		))
	}
}

// recoverPool re-spawns the entire configured port range. It is invoked
// when the Audit Sweep finds the registry empty, which can happen if every
// worker died between sweeps and the health sweep never observed them
// alive to react.
func (m *Manager) recoverPool(ctx context.Context) {
	for _, port := range m.cfg.portRange() {
		if _, err := m.spawnWorker(ctx, port); err != nil {
			m.log.Error("pool recovery spawn failed", logger.Fields(
				logger.FieldPort, port,
				logger.FieldError, err.Error(),
			))
		}
	}
}
