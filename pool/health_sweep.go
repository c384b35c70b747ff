package pool

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/worker"
)

// healthSweepLoop runs the Health Sweep on its own ticker until ctx is
// canceled. Each tick probes every registered worker concurrently and
// fires replacement for any worker that crosses HealthMaxFailures
// consecutive failures.
func (m *Manager) healthSweepLoop(ctx context.Context) {
	defer m.sweepWG.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runHealthSweep(ctx)
		}
	}
}

func (m *Manager) runHealthSweep(ctx context.Context) {
	m.mu.Lock()
	targets := make([]*worker.Handle, 0, len(m.workers))
	for _, h := range m.workers {
		if h.State != worker.StateStopped && !h.Replacing {
			targets = append(targets, h)
		}
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	healthy := 0
	var healthyMu sync.Mutex
	for _, h := range targets {
		wg.Add(1)
		go func(h *worker.Handle) {
			defer wg.Done()
			ok := m.prober.Probe(ctx, h, false)
			if ok {
				healthyMu.Lock()
				healthy++
				healthyMu.Unlock()
			}
			m.recordProbeResult(ctx, h, ok)
		}(h)
	}
	wg.Wait()

	m.rec.SetPoolSize(len(targets))
	m.rec.SetHealthyWorkers(healthy)
}

// recordProbeResult updates a worker's consecutive-failure count in
// response to a single probe outcome and triggers replacement once the
// threshold is reached.
func (m *Manager) recordProbeResult(ctx context.Context, h *worker.Handle, ok bool) {
	m.mu.Lock()
	if ok {
		h.ConsecutiveFailures = 0
		h.State = worker.StateHealthy
		h.LastHealthyAt = time.Now()
		m.mu.Unlock()
		return
	}

	h.ConsecutiveFailures++
	failures := h.ConsecutiveFailures
	m.mu.Unlock()

	if failures == HealthMaxFailures-1 {
		m.log.Warn("worker approaching health failure threshold", logger.Fields(
			logger.FieldWorkerID, h.ID,
			logger.FieldPort, h.Port,
			logger.FieldAttempt, failures,
		))
	}
	if failures >= HealthMaxFailures {
		m.triggerReplace(ctx, h, "health", false)
	}
}
