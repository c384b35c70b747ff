// Package pool implements the worker pool manager: it spawns and
// supervises a fixed-size pool of whisper-server child processes, keeps
// them healthy, rotates them under load, and proxies transcription
// requests to whichever worker is selected next.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	poolerrors "github.com/kbukum/whisperpool/errors"
	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/worker"
)

// Manager owns the pool's registry and every background sweep that keeps
// it healthy. All mutable state under mu; worker.Handle fields are only
// ever mutated while holding mu, even though Handle itself has no lock.
type Manager struct {
	cfg    Config
	driver *worker.Driver
	prober *worker.Prober
	log    *logger.Logger
	rec    Recorder

	mu       sync.Mutex
	workers  map[string]*worker.Handle // keyed by Handle.ID
	byPort   map[int]string            // port -> Handle.ID, enforces port uniqueness
	backoffs map[int]*backoffRecord    // port -> backoff state
	cursor   int                       // round-robin index into selectable() order

	stopSweeps context.CancelFunc
	sweepWG    sync.WaitGroup
	disposed   bool
	initOnce   sync.Once
}

// NewManager builds a Manager. rec may be nil, in which case metrics are
// discarded.
func NewManager(cfg Config, log *logger.Logger, rec Recorder) *Manager {
	cfg.ApplyDefaults()
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Manager{
		cfg:      cfg,
		driver:   worker.NewDriver(cfg.Worker, log.Named("driver")),
		prober:   worker.NewProber(log.Named("prober")),
		log:      log.Named("pool"),
		rec:      rec,
		workers:  make(map[string]*worker.Handle),
		byPort:   make(map[int]string),
		backoffs: make(map[int]*backoffRecord),
	}
}

// Init spawns the initial pool and starts the Health and Audit sweeps. It
// is safe to call at most once; subsequent calls are no-ops.
func (m *Manager) Init(ctx context.Context) error {
	if m.cfg.Worker.Command == "" {
		return poolerrors.ConfigMissing()
	}

	var initErr error
	m.initOnce.Do(func() {
		for _, port := range m.cfg.portRange() {
			if _, err := m.spawnWorker(ctx, port); err != nil {
				m.log.Warn("initial spawn failed", logger.Fields(
					logger.FieldPort, port,
					logger.FieldError, err.Error(),
				))
				// Initial spawn failures are not fatal: the Audit Sweep
				// will keep retrying dead/missing ports.
			}
		}

		sweepCtx, cancel := context.WithCancel(context.Background())
		m.stopSweeps = cancel
		m.sweepWG.Add(2)
		go m.healthSweepLoop(sweepCtx)
		go m.auditSweepLoop(sweepCtx)
	})
	return initErr
}

// spawnWorker spawns a worker on port, respecting any active backoff, and
// blocks until it reports healthy or StartupTimeout elapses. A startup
// timeout counts as a spawn failure: the backoff record is incremented,
// the handle is deregistered, and the child is killed. Backoff is only
// cleared once the worker actually reaches Healthy.
func (m *Manager) spawnWorker(ctx context.Context, port int) (*worker.Handle, error) {
	m.mu.Lock()
	b := m.backoffs[port]
	if b == nil {
		b = &backoffRecord{}
		m.backoffs[port] = b
	}
	if until := b.blockedUntil(); time.Now().Before(until) {
		m.mu.Unlock()
		return nil, fmt.Errorf("port %d in backoff until %s", port, until.Format(time.RFC3339))
	}
	b.lastAttempt = time.Now()
	m.mu.Unlock()

	h, err := m.driver.Spawn(port)
	if err != nil {
		m.mu.Lock()
		b.count++
		m.mu.Unlock()
		m.rec.IncSpawnAttempt(port, false)
		return nil, err
	}

	m.mu.Lock()
	m.workers[h.ID] = h
	m.byPort[port] = h.ID
	m.mu.Unlock()
	m.rec.IncSpawnAttempt(port, true)

	if !m.waitForHealthy(ctx, h) {
		m.mu.Lock()
		b.count++
		delete(m.workers, h.ID)
		if m.byPort[port] == h.ID {
			delete(m.byPort, port)
		}
		m.mu.Unlock()
		m.driver.Terminate(h, false)
		return nil, poolerrors.StartupTimeout(port)
	}

	m.mu.Lock()
	b.count = 0
	m.mu.Unlock()
	return h, nil
}

// waitForHealthy polls the worker's health endpoint until it answers
// healthy or StartupTimeout elapses, and reports which happened first. On
// success the worker is flipped to StateHealthy and begins accepting
// requests.
func (m *Manager) waitForHealthy(ctx context.Context, h *worker.Handle) bool {
	deadline := time.Now().Add(StartupTimeout)
	ticker := time.NewTicker(startupPollInterval)
	defer ticker.Stop()

	for {
		if m.prober.Probe(ctx, h, true) {
			m.mu.Lock()
			h.State = worker.StateHealthy
			h.AcceptingRequests = true
			h.LastHealthyAt = time.Now()
			m.mu.Unlock()
			m.log.Info("worker healthy", logger.Fields(logger.FieldWorkerID, h.ID, logger.FieldPort, h.Port))
			return true
		}
		if time.Now().After(deadline) {
			m.log.Warn("worker failed to become healthy before timeout", logger.Fields(
				logger.FieldWorkerID, h.ID, logger.FieldPort, h.Port,
			))
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Status is a point-in-time snapshot of the pool's registry, safe to
// serialize directly for the outer HTTP surface.
type Status struct {
	TotalWorkers   int             `json:"total_workers"`
	HealthyWorkers int             `json:"healthy_workers"`
	Workers        []WorkerSummary `json:"workers"`
}

// WorkerSummary is the externally visible view of a single worker.
type WorkerSummary struct {
	ID                  string `json:"id"`
	Port                int    `json:"port"`
	State               string `json:"state"`
	RequestCount        int    `json:"request_count"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	AcceptingRequests   bool   `json:"accepting_requests"`
	UptimeMs            int64  `json:"uptime_ms"`
}

// Snapshot returns the current state of the pool for status reporting.
func (m *Manager) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{TotalWorkers: len(m.workers)}
	for _, h := range m.workers {
		if h.State == worker.StateHealthy {
			st.HealthyWorkers++
		}
		st.Workers = append(st.Workers, WorkerSummary{
			ID:                  h.ID,
			Port:                h.Port,
			State:               h.State.String(),
			RequestCount:        h.RequestCount,
			ConsecutiveFailures: h.ConsecutiveFailures,
			AcceptingRequests:   h.AcceptingRequests,
			UptimeMs:            h.Uptime().Milliseconds(),
		})
	}
	return st
}

// Dispose stops both sweeps and terminates every worker gracefully. It is
// idempotent: calling it more than once has no additional effect.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	stop := m.stopSweeps
	handles := make([]*worker.Handle, 0, len(m.workers))
	for _, h := range m.workers {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	if stop != nil {
		stop()
		m.sweepWG.Wait()
	}
	for _, h := range handles {
		m.driver.Terminate(h, true)
	}
	m.log.Info("pool disposed", logger.Fields(logger.FieldOperation, "dispose"))
}
