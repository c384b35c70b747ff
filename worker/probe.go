package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/kbukum/whisperpool/logger"
)

// HealthTimeout is the abort timeout for a single health probe.
const HealthTimeout = 2000 * time.Millisecond

// Prober issues health checks against a worker's /health endpoint. It is
// stateless: Probe mutates nothing on the Handle it's given.
type Prober struct {
	client *http.Client
	log    *logger.Logger
}

// NewProber creates a Prober with its own HTTP client, isolated from the
// Proxy Path's client so a slow proxy call can never starve health probes
// of connections.
func NewProber(log *logger.Logger) *Prober {
	if log == nil {
		log = logger.Get("worker.probe")
	}
	return &Prober{
		client: &http.Client{Timeout: HealthTimeout},
		log:    log,
	}
}

// Probe issues GET <base_url>/health with a HealthTimeout abort and
// returns true iff the response status is 2xx. Any network error, timeout,
// or non-2xx status returns false. duringStartup only affects log
// verbosity, never the return value.
func (p *Prober) Probe(ctx context.Context, h *Handle, duringStartup bool) bool {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if duringStartup {
			p.log.Debug("startup probe failed", logger.Fields(logger.FieldWorkerID, h.ID, logger.FieldError, err.Error()))
		} else {
			p.log.Debug("health probe failed", logger.Fields(logger.FieldWorkerID, h.ID, logger.FieldError, err.Error()))
		}
		return false
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok && duringStartup {
		p.log.Debug("startup probe non-2xx", logger.Fields(logger.FieldWorkerID, h.ID, "status", resp.StatusCode))
	}
	return ok
}
