package pool

import (
	"time"

	"github.com/kbukum/whisperpool/worker"
)

// Timing and threshold constants fixed by the pool design; not
// configurable, per the specification.
const (
	// HealthInterval is the period of the Health Sweep.
	HealthInterval = 5 * time.Second
	// HealthMaxFailures is the number of consecutive failed probes before
	// a worker is replaced.
	HealthMaxFailures = 3
	// AuditInterval is the period of the Audit Sweep.
	AuditInterval = 30 * time.Second
	// StartupTimeout is the deadline for a spawned worker to go healthy.
	StartupTimeout = 30 * time.Second
	// MaxSpawnFailures is the failure count after which spawn attempts for
	// a port are gated by exponential backoff.
	MaxSpawnFailures = 5
	// BaseBackoff is the base duration for exponential spawn backoff.
	BaseBackoff = 5 * time.Second
	// ProxyTimeout is the abort timeout for a proxied inference request.
	ProxyTimeout = 120 * time.Second
	// RotationDrain is the delay between marking a rotating worker
	// non-accepting and replacing it.
	RotationDrain = 5 * time.Second
	// startupPollInterval is how often wait_for_healthy re-probes a
	// starting worker.
	startupPollInterval = 200 * time.Millisecond
)

// Config holds the manager's configurable inputs, sourced from the
// surrounding configuration collaborator.
type Config struct {
	// PoolSize is the number of workers the manager keeps alive.
	PoolSize int
	// RotateThreshold is the number of requests a worker serves before it
	// is voluntarily rotated out.
	RotateThreshold int
	// StartingPort is the first port in the contiguous range
	// [StartingPort, StartingPort+PoolSize) the manager spawns workers on.
	StartingPort int
	// Worker configures how each child inference server is spawned.
	Worker worker.Config
}

// ApplyDefaults fills unset numeric fields with sensible defaults so a
// caller building Config by hand doesn't need to specify everything.
func (c *Config) ApplyDefaults() {
	if c.PoolSize <= 0 {
		c.PoolSize = 2
	}
	if c.RotateThreshold <= 0 {
		c.RotateThreshold = 1000
	}
	if c.StartingPort <= 0 {
		c.StartingPort = 8100
	}
}

// portRange returns the configured contiguous port range.
func (c *Config) portRange() []int {
	ports := make([]int, c.PoolSize)
	for i := range ports {
		ports[i] = c.StartingPort + i
	}
	return ports
}
