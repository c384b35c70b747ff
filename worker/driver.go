// Package worker implements the Worker Handle, Worker Driver, and Health
// Prober: the pieces of the pool that touch an OS process or an upstream
// HTTP connection directly. The Pool Manager (package pool) owns policy;
// this package owns mechanism.
package worker

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	poolerrors "github.com/kbukum/whisperpool/errors"
	"github.com/kbukum/whisperpool/logger"
)

// GracefulDrain is how long a gracefully-terminated worker is given to
// finish in-flight work before SIGKILL, per §4.1 and §5.
const GracefulDrain = 2 * time.Second

// Config configures how the Driver spawns each child inference server.
type Config struct {
	// Command is the executable path or name (resolved via PATH).
	Command string
	// Dir is the working directory for the child. Defaults to the
	// process's own working directory when empty.
	Dir string
	// Model, if non-empty, is passed as --model.
	Model string
	// Threads, if > 0, is passed as --threads.
	Threads int
	// ExtraArgs is a free-form string split on whitespace and appended
	// verbatim; empty tokens are discarded.
	ExtraArgs string
}

// Driver spawns and terminates child inference server processes.
type Driver struct {
	cfg Config
	log *logger.Logger
}

// NewDriver creates a Driver bound to cfg.
func NewDriver(cfg Config, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.Get("worker.driver")
	}
	return &Driver{cfg: cfg, log: log}
}

// buildArgs constructs the child's argument vector deterministically:
// --port is always present; --model and --threads are appended only when
// set; extra tokens from ExtraArgs are appended last.
func buildArgs(cfg Config, port int) []string {
	args := []string{"--port", fmt.Sprintf("%d", port)}
	if cfg.Model != "" {
		args = append(args, "--model", cfg.Model)
	}
	if cfg.Threads > 0 {
		args = append(args, "--threads", fmt.Sprintf("%d", cfg.Threads))
	}
	for _, tok := range strings.Fields(cfg.ExtraArgs) {
		args = append(args, tok)
	}
	return args
}

// Spawn starts a new child on port and returns its Handle in StateStarting.
// The caller (pool.spawnWorker) is responsible for registering the handle
// and waiting for it to become healthy.
func (d *Driver) Spawn(port int) (*Handle, error) {
	if d.cfg.Command == "" {
		return nil, poolerrors.ConfigMissing()
	}

	args := buildArgs(d.cfg, port)
	cmd := exec.Command(d.cfg.Command, args...) //nolint:gosec // child binary and args are the purpose of this package
	cmd.Dir = d.cfg.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, poolerrors.SpawnFailed(port, err)
	}

	id := uuid.New().String()
	h := &Handle{
		ID:                id,
		Port:              port,
		BaseURL:           fmt.Sprintf("http://127.0.0.1:%d", port),
		State:             StateStarting,
		StartedAt:         time.Now(),
		AcceptingRequests: false,
		proc:              newProcess(cmd),
	}

	d.log.Info("spawned worker", logger.Fields(logger.FieldWorkerID, id, logger.FieldPort, port))
	return h, nil
}

// Terminate stops a worker's child process. When graceful, accepting_requests
// is cleared immediately and the kill is deferred by GracefulDrain to let
// in-flight requests finish; otherwise the kill is immediate. In both cases
// State is set to StateStopped synchronously, before the function returns.
func (d *Driver) Terminate(h *Handle, graceful bool) {
	if h == nil {
		return
	}
	if graceful {
		h.AcceptingRequests = false
		h.State = StateStopped
		go func() {
			if err := h.proc.terminate(false); err != nil {
				d.log.Warn("graceful signal failed", logger.ErrorFields("terminate", err))
			}
			time.Sleep(GracefulDrain)
			if h.proc.alive() {
				if err := h.proc.terminate(true); err != nil {
					d.log.Warn("kill after drain failed", logger.ErrorFields("terminate", err))
				}
			}
		}()
		return
	}

	h.AcceptingRequests = false
	h.State = StateStopped
	if err := h.proc.terminate(true); err != nil {
		d.log.Warn("immediate kill failed", logger.ErrorFields("terminate", err))
	}
}

// ExitCode returns the child's exit code, or -1 if it hasn't exited or was
// killed. Exposed for diagnostics; not used by pool policy.
func ExitCode(h *Handle) int {
	if h == nil {
		return -1
	}
	return h.proc.exitCodeValue()
}
