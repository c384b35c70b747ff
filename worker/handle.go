package worker

import (
	"fmt"
	"os/exec"
	"sync/atomic"
	"time"
)

// Handle is a value object representing one supervised child process.
//
// Handle fields are mutated by the pool package under the pool Manager's
// single mutex (see the concurrency model in SPEC_FULL.md §5); Handle
// itself carries no lock of its own. The one exception is the underlying
// OS process's exit state, which is observed from a dedicated goroutine
// and stored atomically so Alive() never blocks on the pool lock.
type Handle struct {
	ID       string
	Port     int
	BaseURL  string
	State    State
	StartedAt time.Time

	// RequestCount, ConsecutiveFailures, LastHealthyAt, AcceptingRequests,
	// and Replacing are read/written exclusively while the pool Manager's
	// mutex is held.
	RequestCount        int
	ConsecutiveFailures int
	AcceptingRequests   bool
	LastHealthyAt       time.Time

	// Replacing guards against the rotation-vs-health-replacement race
	// noted as an Open Question in the specification: a worker already
	// queued for replacement is not queued a second time.
	Replacing bool

	proc *process
}

// Uptime returns how long the worker has been running.
func (h *Handle) Uptime() time.Duration {
	return time.Since(h.StartedAt)
}

// Alive reports whether the OS process backing this worker has not yet
// exited. It is safe to call without holding the pool Manager's lock.
func (h *Handle) Alive() bool {
	return h.proc.alive()
}

// process wraps an *exec.Cmd with a non-blocking exit observation, so
// Audit Sweep's liveness check (§4.1) never has to synchronize with the
// goroutine that reaps the child.
type process struct {
	cmd      *exec.Cmd
	exited   atomic.Bool
	exitCode atomic.Int32
	done     chan struct{}
}

func newProcess(cmd *exec.Cmd) *process {
	p := &process{cmd: cmd, done: make(chan struct{})}
	p.exitCode.Store(-1)
	go func() {
		err := cmd.Wait()
		if cmd.ProcessState != nil {
			p.exitCode.Store(int32(cmd.ProcessState.ExitCode()))
		} else if err != nil {
			p.exitCode.Store(-1)
		}
		p.exited.Store(true)
		close(p.done)
	}()
	return p
}

func (p *process) alive() bool {
	return p != nil && !p.exited.Load()
}

func (p *process) exitCodeValue() int {
	if p == nil {
		return -1
	}
	return int(p.exitCode.Load())
}

// terminate sends a signal to the process: SIGKILL when sigkill is true,
// SIGTERM otherwise. Graceful kills are staged by the caller (see
// driver.go), which sends SIGTERM here and later calls terminate again to
// escalate.
func (p *process) terminate(sigkill bool) error {
	if p == nil || p.cmd.Process == nil {
		return nil
	}
	if p.exited.Load() {
		return nil
	}
	if sigkill {
		return p.cmd.Process.Kill()
	}
	return p.cmd.Process.Signal(interruptSignal())
}

func (p *process) String() string {
	if p == nil || p.cmd.Process == nil {
		return "process(nil)"
	}
	return fmt.Sprintf("process(pid=%d)", p.cmd.Process.Pid)
}
