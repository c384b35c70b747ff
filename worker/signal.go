package worker

import "syscall"

// interruptSignal returns the signal used for graceful termination.
func interruptSignal() syscall.Signal {
	return syscall.SIGTERM
}
