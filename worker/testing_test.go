package worker

import "github.com/kbukum/whisperpool/logger"

// NewDefaultTestLogger returns the default info-level console logger for
// use across worker package tests.
func NewDefaultTestLogger() *logger.Logger {
	return logger.NewDefault("worker.test")
}
