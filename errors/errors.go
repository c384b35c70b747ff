// Package errors implements the pool manager's error taxonomy:
// structured errors with a machine-readable code, an HTTP status for the
// outer API, and a retryable flag, rendered to clients as an
// {"error": {code, message, retryable, details}} body.
package errors

import (
	"fmt"
	"net/http"
)

// PoolError is the error type returned by pool, worker, and proxy
// operations that need to surface a specific failure kind to a caller.
type PoolError struct {
	Code       Code
	Message    string
	Retryable  bool
	HTTPStatus int
	Details    map[string]any
	Cause      error
}

func (e *PoolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *PoolError) Unwrap() error { return e.Cause }

// WithCause attaches an underlying error and returns the receiver.
func (e *PoolError) WithCause(cause error) *PoolError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key and returns the receiver.
func (e *PoolError) WithDetail(key string, value any) *PoolError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newErr(code Code, status int, message string) *PoolError {
	return &PoolError{Code: code, Message: message, HTTPStatus: status, Retryable: IsRetryable(code)}
}

// ConfigMissing reports that the child inference command was not configured.
func ConfigMissing() *PoolError {
	return newErr(CodeConfigMissing, http.StatusInternalServerError,
		"whisper_server.cmd is required")
}

// SpawnFailed reports that spawning a child on port failed.
func SpawnFailed(port int, cause error) *PoolError {
	return newErr(CodeSpawnFailed, http.StatusInternalServerError,
		fmt.Sprintf("failed to spawn worker on port %d", port)).WithCause(cause).WithDetail("port", port)
}

// StartupTimeout reports that a child never became healthy before the
// startup deadline elapsed.
func StartupTimeout(port int) *PoolError {
	return newErr(CodeStartupTimeout, http.StatusInternalServerError,
		fmt.Sprintf("worker on port %d did not become healthy before the startup deadline", port)).
		WithDetail("port", port)
}

// ProbeFailure reports a single failed health probe.
func ProbeFailure(workerID string, cause error) *PoolError {
	return newErr(CodeProbeFailure, http.StatusInternalServerError,
		fmt.Sprintf("health probe failed for worker %s", workerID)).WithCause(cause).WithDetail("worker_id", workerID)
}

// NoHealthyWorker reports that dispatch found no selectable worker.
func NoHealthyWorker() *PoolError {
	return newErr(CodeNoHealthyWorker, http.StatusServiceUnavailable,
		"No healthy workers available")
}

// UpstreamError reports a non-2xx or transport failure from a child's
// /inference endpoint.
func UpstreamError(status int, body string) *PoolError {
	return newErr(CodeUpstreamError, http.StatusBadGateway,
		fmt.Sprintf("upstream inference request failed with status %d: %s", status, body)).
		WithDetail("upstream_status", status)
}

// UpstreamTimeout reports that the 120s proxy call aborted on deadline.
func UpstreamTimeout(workerID string) *PoolError {
	return newErr(CodeUpstreamTimeout, http.StatusGatewayTimeout,
		"upstream inference request timed out").WithDetail("worker_id", workerID)
}

// Validation reports that a request failed input validation before
// reaching the pool manager.
func Validation(message string) *PoolError {
	return newErr(CodeValidation, http.StatusBadRequest, message)
}
