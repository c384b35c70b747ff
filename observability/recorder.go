package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder adapts a set of OpenTelemetry instruments to pool.Recorder, so
// the pool manager can report into it without importing observability
// itself.
type Recorder struct {
	poolSize       metric.Int64Gauge
	healthyWorkers metric.Int64Gauge
	spawnAttempts  metric.Int64Counter
	replacements   metric.Int64Counter
	rotations      metric.Int64Counter
	requests       metric.Int64Counter
}

// NewRecorder creates the pool's metric instruments on the given meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	poolSize, err := meter.Int64Gauge("pool.size", metric.WithDescription("Number of workers currently registered"))
	if err != nil {
		return nil, fmt.Errorf("creating pool.size gauge: %w", err)
	}
	healthyWorkers, err := meter.Int64Gauge("pool.healthy_workers", metric.WithDescription("Number of workers currently healthy"))
	if err != nil {
		return nil, fmt.Errorf("creating pool.healthy_workers gauge: %w", err)
	}
	spawnAttempts, err := meter.Int64Counter("pool.spawn_attempts", metric.WithDescription("Worker spawn attempts by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating pool.spawn_attempts counter: %w", err)
	}
	replacements, err := meter.Int64Counter("pool.replacements", metric.WithDescription("Worker replacements by reason"))
	if err != nil {
		return nil, fmt.Errorf("creating pool.replacements counter: %w", err)
	}
	rotations, err := meter.Int64Counter("pool.rotations", metric.WithDescription("Worker rotations triggered by request-count threshold"))
	if err != nil {
		return nil, fmt.Errorf("creating pool.rotations counter: %w", err)
	}
	requests, err := meter.Int64Counter("pool.requests", metric.WithDescription("Proxied transcription requests by outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating pool.requests counter: %w", err)
	}

	return &Recorder{
		poolSize:       poolSize,
		healthyWorkers: healthyWorkers,
		spawnAttempts:  spawnAttempts,
		replacements:   replacements,
		rotations:      rotations,
		requests:       requests,
	}, nil
}

func (r *Recorder) SetPoolSize(n int) {
	r.poolSize.Record(context.Background(), int64(n))
}

func (r *Recorder) SetHealthyWorkers(n int) {
	r.healthyWorkers.Record(context.Background(), int64(n))
}

func (r *Recorder) IncSpawnAttempt(port int, ok bool) {
	r.spawnAttempts.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Bool("ok", ok),
	))
}

func (r *Recorder) IncReplacement(reason string) {
	r.replacements.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

func (r *Recorder) IncRotation() {
	r.rotations.Add(context.Background(), 1)
}

func (r *Recorder) ObserveRequest(workerID string, ok bool) {
	r.requests.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Bool("ok", ok),
	))
}
