package pool

import (
	"context"
	"time"

	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/worker"
)

// maybeRotate checks h's request count against the configured threshold
// and, if reached, stops it from accepting new requests and schedules its
// replacement after RotationDrain, giving in-flight requests time to
// finish. It is called after every successfully proxied request.
func (m *Manager) maybeRotate(ctx context.Context, h *worker.Handle) {
	m.mu.Lock()
	shouldRotate := h.RequestCount >= m.cfg.RotateThreshold && !h.Replacing
	if shouldRotate {
		h.Replacing = true
		h.AcceptingRequests = false
	}
	m.mu.Unlock()

	if !shouldRotate {
		return
	}

	m.rec.IncRotation()
	m.log.Info("worker reached rotation threshold, draining", logger.Fields(
		logger.FieldWorkerID, h.ID,
		logger.FieldPort, h.Port,
		"request_count", h.RequestCount,
	))

	go func() {
		time.Sleep(RotationDrain)
		m.replaceWorker(ctx, h, "rotation", true)
	}()
}
