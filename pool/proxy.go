package pool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	poolerrors "github.com/kbukum/whisperpool/errors"
	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/worker"
)

// proxyClient is a dedicated client for the inference call, isolated from
// the health prober's client so a slow child never delays health probes
// and vice versa.
var proxyClient = &http.Client{Timeout: ProxyTimeout}

// Transcribe selects a worker, increments its request count, then decodes
// and forwards the audio payload to its /inference endpoint, returning the
// normalized result. This ordering (select, then normalize) means a
// malformed payload is charged against the selected worker's count even
// though it never reaches the wire; it also means a bad payload surfaces
// as NoHealthyWorker rather than a validation error when the pool is
// empty, matching the caller-visible order the request proxy path uses.
// When the upstream call fails, the selected worker's consecutive failure
// count is incremented and the error is returned unmodified; a payload
// decode failure does not touch that count. The proxy path never retries
// against a different worker itself.
func (m *Manager) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscriptionResult, error) {
	h, err := m.SelectWorker()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	h.RequestCount++
	m.mu.Unlock()

	audio, err := decodeAudioBase64(req.AudioBase64)
	if err != nil {
		return nil, poolerrors.Validation(err.Error())
	}

	language := req.Language
	if language == "" {
		language = "en"
	}

	result, err := m.callInference(ctx, h, audio, language)
	if err != nil {
		m.recordProxyFailure(h)
		m.rec.ObserveRequest(h.ID, false)
		return nil, err
	}

	result.Language = language
	for k, v := range req.Metadata {
		result.Metadata[k] = v
	}
	result.Metadata["worker_id"] = h.ID
	result.Metadata["worker_url"] = h.BaseURL
	m.rec.ObserveRequest(h.ID, true)
	m.maybeRotate(ctx, h)
	return result, nil
}

// callInference performs the single HTTP round trip to the child server
// and decodes its response.
func (m *Manager) callInference(ctx context.Context, h *worker.Handle, audio []byte, language string) (*TranscriptionResult, error) {
	body, contentType, err := buildInferenceBody(audio, language)
	if err != nil {
		return nil, poolerrors.UpstreamError(http.StatusInternalServerError, err.Error())
	}

	reqCtx, cancel := context.WithTimeout(ctx, ProxyTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, h.BaseURL+"/inference", body)
	if err != nil {
		return nil, poolerrors.UpstreamError(http.StatusInternalServerError, err.Error())
	}
	httpReq.Header.Set("Content-Type", contentType)

	start := time.Now()
	resp, err := proxyClient.Do(httpReq)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, poolerrors.UpstreamTimeout(h.ID)
		}
		return nil, poolerrors.UpstreamError(http.StatusBadGateway, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, poolerrors.UpstreamError(http.StatusBadGateway, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, poolerrors.UpstreamError(resp.StatusCode, string(respBody))
	}

	result, err := decodeInferenceResponse(respBody)
	if err != nil {
		return nil, poolerrors.UpstreamError(http.StatusBadGateway, fmt.Sprintf("decode inference response: %v", err))
	}

	m.log.Debug("inference call completed", logger.Fields(
		logger.FieldWorkerID, h.ID,
		logger.FieldDuration, time.Since(start).String(),
	))
	return result, nil
}

// recordProxyFailure increments a worker's consecutive failure count on a
// failed proxy call, sharing the same counter the Health Sweep uses so a
// worker that is both failing health probes and failing live requests
// crosses the replacement threshold from either source.
func (m *Manager) recordProxyFailure(h *worker.Handle) {
	m.mu.Lock()
	h.ConsecutiveFailures++
	failures := h.ConsecutiveFailures
	m.mu.Unlock()

	if failures >= HealthMaxFailures {
		m.triggerReplace(context.Background(), h, "health", false)
	}
}
