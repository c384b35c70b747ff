package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/whisperpool/logger"
	"github.com/kbukum/whisperpool/pool"
)

func testServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	mgr := pool.NewManager(pool.Config{PoolSize: 1, RotateThreshold: 1000, StartingPort: 9200}, logger.NewDefault("api.test"), nil)
	return New(cfg, mgr, logger.NewDefault("api.test"))
}

func TestHealth_ReturnsOK(t *testing.T) {
	srv := testServer(t, Config{Addr: ":0"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestStatus_ReportsEmptyPool(t *testing.T) {
	srv := testServer(t, Config{Addr: ":0"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	var body pool.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.TotalWorkers != 0 {
		t.Errorf("TotalWorkers = %d, want 0 for an empty registry", body.TotalWorkers)
	}
}

func TestProviders_ListsWhisperServer(t *testing.T) {
	srv := testServer(t, Config{Addr: ":0"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "whisper-server") {
		t.Errorf("body = %s, want it to list whisper-server", rec.Body.String())
	}
}

func TestTranscribeEndpoint_MissingAuthRejected(t *testing.T) {
	srv := testServer(t, Config{Addr: ":0", AuthToken: "secret"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", strings.NewReader(`{"audio_base64":"eA=="}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTranscribeEndpoint_NoHealthyWorkerReturns503(t *testing.T) {
	srv := testServer(t, Config{Addr: ":0"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", strings.NewReader(`{"audio_base64":"eA=="}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestTranscribeEndpoint_MissingAudioFieldFailsValidation(t *testing.T) {
	srv := testServer(t, Config{Addr: ":0"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transcriptions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
