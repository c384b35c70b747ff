package pool

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTranscribe_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hi there","segments":[{"start":0,"end":0.8,"text":"hi there"}]}`))
	}))
	defer srv.Close()

	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.BaseURL = srv.URL
	m.workers[h.ID] = h

	req := TranscribeRequest{AudioBase64: base64.StdEncoding.EncodeToString([]byte("fake wav bytes"))}
	result, err := m.Transcribe(context.Background(), req)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if result.Text != "hi there" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Metadata["worker_id"] != "w1" {
		t.Errorf("Metadata[worker_id] = %v", result.Metadata["worker_id"])
	}
	if h.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", h.RequestCount)
	}
}

func TestTranscribe_InvalidBase64FailsFast(t *testing.T) {
	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	m.workers[h.ID] = h

	_, err := m.Transcribe(context.Background(), TranscribeRequest{AudioBase64: "!!not base64!!"})
	if err == nil {
		t.Error("expected error for invalid base64 payload")
	}
	if h.RequestCount != 1 {
		t.Error("expected RequestCount incremented: the worker is selected and charged before the payload is decoded")
	}
}

func TestTranscribe_NoHealthyWorkerFails(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Transcribe(context.Background(), TranscribeRequest{
		AudioBase64: base64.StdEncoding.EncodeToString([]byte("x")),
	})
	if err == nil {
		t.Error("expected NoHealthyWorker error")
	}
}

func TestTranscribe_UpstreamFailureIncrementsConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.BaseURL = srv.URL
	m.workers[h.ID] = h

	_, err := m.Transcribe(context.Background(), TranscribeRequest{
		AudioBase64: base64.StdEncoding.EncodeToString([]byte("x")),
	})
	if err == nil {
		t.Fatal("expected error on upstream 500")
	}
	if h.ConsecutiveFailures != 1 {
		t.Errorf("ConsecutiveFailures = %d, want 1", h.ConsecutiveFailures)
	}
}

func TestTranscribe_RotatesAtThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	m := newTestManager(t)
	h := healthyHandle("w1", 9100)
	h.BaseURL = srv.URL
	h.RequestCount = m.cfg.RotateThreshold - 1
	m.workers[h.ID] = h

	_, err := m.Transcribe(context.Background(), TranscribeRequest{
		AudioBase64: base64.StdEncoding.EncodeToString([]byte("x")),
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if !h.Replacing {
		t.Error("expected worker to be marked Replacing once RotateThreshold is reached")
	}
}
