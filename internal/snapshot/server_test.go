package snapshot

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openracing/ffbengine/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	return New(cfg, func() ProcessSnapshot {
		return ProcessSnapshot{TickSeq: 42, SoftStopScale: 1.0, PipelineConfigHash: "abc123"}
	})
}

func TestHandleStateReturnsCurrentSnapshot(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	w := httptest.NewRecorder()
	s.handleState(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got ProcessSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.TickSeq != 42 || got.PipelineConfigHash != "abc123" {
		t.Fatalf("unexpected snapshot payload: %+v", got)
	}
}

func TestHandleStateRejectsNonGet(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/state", nil)
	w := httptest.NewRecorder()
	s.handleState(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestHandleConfigGetReturnsJSON(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	s.handleConfig(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected JSON content type, got %q", w.Header().Get("Content-Type"))
	}
}

func TestHandleConfigPostUpdatesPolicy(t *testing.T) {
	s := testServer(t)
	body := []byte(`{"policy":{"thermalLimitC":77}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/config", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleConfig(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if s.cfg.Policy.ThermalLimitC != 77 {
		t.Fatalf("expected patched thermal limit, got %v", s.cfg.Policy.ThermalLimitC)
	}

	select {
	case <-s.ConfigChanged():
	default:
		t.Fatalf("expected a config-changed signal after a successful POST")
	}
}

func TestBroadcastDropsWhenClientBufferFull(t *testing.T) {
	s := testServer(t)
	client := &wsClient{send: make(chan []byte, 1)}
	s.clients[client] = struct{}{}
	client.send <- []byte("backlog")

	s.Broadcast(ProcessSnapshot{TickSeq: 1})

	if len(client.send) != 1 {
		t.Fatalf("expected broadcast to drop rather than block, buffer len=%d", len(client.send))
	}
}
