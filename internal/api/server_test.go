package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lanchat/lanchat/internal/config"
	"github.com/lanchat/lanchat/internal/coordinator"
)

func testCoordinator(t *testing.T) *coordinator.Coordinator {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Network.UnicastPort = 0
	c, err := coordinator.Start(cfg, "alice")
	if err != nil {
		t.Fatalf("coordinator.Start: %v", err)
	}
	t.Cleanup(c.Shutdown)
	return c
}

func TestServer_Health(t *testing.T) {
	c := testCoordinator(t)
	srv := NewServer(c)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestServer_PeersAndRoomsEmpty(t *testing.T) {
	c := testCoordinator(t)
	srv := NewServer(c)

	for _, path := range []string{"/peers", "/rooms"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, w.Code)
		}
		var body []any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s decode body: %v", path, err)
		}
		if len(body) != 0 {
			t.Errorf("%s = %v, want empty", path, body)
		}
	}
}

func TestServer_MetricsDisabledByDefault(t *testing.T) {
	c := testCoordinator(t)
	srv := NewServer(c)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when metrics are not enabled", w.Code)
	}
}
