package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"padlink/internal/config"
	"padlink/internal/session"
	"padlink/internal/ws"
)

func newTestRouter(t *testing.T, opts session.Options) (*session.Registry, http.Handler) {
	t.Helper()
	wsServer := ws.NewServer()
	reg := session.NewRegistry(wsServer, opts)
	wsServer.Attach(reg)
	wsServer.Start()
	cfg := config.ServerConfig{AdminAPIKey: "admin-key", BodyCaptureMax: 4096}
	return reg, newRouter(cfg, reg, wsServer)
}

func TestHealthzAndPublicRoutes(t *testing.T) {
	reg, router := newTestRouter(t, session.Options{JoinMode: session.JoinAuto})
	reg.HandleConnect(1)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected /healthz 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/session/state", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected /api/session/state 200, got %d", w.Code)
	}
	doc := map[string]session.DeviceSnapshot{}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if _, ok := doc["1"]; !ok {
		t.Fatalf("document missing device 1: %v", doc)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/session/config", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected /api/session/config 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected /debug/vars 200, got %d", w.Code)
	}
}

func TestAdminRoutesRequireKey(t *testing.T) {
	reg, router := newTestRouter(t, session.Options{})
	reg.HandleConnect(1)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/hero/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected unauthenticated hero grant 401, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/hero/1", nil)
	req.Header.Set("X-Admin-Key", "admin-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected hero grant 200, got %d body=%s", w.Code, w.Body.String())
	}
	if !reg.HeroGranted() {
		t.Fatal("hero grant did not reach the registry")
	}

	d, err := reg.DeviceByID(1)
	if err != nil {
		t.Fatalf("device 1: %v", err)
	}
	if !d.Hero {
		t.Fatal("device 1 must be hero after grant")
	}
}

func TestHeroGrantValidation(t *testing.T) {
	_, router := newTestRouter(t, session.Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/hero/nope", nil)
	req.Header.Set("X-Admin-Key", "admin-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected bad device id 400, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/hero/9", nil)
	req.Header.Set("X-Admin-Key", "admin-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected unknown device 404, got %d", w.Code)
	}
}

func TestAdminReset(t *testing.T) {
	reg, router := newTestRouter(t, session.Options{JoinMode: session.JoinAuto})
	reg.HandleConnect(1)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/reset", nil)
	req.Header.Set("Authorization", "Bearer admin-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected reset 200, got %d", w.Code)
	}
	if devices, players := reg.Stats(); devices != 0 || players != 0 {
		t.Fatalf("stats after reset = %d/%d, want 0/0", devices, players)
	}
}

func TestSessionOptionsValidation(t *testing.T) {
	if _, err := sessionOptions(config.SessionConfig{JoinMode: "sideways"}); err == nil {
		t.Fatal("expected invalid join mode to fail")
	}
	opts, err := sessionOptions(config.SessionConfig{
		JoinMode:     "custom",
		CapacityMode: "limited",
		MaxPlayers:   2,
		HeroMode:     "together",
	})
	if err != nil {
		t.Fatalf("sessionOptions: %v", err)
	}
	if opts.JoinMode != session.JoinCustom || opts.CapacityMode != session.CapacityLimited || opts.MaxPlayers != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
