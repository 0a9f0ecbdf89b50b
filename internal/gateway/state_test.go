package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"padlink/internal/session"
)

func TestStateHandlerServesDocument(t *testing.T) {
	reg := session.NewRegistry(nullTransport{}, session.Options{JoinMode: session.JoinAuto, CapacityMode: session.CapacityAuto})
	reg.HandleConnect(1)
	reg.HandleConnect(2)
	reg.HandleDisconnect(1)

	req := httptest.NewRequest(http.MethodGet, "/api/session/state", nil)
	w := httptest.NewRecorder()
	StateHandler(reg)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	doc := map[string]session.DeviceSnapshot{}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if len(doc) != 1 {
		t.Fatalf("document has %d entries, want 1", len(doc))
	}
	if _, ok := doc["2"]; !ok {
		t.Fatal("document missing device 2")
	}
}

func TestDevicesHandlerListsBindings(t *testing.T) {
	reg := session.NewRegistry(nullTransport{}, session.Options{JoinMode: session.JoinAuto, CapacityMode: session.CapacityAuto})
	reg.HandleConnect(5)

	req := httptest.NewRequest(http.MethodGet, "/api/session/devices", nil)
	w := httptest.NewRecorder()
	DevicesHandler(reg)(w, req)

	var body struct {
		SessionID string               `json:"session_id"`
		Devices   []session.DeviceInfo `json:"devices"`
		Players   []session.PlayerInfo `json:"players"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.SessionID == "" {
		t.Fatal("missing session id")
	}
	if len(body.Devices) != 1 || body.Devices[0].ID != 5 {
		t.Fatalf("devices = %+v, want one device with id 5", body.Devices)
	}
	if len(body.Players) != 1 || body.Players[0].StateName != "claimed" {
		t.Fatalf("players = %+v, want one claimed player", body.Players)
	}
}
