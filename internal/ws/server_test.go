package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"padlink/internal/session"
)

func dialDevice(t *testing.T, ts *httptest.Server, nickname string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "?nickname=" + nickname
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, wantType string) map[string]json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %s: %v", wantType, err)
		}
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(msg, &fields); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}
		var typ string
		_ = json.Unmarshal(fields["type"], &typ)
		if typ == wantType {
			return fields
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

func TestDeviceChannelConnectClaimAndBroadcast(t *testing.T) {
	srv := NewServer()
	reg := session.NewRegistry(srv, session.Options{JoinMode: session.JoinAuto, CapacityMode: session.CapacityAuto})
	srv.Attach(reg)
	srv.Start()
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	conn := dialDevice(t, ts, "ada")
	defer conn.Close()

	welcome := readMessage(t, conn, "welcome")
	var deviceID int
	if err := json.Unmarshal(welcome["device_id"], &deviceID); err != nil {
		t.Fatalf("device_id: %v", err)
	}
	if deviceID <= 0 {
		t.Fatalf("device id = %d, want positive", deviceID)
	}

	state := readMessage(t, conn, "state")
	doc := map[string]session.DeviceSnapshot{}
	if err := json.Unmarshal(state["state"], &doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	entry, ok := doc["1"]
	if !ok {
		t.Fatalf("document missing device 1: %v", doc)
	}
	if entry.PlayerID == nil || *entry.PlayerID != 0 {
		t.Fatalf("device 1 binding = %v, want player 0", entry.PlayerID)
	}
	if entry.Nickname != "ada" {
		t.Fatalf("nickname = %q, want ada", entry.Nickname)
	}
}

func TestDeviceChannelInputAndProfile(t *testing.T) {
	srv := NewServer()
	reg := session.NewRegistry(srv, session.Options{})
	srv.Attach(reg)
	srv.Start()
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	conn := dialDevice(t, ts, "ada")
	defer conn.Close()
	readMessage(t, conn, "welcome")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"key","control":"jump","pressed":true}`)); err != nil {
		t.Fatalf("write input: %v", err)
	}
	waitFor(t, "input to register", func() bool { return reg.IsHeld(1, "jump") })

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"profile","nickname":"grace"}`)); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	waitFor(t, "nickname refresh", func() bool {
		d, err := reg.DeviceByID(1)
		return err == nil && d.Nickname == "grace"
	})
}

func TestDeviceChannelDisconnectSuspendsPlayer(t *testing.T) {
	srv := NewServer()
	reg := session.NewRegistry(srv, session.Options{JoinMode: session.JoinAuto, CapacityMode: session.CapacityAuto})
	srv.Attach(reg)
	srv.Start()
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	conn := dialDevice(t, ts, "ada")
	readMessage(t, conn, "welcome")
	waitFor(t, "claim", func() bool {
		p, err := reg.PlayerByID(0)
		return err == nil && p.State == session.PlayerClaimed
	})

	conn.Close()
	waitFor(t, "player suspension", func() bool {
		p, err := reg.PlayerByID(0)
		return err == nil && p.State == session.PlayerDisconnected
	})
	waitFor(t, "device removal", func() bool {
		devices, _ := reg.Stats()
		return devices == 0
	})
}

func TestSessionResetDropsDeviceChannels(t *testing.T) {
	srv := NewServer()
	reg := session.NewRegistry(srv, session.Options{JoinMode: session.JoinAuto, CapacityMode: session.CapacityAuto})
	srv.Attach(reg)
	srv.Start()
	ts := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	defer ts.Close()

	conn := dialDevice(t, ts, "ada")
	defer conn.Close()
	readMessage(t, conn, "welcome")
	waitFor(t, "claim", func() bool {
		p, err := reg.PlayerByID(0)
		return err == nil && p.State == session.PlayerClaimed
	})

	reg.Reset()

	// The connection must be closed out from under the device so it
	// reconnects into the new session instead of going stale.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	closed := false
	for !closed {
		if _, _, err := conn.ReadMessage(); err != nil {
			closed = true
		}
	}
	waitFor(t, "channel unregistration", func() bool {
		return srv.Nickname(1) == ""
	})

	// A fresh dial binds into the new pool from slot zero again.
	conn2 := dialDevice(t, ts, "grace")
	defer conn2.Close()
	readMessage(t, conn2, "welcome")
	waitFor(t, "rebind", func() bool {
		p, err := reg.PlayerByID(0)
		return err == nil && p.State == session.PlayerClaimed
	})
	devices, _ := reg.Stats()
	if devices != 1 {
		t.Fatalf("%d devices after rebind, want 1", devices)
	}
}
