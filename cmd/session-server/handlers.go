package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"padlink/internal/session"
)

func healthHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		devices, players := reg.Stats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"session_id": reg.ID(),
			"devices":    devices,
			"players":    players,
		})
	}
}

func configHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := reg.Options()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"join_mode":     opts.JoinMode,
			"capacity_mode": opts.CapacityMode,
			"max_players":   opts.MaxPlayers,
			"hero_mode":     opts.HeroMode,
			"claim_control": opts.ClaimControl,
		})
	}
}

// heroGrantHandler stands in for the platform's premium-status callback:
// the named device is granted elevated status for the rest of the session.
func heroGrantHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := strconv.Atoi(chi.URLParam(r, "device_id"))
		if err != nil {
			writeHTTPError(w, http.StatusBadRequest, "invalid_device_id")
			return
		}
		if _, err := reg.DeviceByID(deviceID); err != nil {
			writeHTTPError(w, http.StatusNotFound, "unknown_device")
			return
		}
		reg.HandleHeroGranted(deviceID)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "device_id": deviceID})
	}
}

func resetHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg.Reset()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "session_id": reg.ID()})
	}
}
