package gateway

import (
	"encoding/json"
	"net/http"

	"padlink/internal/session"
)

// StateHandler serves the current state document, exactly as devices
// receive it, for late-joining viewers and dashboards.
func StateHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blob, err := reg.Snapshot()
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "serialize_failed"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(blob))
	}
}

// DevicesHandler lists the connected devices with their bindings.
func DevicesHandler(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": reg.ID(),
			"devices":    reg.Devices(),
			"players":    reg.Players(),
		})
	}
}
