package session

import (
	"encoding/json"
	"strconv"
)

// DeviceSnapshot is one entry of the published state document. Its shape is
// a compatibility contract: connected clients parse the same mapping every
// time.
type DeviceSnapshot struct {
	Hero     bool   `json:"hero"`
	PlayerID *int   `json:"player_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// snapshotLocked serializes the device map as it stands right now. The key
// set equals the currently connected devices exactly. Callers hold r.mu.
func (r *Registry) snapshotLocked() (string, error) {
	doc := make(map[string]DeviceSnapshot, len(r.devices))
	for id, d := range r.devices {
		snap := DeviceSnapshot{
			Hero:     d.Hero || (r.opts.HeroMode == HeroTogether && r.heroSession),
			Nickname: d.Nickname,
		}
		if d.PlayerID >= 0 {
			pid := d.PlayerID
			snap.PlayerID = &pid
		}
		doc[strconv.Itoa(id)] = snap
	}
	blob, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

// Snapshot returns the serialized state document without publishing it.
// Served to late-joining viewers over HTTP.
func (r *Registry) Snapshot() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}
