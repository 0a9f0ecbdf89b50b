package ws

import "encoding/json"

// Inbound message types devices may send. Key and axis payloads are handed
// to the session core verbatim; the input decoder owns their schema.
const (
	msgKey     = "key"
	msgAxis    = "axis"
	msgProfile = "profile"
)

type ProfileMessage struct {
	Type     string `json:"type"`
	Nickname string `json:"nickname"`
}

// StateMessage frames the shared state document pushed to every device.
// The document itself is opaque to the transport.
type StateMessage struct {
	Type  string          `json:"type"`
	State json.RawMessage `json:"state"`
}

// WelcomeMessage tells a device its transport-assigned id right after the
// connection is accepted.
type WelcomeMessage struct {
	Type     string `json:"type"`
	DeviceID int    `json:"device_id"`
}
