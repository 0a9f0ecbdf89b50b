package session

// PlayerState is the tri-state lifecycle of a player slot.
type PlayerState int

const (
	// PlayerUnclaimed means the slot has never been bound to a device.
	PlayerUnclaimed PlayerState = iota
	// PlayerClaimed means the slot is bound to a connected device.
	PlayerClaimed
	// PlayerDisconnected means the bound device dropped; the slot stays
	// reserved for that device until it reconnects or the session resets.
	PlayerDisconnected
)

func (s PlayerState) String() string {
	switch s {
	case PlayerUnclaimed:
		return "unclaimed"
	case PlayerClaimed:
		return "claimed"
	case PlayerDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Player is one claimable slot. Identity is assigned at creation and never
// reused while the player exists. A claimed slot never returns to
// PlayerUnclaimed; only a full session reset destroys players.
type Player struct {
	ID    int
	State PlayerState
	// BoundDeviceID is meaningful only when State != PlayerUnclaimed.
	BoundDeviceID int
}

// PlayerFactory builds player slots. Supplying a custom factory is how
// sessions attach game-specific player data without subclassing.
type PlayerFactory interface {
	NewPlayer(id int) *Player
}

type defaultPlayerFactory struct{}

func (defaultPlayerFactory) NewPlayer(id int) *Player {
	return &Player{ID: id, State: PlayerUnclaimed, BoundDeviceID: -1}
}
