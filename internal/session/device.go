package session

import "padlink/internal/input"

// Device is one connected controller. The transport assigns the id; it is
// unique while connected and may be reused after a disconnect. A device
// removed and re-added under the same id starts fresh: new input state,
// hero flag cleared.
type Device struct {
	ID int
	// Hero is sticky once set for the lifetime of the device record.
	Hero     bool
	Nickname string
	// PlayerID is the bound player slot, -1 while unbound.
	PlayerID int
	Input    *input.State
}

// DeviceFactory builds device records on connect.
type DeviceFactory interface {
	NewDevice(id int, nickname string) *Device
}

type defaultDeviceFactory struct{}

func (defaultDeviceFactory) NewDevice(id int, nickname string) *Device {
	return &Device{
		ID:       id,
		Nickname: nickname,
		PlayerID: -1,
		Input:    input.NewState(),
	}
}
