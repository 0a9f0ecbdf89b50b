package session

import "sort"

// PlayerInfo is a read-only copy of a slot for handlers and tests.
type PlayerInfo struct {
	ID            int         `json:"id"`
	State         PlayerState `json:"-"`
	StateName     string      `json:"state"`
	BoundDeviceID int         `json:"bound_device_id"`
}

// DeviceInfo is a read-only copy of a device record.
type DeviceInfo struct {
	ID       int    `json:"id"`
	Nickname string `json:"nickname,omitempty"`
	Hero     bool   `json:"hero"`
	PlayerID *int   `json:"player_id,omitempty"`
}

// PlayerByID returns a copy of one slot.
func (r *Registry) PlayerByID(id int) (PlayerInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.players) {
		return PlayerInfo{}, ErrUnknownPlayer
	}
	return playerInfo(r.players[id]), nil
}

// Players returns copies of every slot in ascending identity order.
func (r *Registry) Players() []PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, playerInfo(p))
	}
	return out
}

// DeviceByID returns a copy of one device record.
func (r *Registry) DeviceByID(id int) (DeviceInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return DeviceInfo{}, ErrUnknownDevice
	}
	return r.deviceInfoLocked(d), nil
}

// Devices returns copies of every connected device, ordered by id.
func (r *Registry) Devices() []DeviceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DeviceInfo, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, r.deviceInfoLocked(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsHeld reports whether the device currently holds the control. Unknown
// devices report false.
func (r *Registry) IsHeld(deviceID int, control string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	return ok && d.Input.IsHeld(control)
}

// WasPressed reports whether the control went down on the device during the
// current tick.
func (r *Registry) WasPressed(deviceID int, control string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[deviceID]
	return ok && d.Input.WasPressed(control)
}

// HeroGranted reports whether any device has been granted elevation during
// this session.
func (r *Registry) HeroGranted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.heroSession
}

// Stats returns the connected device and existing player counts.
func (r *Registry) Stats() (devices, players int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices), len(r.players)
}

func playerInfo(p *Player) PlayerInfo {
	info := PlayerInfo{
		ID:            p.ID,
		State:         p.State,
		StateName:     p.State.String(),
		BoundDeviceID: p.BoundDeviceID,
	}
	if p.State == PlayerUnclaimed {
		info.BoundDeviceID = -1
	}
	return info
}

func (r *Registry) deviceInfoLocked(d *Device) DeviceInfo {
	info := DeviceInfo{
		ID:       d.ID,
		Nickname: d.Nickname,
		Hero:     d.Hero || (r.opts.HeroMode == HeroTogether && r.heroSession),
	}
	if d.PlayerID >= 0 {
		pid := d.PlayerID
		info.PlayerID = &pid
	}
	return info
}
