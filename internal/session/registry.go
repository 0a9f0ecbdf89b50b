package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"padlink/internal/input"
)

const defaultTickInterval = 50 * time.Millisecond

// Transport is the outbound half of the device channel. The inbound half
// (connect/disconnect/message/profile-change notifications) calls straight
// into the Handle methods of the Registry.
type Transport interface {
	// Ready reports whether the channel can carry a broadcast yet.
	Ready() bool
	// SetSharedState pushes the serialized state document to every
	// connected device. The blob is opaque to the transport.
	SetSharedState(blob string)
	// Nickname returns the device's display name, empty when unknown.
	Nickname(deviceID int) string
	// DisconnectAll drops every device connection. Disconnect
	// notifications for the dropped devices may arrive afterwards.
	DisconnectAll()
}

// Registry owns the player and device maps and is the only component that
// mutates them. All event handling, queries, and publishing serialize on a
// single mutex covering both maps.
type Registry struct {
	transport     Transport
	opts          Options
	playerFactory PlayerFactory
	deviceFactory DeviceFactory

	mu             sync.Mutex
	id             string
	players        []*Player
	devices        map[int]*Device
	heroSession    bool
	pendingPublish bool
	events         *EventBuffer
}

// NewRegistry builds a registry with the default player/device factories.
func NewRegistry(tr Transport, opts Options) *Registry {
	return NewRegistryWithFactories(tr, opts, nil, nil)
}

// NewRegistryWithFactories builds a registry with custom slot and device
// construction. Nil factories fall back to the defaults.
func NewRegistryWithFactories(tr Transport, opts Options, pf PlayerFactory, df DeviceFactory) *Registry {
	if pf == nil {
		pf = defaultPlayerFactory{}
	}
	if df == nil {
		df = defaultDeviceFactory{}
	}
	opts = opts.withDefaults()
	r := &Registry{
		transport:     tr,
		opts:          opts,
		playerFactory: pf,
		deviceFactory: df,
		id:            NewID(),
		devices:       map[int]*Device{},
		events:        NewEventBuffer(opts.EventBufferSize),
	}
	r.players = r.newPlayerPool()
	return r
}

// newPlayerPool pre-creates the whole pool under a fixed capacity; an open
// pool starts empty and grows on demand.
func (r *Registry) newPlayerPool() []*Player {
	if r.opts.CapacityMode != CapacityLimited {
		return nil
	}
	pool := make([]*Player, 0, r.opts.MaxPlayers)
	for i := 0; i < r.opts.MaxPlayers; i++ {
		pool = append(pool, r.playerFactory.NewPlayer(i))
	}
	return pool
}

// ID returns the session identifier.
func (r *Registry) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Options returns the active session options.
func (r *Registry) Options() Options { return r.opts }

// Events exposes the session journal for SSE consumers.
func (r *Registry) Events() *EventBuffer { return r.events }

// HandleReady flushes any broadcast that was deferred while the transport
// could not carry one yet.
func (r *Registry) HandleReady() {
	log.Info().Str("session_id", r.ID()).Msg("transport_ready")
	r.FlushPublish()
}

// HandleConnect registers a device and binds it to a player slot: a
// returning device recovers its reserved slot first; otherwise, under auto
// join, a fresh claim is attempted. The device record is kept even when no
// slot is available.
func (r *Registry) HandleConnect(deviceID int) {
	r.mu.Lock()
	if old, ok := r.devices[deviceID]; ok {
		// Duplicate connect without an observed disconnect: retire the
		// stale record so the normal reconnect path re-binds the slot.
		r.dropDeviceLocked(old)
	}
	d := r.deviceFactory.NewDevice(deviceID, r.transport.Nickname(deviceID))
	if r.opts.HeroMode == HeroTogether && r.heroSession {
		d.Hero = true
	}
	r.devices[deviceID] = d
	metricDevicesConnectedTotal.Add(1)
	metricDevicesActive.Set(int64(len(r.devices)))

	if p, ok := r.reconnectLocked(deviceID); ok {
		d.PlayerID = p.ID
		metricReconnectsTotal.Add(1)
		log.Info().Int("device_id", deviceID).Int("player_id", p.ID).Msg("player_reconnected")
		r.events.Append("player_reconnected", r.id, map[string]any{"device_id": deviceID, "player_id": p.ID})
	} else if r.opts.JoinMode == JoinAuto {
		_, _ = r.claimLocked(d)
	}
	r.events.Append("device_connected", r.id, map[string]any{"device_id": deviceID, "nickname": d.Nickname})
	r.schedulePublishLocked()
	r.mu.Unlock()
	r.FlushPublish()
}

// HandleDisconnect removes the device record. Its bound player, if any,
// moves to PlayerDisconnected and stays reserved for this device id.
func (r *Registry) HandleDisconnect(deviceID int) {
	r.mu.Lock()
	d, ok := r.devices[deviceID]
	if !ok {
		r.mu.Unlock()
		log.Debug().Int("device_id", deviceID).Msg("disconnect for unknown device")
		return
	}
	r.dropDeviceLocked(d)
	metricDevicesActive.Set(int64(len(r.devices)))
	r.events.Append("device_disconnected", r.id, map[string]any{"device_id": deviceID})
	log.Info().Int("device_id", deviceID).Int("player_id", d.PlayerID).Msg("device_disconnected")
	r.schedulePublishLocked()
	r.mu.Unlock()
	r.FlushPublish()
}

// HandleMessage feeds one raw payload into the device's input state. Under
// custom join, a press edge on the claim control attempts a claim; the
// claim attempt triggers a broadcast whether or not it succeeds.
func (r *Registry) HandleMessage(deviceID int, payload []byte) {
	r.mu.Lock()
	d, ok := r.devices[deviceID]
	if !ok {
		r.mu.Unlock()
		log.Debug().Int("device_id", deviceID).Msg("message for unknown device")
		return
	}
	ev, err := d.Input.Process(payload)
	if err != nil {
		metricMalformedInputTotal.Add(1)
		r.mu.Unlock()
		log.Warn().Err(err).Int("device_id", deviceID).Msg("input payload dropped")
		return
	}
	if r.opts.Debug {
		log.Debug().
			Int("device_id", deviceID).
			Str("type", ev.Type).
			Str("control", ev.Control).
			Bool("pressed", ev.Pressed).
			Msg("input_event")
	}
	claimAttempted := false
	if r.opts.JoinMode == JoinCustom &&
		d.PlayerID < 0 &&
		ev.Type == input.EventKey &&
		ev.Control == r.opts.ClaimControl &&
		d.Input.WasPressed(r.opts.ClaimControl) {
		_, _ = r.claimLocked(d)
		claimAttempted = true
	}
	if claimAttempted {
		r.schedulePublishLocked()
	}
	r.mu.Unlock()
	if claimAttempted {
		r.FlushPublish()
	}
}

// HandleProfileChange refreshes the device's cached nickname.
func (r *Registry) HandleProfileChange(deviceID int) {
	r.mu.Lock()
	d, ok := r.devices[deviceID]
	if !ok {
		r.mu.Unlock()
		log.Debug().Int("device_id", deviceID).Msg("profile change for unknown device")
		return
	}
	d.Nickname = r.transport.Nickname(deviceID)
	r.events.Append("profile_changed", r.id, map[string]any{"device_id": deviceID, "nickname": d.Nickname})
	r.schedulePublishLocked()
	r.mu.Unlock()
	r.FlushPublish()
}

// HandleHeroGranted marks the session and the granted device as elevated.
// Both flags are sticky for the lifetime of the session. Under HeroTogether
// every connected device is elevated as well, and devices that connect
// later inherit the grant.
func (r *Registry) HandleHeroGranted(deviceID int) {
	r.mu.Lock()
	r.heroSession = true
	if d, ok := r.devices[deviceID]; ok {
		d.Hero = true
	} else {
		log.Debug().Int("device_id", deviceID).Msg("hero grant for unknown device")
	}
	if r.opts.HeroMode == HeroTogether {
		for _, d := range r.devices {
			d.Hero = true
		}
	}
	r.events.Append("hero_granted", r.id, map[string]any{"device_id": deviceID, "mode": string(r.opts.HeroMode)})
	log.Info().Int("device_id", deviceID).Str("mode", string(r.opts.HeroMode)).Msg("hero_granted")
	r.schedulePublishLocked()
	r.mu.Unlock()
	r.FlushPublish()
}

// Tick is the per-tick synchronization point: input edge flags reset after
// all message processing for the tick, and a deferred broadcast gets
// another chance to flush.
func (r *Registry) Tick() {
	r.mu.Lock()
	for _, d := range r.devices {
		d.Input.ResetEdges()
	}
	r.mu.Unlock()
	r.FlushPublish()
}

// StartTicker drives Tick until the context ends.
func (r *Registry) StartTicker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Tick()
			}
		}
	}()
}

// Reset tears down the whole session: all players destroyed, all device
// records dropped, hero grant cleared, new session id. This is the only
// path that releases claimed slots. Live connections are dropped through
// the transport so controllers reconnect into the new session instead of
// lingering with a device id the registry no longer knows.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.id = NewID()
	r.players = r.newPlayerPool()
	r.devices = map[int]*Device{}
	r.heroSession = false
	metricDevicesActive.Set(0)
	r.events.Append("session_reset", r.id, nil)
	log.Info().Str("session_id", r.id).Msg("session_reset")
	r.schedulePublishLocked()
	r.mu.Unlock()
	// Outside the lock: closing connections makes the transport deliver
	// HandleDisconnect for each device, which takes the lock again. The
	// device map is already empty, so those land on the unknown-device
	// branch and are no-ops.
	r.transport.DisconnectAll()
	r.FlushPublish()
}

// dropDeviceLocked retires a device record, suspending its bound player.
func (r *Registry) dropDeviceLocked(d *Device) {
	if d.PlayerID >= 0 && d.PlayerID < len(r.players) {
		p := r.players[d.PlayerID]
		if p.State == PlayerClaimed && p.BoundDeviceID == d.ID {
			p.State = PlayerDisconnected
		}
	}
	delete(r.devices, d.ID)
}

// reconnectLocked re-binds the lowest suspended slot reserved for this
// device id. Runs before any fresh claim so a returning device recovers its
// prior slot instead of acquiring a new one.
func (r *Registry) reconnectLocked(deviceID int) (*Player, bool) {
	for _, p := range r.players {
		if p.State == PlayerDisconnected && p.BoundDeviceID == deviceID {
			p.State = PlayerClaimed
			return p, true
		}
	}
	return nil, false
}

// claimLocked binds the lowest unclaimed slot to the device, creating one
// under open capacity. A full fixed pool rejects the claim without mutating
// anything; the device stays connected but unbound.
func (r *Registry) claimLocked(d *Device) (*Player, error) {
	for _, p := range r.players {
		if p.State == PlayerUnclaimed {
			r.bindLocked(p, d)
			return p, nil
		}
	}
	if r.opts.CapacityMode == CapacityAuto {
		p := r.playerFactory.NewPlayer(len(r.players))
		r.players = append(r.players, p)
		r.bindLocked(p, d)
		return p, nil
	}
	metricClaimsRejectedTotal.Add(1)
	r.events.Append("claim_rejected", r.id, map[string]any{"device_id": d.ID, "capacity": r.opts.MaxPlayers})
	log.Warn().Int("device_id", d.ID).Int("capacity", r.opts.MaxPlayers).Msg("claim rejected, pool exhausted")
	return nil, ErrClaimExhausted
}

func (r *Registry) bindLocked(p *Player, d *Device) {
	p.State = PlayerClaimed
	p.BoundDeviceID = d.ID
	d.PlayerID = p.ID
	metricClaimsTotal.Add(1)
	r.events.Append("player_claimed", r.id, map[string]any{"device_id": d.ID, "player_id": p.ID})
	log.Info().Int("device_id", d.ID).Int("player_id", p.ID).Msg("player_claimed")
}

// schedulePublishLocked marks the state document dirty. The actual
// serialization happens at flush time so a deferred publish always reflects
// the registry as it stands when the transport becomes ready.
func (r *Registry) schedulePublishLocked() {
	r.pendingPublish = true
}

// FlushPublish publishes the pending state document if the transport is
// ready. Repeated schedule requests coalesce into one flush. Serialization
// and delivery both happen under the registry lock: concurrent flushes from
// separate connection goroutines must not reorder, or a stale document ends
// up as the last one clients hold. The transport never calls back into the
// registry while delivering, so holding the lock here cannot deadlock.
func (r *Registry) FlushPublish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.pendingPublish {
		return
	}
	if !r.transport.Ready() {
		metricPublishesDeferred.Add(1)
		return
	}
	r.pendingPublish = false
	blob, err := r.snapshotLocked()
	if err != nil {
		log.Error().Err(err).Msg("serialize state document failed")
		return
	}
	r.events.Append("state_published", r.id, map[string]any{"devices": len(r.devices)})
	r.transport.SetSharedState(blob)
	metricPublishesTotal.Add(1)
}
