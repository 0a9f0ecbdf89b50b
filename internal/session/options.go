package session

import (
	"fmt"
	"strings"
)

// JoinMode controls how a connecting device acquires a player slot.
type JoinMode string

const (
	// JoinAuto claims a slot for every device as it connects.
	JoinAuto JoinMode = "auto"
	// JoinCustom claims only when the device presses the claim control.
	JoinCustom JoinMode = "custom"
)

// CapacityMode controls whether the player pool is open-ended or fixed.
type CapacityMode string

const (
	CapacityAuto    CapacityMode = "auto"
	CapacityLimited CapacityMode = "limited"
)

// HeroMode controls how far an elevation grant spreads.
type HeroMode string

const (
	// HeroTogether elevates every device, current and future, once any
	// single device is granted.
	HeroTogether HeroMode = "together"
	// HeroSeparate elevates only the granted device.
	HeroSeparate HeroMode = "separate"
)

const defaultClaimControl = "claim"

// Options configure a Registry. The zero value is usable: auto join, open
// capacity, separate hero grants.
type Options struct {
	JoinMode     JoinMode
	CapacityMode CapacityMode
	// MaxPlayers bounds the pool under CapacityLimited; ignored otherwise.
	MaxPlayers int
	HeroMode   HeroMode
	// ClaimControl names the key that triggers a claim under JoinCustom.
	ClaimControl string
	// EventBufferSize bounds the session journal kept for SSE replay.
	EventBufferSize int
	Debug           bool
}

func (o Options) withDefaults() Options {
	if o.JoinMode == "" {
		o.JoinMode = JoinAuto
	}
	if o.CapacityMode == "" {
		o.CapacityMode = CapacityAuto
	}
	if o.HeroMode == "" {
		o.HeroMode = HeroSeparate
	}
	if o.ClaimControl == "" {
		o.ClaimControl = defaultClaimControl
	}
	if o.CapacityMode == CapacityLimited && o.MaxPlayers <= 0 {
		o.MaxPlayers = 1
	}
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = 500
	}
	return o
}

// ParseJoinMode maps a config string onto a JoinMode.
func ParseJoinMode(s string) (JoinMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(JoinAuto):
		return JoinAuto, nil
	case string(JoinCustom):
		return JoinCustom, nil
	}
	return "", fmt.Errorf("invalid join mode %q", s)
}

// ParseCapacityMode maps a config string onto a CapacityMode.
func ParseCapacityMode(s string) (CapacityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(CapacityAuto):
		return CapacityAuto, nil
	case string(CapacityLimited):
		return CapacityLimited, nil
	}
	return "", fmt.Errorf("invalid capacity mode %q", s)
}

// ParseHeroMode maps a config string onto a HeroMode.
func ParseHeroMode(s string) (HeroMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(HeroSeparate):
		return HeroSeparate, nil
	case string(HeroTogether):
		return HeroTogether, nil
	}
	return "", fmt.Errorf("invalid hero mode %q", s)
}
