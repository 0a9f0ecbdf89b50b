package session

import "errors"

var (
	ErrClaimExhausted = errors.New("claim_exhausted")
	ErrUnknownDevice  = errors.New("unknown_device")
	ErrUnknownPlayer  = errors.New("unknown_player")
)
