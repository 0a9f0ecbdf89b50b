package input

import "errors"

var ErrMalformedPayload = errors.New("malformed_payload")
