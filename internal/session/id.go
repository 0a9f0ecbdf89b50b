package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidEntropyMu sync.Mutex
	ulidEntropy   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewID returns a sortable unique identifier for sessions and stream events.
func NewID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
