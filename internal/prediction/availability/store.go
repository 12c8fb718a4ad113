// Package availability holds the advisory "is the remote backend worth
// trying" flag. It is a hint for skipping pointless attempts, not a
// correctness guarantee, so store failures degrade to Unknown.
package availability

import (
	"context"
	"sync"
	"time"
)

type State int

const (
	Unknown State = iota
	Available
	Unavailable
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// KnownFalse reports whether remote attempts should be skipped.
func (s State) KnownFalse() bool { return s == Unavailable }

func FromBool(available bool) State {
	if available {
		return Available
	}
	return Unavailable
}

type Store interface {
	Get(ctx context.Context) (State, error)
	Set(ctx context.Context, available bool) error
}

// MemoryStore keeps the flag in process. A zero ttl never expires.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	state State
	setAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now}
}

func (m *MemoryStore) Get(context.Context) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != Unknown && m.ttl > 0 && m.now().Sub(m.setAt) > m.ttl {
		return Unknown, nil
	}
	return m.state, nil
}

func (m *MemoryStore) Set(_ context.Context, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = FromBool(available)
	m.setAt = m.now()
	return nil
}
