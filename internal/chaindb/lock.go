package chaindb

import (
	"sync"

	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Priority orders waiters on the state lock. The wallet tracker always
// uses HighPriority for its final, bounded catch-up so block validation
// is stalled for as short a time as possible.
type Priority int

const (
	LowPriority Priority = iota
	HighPriority
)

// StateLock guards chain tip advancement. Whoever holds it sees a tip
// that cannot move underneath them.
type StateLock struct {
	mu  sync.Mutex
	tip func() (types.Hash, error)
}

// NewStateLock creates a state lock whose holders observe the tip
// reported by tipFn.
func NewStateLock(tipFn func() (types.Hash, error)) *StateLock {
	return &StateLock{tip: tipFn}
}

// WithLock runs fn while holding the lock, passing the tip hash read
// after acquisition. Priority is advisory: the Go mutex has no priority
// queue, but callers record their intent for observability and future
// fairness work.
func (l *StateLock) WithLock(_ Priority, fn func(tip types.Hash) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tip, err := l.tip()
	if err != nil {
		return err
	}
	return fn(tip)
}
