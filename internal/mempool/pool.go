// Package mempool holds unconfirmed transactions waiting for block
// inclusion and exposes the snapshot the submission path persists into.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Mempool errors.
var (
	ErrAlreadyExists = errors.New("transaction already in mempool")
	ErrConflict      = errors.New("transaction conflicts with existing mempool entry")
	ErrPoolFull      = errors.New("mempool is full")
)

// Pool holds unconfirmed transactions.
type Pool struct {
	mu      sync.RWMutex
	txs     map[types.Hash]*tx.Aux        // txid -> aux
	spends  map[types.Outpoint]types.Hash // outpoint -> txid (conflict index)
	maxSize int
}

// New creates a mempool with the given max size.
func New(maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &Pool{
		txs:     make(map[types.Hash]*tx.Aux),
		spends:  make(map[types.Outpoint]types.Hash),
		maxSize: maxSize,
	}
}

// Add validates and adds a transaction to the pool.
// Rejects duplicates and double-spend conflicts.
func (p *Pool) Add(aux *tx.Aux) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addLocked(aux)
}

func (p *Pool) addLocked(aux *tx.Aux) error {
	txID := aux.ID()

	if _, exists := p.txs[txID]; exists {
		return ErrAlreadyExists
	}

	for _, in := range aux.Tx.Inputs {
		if in.IsUnknown() {
			continue
		}
		if conflict, exists := p.spends[in.PrevOut]; exists {
			return fmt.Errorf("%w: input %s already spent by %s", ErrConflict, in.PrevOut, conflict)
		}
	}

	if len(p.txs) >= p.maxSize {
		return ErrPoolFull
	}

	p.txs[txID] = aux
	for _, in := range aux.Tx.Inputs {
		if !in.IsUnknown() {
			p.spends[in.PrevOut] = txID
		}
	}
	return nil
}

// SaveTx persists a locally submitted transaction into the pool; an
// existing entry with the same id is kept as is. Local submissions are
// saved unconditionally of network acceptance.
func (p *Pool) SaveTx(txID types.Hash, aux *tx.Aux) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.txs[txID]; exists {
		return
	}
	// Best effort: a conflicting remote tx may already hold an input;
	// the local transaction is saved anyway and takes over its spend entries.
	p.txs[txID] = aux
	for _, in := range aux.Tx.Inputs {
		if !in.IsUnknown() {
			p.spends[in.PrevOut] = txID
		}
	}
}

// Remove removes a transaction from the pool by id.
func (p *Pool) Remove(txID types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(txID)
}

func (p *Pool) removeLocked(txID types.Hash) {
	aux, exists := p.txs[txID]
	if !exists {
		return
	}
	for _, in := range aux.Tx.Inputs {
		if !in.IsUnknown() && p.spends[in.PrevOut] == txID {
			delete(p.spends, in.PrevOut)
		}
	}
	delete(p.txs, txID)
}

// RemoveConfirmed removes all transactions that were included in a block.
func (p *Pool) RemoveConfirmed(txIDs []types.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range txIDs {
		p.removeLocked(id)
	}
}

// Has checks if a transaction exists in the pool.
func (p *Pool) Has(txID types.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.txs[txID]
	return exists
}

// Get retrieves a transaction from the pool, or nil.
func (p *Pool) Get(txID types.Hash) *tx.Aux {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.txs[txID]
}

// Count returns the number of transactions in the pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs)
}

// Hashes returns the ids of all transactions in the pool.
func (p *Pool) Hashes() []types.Hash {
	p.mu.RLock()
	defer p.mu.RUnlock()
	hashes := make([]types.Hash, 0, len(p.txs))
	for h := range p.txs {
		hashes = append(hashes, h)
	}
	return hashes
}

// PendingOutpoints returns the set of outpoints referenced by pool
// transactions. The input-selection policy consults it so new
// transactions don't double-spend inputs held by unconfirmed ones.
func (p *Pool) PendingOutpoints() map[types.Outpoint]struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[types.Outpoint]struct{}, len(p.spends))
	for op := range p.spends {
		out[op] = struct{}{}
	}
	return out
}
