package tracker

import (
	"github.com/Vantar-tech/vantar-wallet/internal/slotting"
	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// AddrHeaderKey identifies an address observation at a specific block.
type AddrHeaderKey struct {
	Addr   types.Address
	Header types.Hash
}

// PtxBlockInfo is the block context attached to a pending transaction
// when it is confirmed on chain.
type PtxBlockInfo struct {
	HeaderHash types.Hash `json:"header_hash"`
	Height     uint64     `json:"height"`
	Timestamp  uint64     `json:"timestamp"`
}

// PtxRemoval records why a pending-transaction candidate was dropped
// during rollback: the history entry at removal time and the wall-clock
// slot the rollback happened in.
type PtxRemoval struct {
	Entry THEntry         `json:"entry"`
	Slot  slotting.SlotID `json:"slot"`
}

// Modifier is an accumulating, composable delta over wallet state. It is
// a plain value: the per-block loop builds one without touching the
// database, and the whole thing commits atomically.
//
// Each field keeps insertions and deletions separately. An operation
// cancels its pending opposite for the same key instead of recording
// both, so rolling back a just-applied block yields the modifier that
// existed before the block was applied.
type Modifier struct {
	// AddrAdd preserves insertion order; AddrSeen indexes it.
	AddrAdd  []wallet.AddressMeta
	AddrSeen map[types.Address]struct{}
	AddrDel  map[types.Address]struct{}

	HistoryAdd map[types.Hash]THEntry
	HistoryDel map[types.Hash]struct{}

	UsedAdd map[AddrHeaderKey]struct{}
	UsedDel map[AddrHeaderKey]struct{}

	ChangeAdd map[AddrHeaderKey]struct{}
	ChangeDel map[AddrHeaderKey]struct{}

	UtxoAdd map[types.Outpoint]tx.Output
	UtxoDel map[types.Outpoint]struct{}

	PtxAdd map[types.Hash]PtxBlockInfo
	PtxDel map[types.Hash]PtxRemoval
}

// NewModifier returns the empty modifier, the identity of Compose.
func NewModifier() *Modifier {
	return &Modifier{
		AddrSeen:   make(map[types.Address]struct{}),
		AddrDel:    make(map[types.Address]struct{}),
		HistoryAdd: make(map[types.Hash]THEntry),
		HistoryDel: make(map[types.Hash]struct{}),
		UsedAdd:    make(map[AddrHeaderKey]struct{}),
		UsedDel:    make(map[AddrHeaderKey]struct{}),
		ChangeAdd:  make(map[AddrHeaderKey]struct{}),
		ChangeDel:  make(map[AddrHeaderKey]struct{}),
		UtxoAdd:    make(map[types.Outpoint]tx.Output),
		UtxoDel:    make(map[types.Outpoint]struct{}),
		PtxAdd:     make(map[types.Hash]PtxBlockInfo),
		PtxDel:     make(map[types.Hash]PtxRemoval),
	}
}

// IsEmpty reports whether the modifier changes nothing.
func (m *Modifier) IsEmpty() bool {
	return len(m.AddrAdd) == 0 && len(m.AddrDel) == 0 &&
		len(m.HistoryAdd) == 0 && len(m.HistoryDel) == 0 &&
		len(m.UsedAdd) == 0 && len(m.UsedDel) == 0 &&
		len(m.ChangeAdd) == 0 && len(m.ChangeDel) == 0 &&
		len(m.UtxoAdd) == 0 && len(m.UtxoDel) == 0 &&
		len(m.PtxAdd) == 0 && len(m.PtxDel) == 0
}

// InsertAddress appends an owned address, deduplicating by CId.
// A pending deletion of the same address is cancelled instead.
func (m *Modifier) InsertAddress(meta wallet.AddressMeta) {
	if _, deleted := m.AddrDel[meta.CId]; deleted {
		delete(m.AddrDel, meta.CId)
		return
	}
	if _, seen := m.AddrSeen[meta.CId]; seen {
		return
	}
	m.AddrSeen[meta.CId] = struct{}{}
	m.AddrAdd = append(m.AddrAdd, meta)
}

// DeleteAddress removes an address. A pending insertion of the same
// address is cancelled instead.
func (m *Modifier) DeleteAddress(addr types.Address) {
	if _, seen := m.AddrSeen[addr]; seen {
		delete(m.AddrSeen, addr)
		for i, meta := range m.AddrAdd {
			if meta.CId == addr {
				m.AddrAdd = append(m.AddrAdd[:i], m.AddrAdd[i+1:]...)
				break
			}
		}
		if len(m.AddrAdd) == 0 {
			m.AddrAdd = nil
		}
		return
	}
	m.AddrDel[addr] = struct{}{}
}

// InsertHistory records a history entry. A later insertion for the same
// id wins.
func (m *Modifier) InsertHistory(entry THEntry) {
	delete(m.HistoryDel, entry.TxID)
	m.HistoryAdd[entry.TxID] = entry
}

// DeleteHistory removes a history entry. A pending insertion of the
// same id is cancelled instead.
func (m *Modifier) DeleteHistory(txID types.Hash) {
	if _, ok := m.HistoryAdd[txID]; ok {
		delete(m.HistoryAdd, txID)
		return
	}
	m.HistoryDel[txID] = struct{}{}
}

// InsertUsed marks an address as observed on chain at a block.
func (m *Modifier) InsertUsed(key AddrHeaderKey) {
	if _, ok := m.UsedDel[key]; ok {
		delete(m.UsedDel, key)
		return
	}
	m.UsedAdd[key] = struct{}{}
}

// DeleteUsed removes an on-chain observation.
func (m *Modifier) DeleteUsed(key AddrHeaderKey) {
	if _, ok := m.UsedAdd[key]; ok {
		delete(m.UsedAdd, key)
		return
	}
	m.UsedDel[key] = struct{}{}
}

// InsertChange marks an address as wallet-chosen change at a block.
func (m *Modifier) InsertChange(key AddrHeaderKey) {
	if _, ok := m.ChangeDel[key]; ok {
		delete(m.ChangeDel, key)
		return
	}
	m.ChangeAdd[key] = struct{}{}
}

// DeleteChange removes a change classification.
func (m *Modifier) DeleteChange(key AddrHeaderKey) {
	if _, ok := m.ChangeAdd[key]; ok {
		delete(m.ChangeAdd, key)
		return
	}
	m.ChangeDel[key] = struct{}{}
}

// InsertUtxo records a new wallet-owned unspent output. UTXO values are
// content-addressed, so cancelling a pending deletion restores exactly
// the output that deletion would have removed.
func (m *Modifier) InsertUtxo(op types.Outpoint, out tx.Output) {
	if _, ok := m.UtxoDel[op]; ok {
		delete(m.UtxoDel, op)
		return
	}
	m.UtxoAdd[op] = out
}

// DeleteUtxo removes a wallet-owned unspent output.
func (m *Modifier) DeleteUtxo(op types.Outpoint) {
	if _, ok := m.UtxoAdd[op]; ok {
		delete(m.UtxoAdd, op)
		return
	}
	m.UtxoDel[op] = struct{}{}
}

// InsertPtx records a pending-transaction confirmation candidate.
func (m *Modifier) InsertPtx(txID types.Hash, info PtxBlockInfo) {
	m.PtxAdd[txID] = info
}

// DeletePtx records the removal of a pending-transaction candidate. The
// removal token is kept even when it cancels a pending insertion: the
// caller needs it to requeue the transaction.
func (m *Modifier) DeletePtx(txID types.Hash, removal PtxRemoval) {
	delete(m.PtxAdd, txID)
	m.PtxDel[txID] = removal
}

// Compose folds other into m, with other's operations taking effect
// after m's: later deletions shadow earlier insertions of the same key
// and vice versa. Compose is associative with NewModifier() as identity.
func (m *Modifier) Compose(other *Modifier) {
	for _, meta := range other.AddrAdd {
		m.InsertAddress(meta)
	}
	for addr := range other.AddrDel {
		m.DeleteAddress(addr)
	}
	for _, entry := range other.HistoryAdd {
		m.InsertHistory(entry)
	}
	for txID := range other.HistoryDel {
		m.DeleteHistory(txID)
	}
	for key := range other.UsedAdd {
		m.InsertUsed(key)
	}
	for key := range other.UsedDel {
		m.DeleteUsed(key)
	}
	for key := range other.ChangeAdd {
		m.InsertChange(key)
	}
	for key := range other.ChangeDel {
		m.DeleteChange(key)
	}
	for op, out := range other.UtxoAdd {
		m.InsertUtxo(op, out)
	}
	for op := range other.UtxoDel {
		m.DeleteUtxo(op)
	}
	for txID, info := range other.PtxAdd {
		m.InsertPtx(txID, info)
	}
	for txID, removal := range other.PtxDel {
		m.DeletePtx(txID, removal)
	}
}

// ClearPtx drops all pending-transaction deltas. Tests use it to compare
// modifiers modulo the asymmetric ptx removal tokens.
func (m *Modifier) ClearPtx() {
	m.PtxAdd = make(map[types.Hash]PtxBlockInfo)
	m.PtxDel = make(map[types.Hash]PtxRemoval)
}
