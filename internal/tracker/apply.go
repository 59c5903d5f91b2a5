package tracker

import (
	"github.com/Vantar-tech/vantar-wallet/internal/slotting"
	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/pkg/block"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// TxWithUndo is one transaction of a block together with its undo and
// the header of the containing block.
type TxWithUndo struct {
	Aux    *tx.Aux
	Undo   tx.Undo
	Header *block.Header
}

// BlockInfo is what the sync engine knows about a header when applying
// its transactions: chain difficulty, timestamp, and the block context
// to attach to pending-transaction candidates (nil when candidates
// should not be recorded).
type BlockInfo struct {
	Height    uint64
	Timestamp uint64
	Ptx       *PtxBlockInfo
}

// InfoFn resolves a header to its BlockInfo.
type InfoFn func(header *block.Header) BlockInfo

// MainBlockInfo is the standard InfoFn: difficulty and timestamp come
// from the header, and pending-transaction candidates are recorded with
// the header's block context.
func MainBlockInfo(header *block.Header) BlockInfo {
	return BlockInfo{
		Height:    header.Height,
		Timestamp: header.Timestamp,
		Ptx: &PtxBlockInfo{
			HeaderHash: header.Hash(),
			Height:     header.Height,
			Timestamp:  header.Timestamp,
		},
	}
}

// ApplyTx folds one applied transaction into the modifier: own inputs
// leave the wallet UTXO, own outputs enter it, used and change addresses
// are recorded against the containing header, and interesting
// transactions gain a history entry.
func ApplyTx(
	creds *wallet.DecrCredentials,
	dbUsed map[AddrHeaderKey]struct{},
	info InfoFn,
	mod *Modifier,
	item TxWithUndo,
) *Modifier {
	blockInfo := info(item.Header)
	extra := BuildEntryExtra(creds, item.Aux, item.Undo, item.Header)
	headerHash := item.Header.Hash()
	txID := item.Aux.ID()

	// Change is evaluated against the used set as it was before this
	// transaction's own observations land.
	changeAddrs := EvalChange(
		allUsed(dbUsed, mod),
		extra.InputMetas(),
		extra.OutputMetas(),
		len(extra.OwnOutputs) == len(item.Aux.Tx.Outputs),
	)

	for _, own := range extra.OwnInputs {
		mod.DeleteUtxo(own.Input.PrevOut)
	}
	for _, own := range extra.OwnOutputs {
		mod.InsertUtxo(types.Outpoint{TxID: txID, Index: own.Index}, own.Output)
	}

	// Every output address of a wallet-relevant transaction counts as
	// observed on chain, own or not: the change heuristic must never
	// re-elect an address that already appeared in anyone's output.
	if extra.IsInteresting() {
		for _, out := range item.Aux.Tx.Outputs {
			mod.InsertUsed(AddrHeaderKey{Addr: out.Address, Header: headerHash})
		}
	}
	for _, addr := range changeAddrs {
		mod.InsertChange(AddrHeaderKey{Addr: addr, Header: headerHash})
	}

	if extra.IsInteresting() {
		mod.InsertHistory(extra.Entry)
	}

	if blockInfo.Ptx != nil {
		mod.InsertPtx(txID, *blockInfo.Ptx)
	}

	for _, meta := range extra.OutputMetas() {
		mod.InsertAddress(meta)
	}

	return mod
}

// RollbackTx is the inverse of ApplyTx: every insertion becomes a
// deletion on the same key, the UTXO restores the consumed inputs from
// the undo, and the pending-transaction candidate is dropped with a
// removal token carrying the entry and the current slot.
func RollbackTx(
	creds *wallet.DecrCredentials,
	dbUsed map[AddrHeaderKey]struct{},
	curSlot slotting.SlotID,
	info InfoFn,
	mod *Modifier,
	item TxWithUndo,
) *Modifier {
	blockInfo := info(item.Header)
	extra := BuildEntryExtra(creds, item.Aux, item.Undo, item.Header)
	headerHash := item.Header.Hash()
	txID := item.Aux.ID()

	for _, meta := range extra.OutputMetas() {
		mod.DeleteAddress(meta.CId)
	}

	if blockInfo.Ptx != nil {
		mod.DeletePtx(txID, PtxRemoval{Entry: extra.Entry, Slot: curSlot})
	}

	if extra.IsInteresting() {
		mod.DeleteHistory(txID)
	}

	// Remove this transaction's observations first so the change
	// heuristic sees the same used set ApplyTx saw.
	if extra.IsInteresting() {
		for _, out := range item.Aux.Tx.Outputs {
			mod.DeleteUsed(AddrHeaderKey{Addr: out.Address, Header: headerHash})
		}
	}

	changeAddrs := EvalChange(
		allUsed(dbUsed, mod),
		extra.InputMetas(),
		extra.OutputMetas(),
		len(extra.OwnOutputs) == len(item.Aux.Tx.Outputs),
	)
	for _, addr := range changeAddrs {
		mod.DeleteChange(AddrHeaderKey{Addr: addr, Header: headerHash})
	}

	for _, own := range extra.OwnOutputs {
		mod.DeleteUtxo(types.Outpoint{TxID: txID, Index: own.Index})
	}
	for _, own := range extra.OwnInputs {
		mod.InsertUtxo(own.Input.PrevOut, own.Consumed)
	}

	return mod
}

// ApplyTxs left-folds ApplyTx over the items, starting from base
// (or an empty modifier when base is nil).
func ApplyTxs(
	creds *wallet.DecrCredentials,
	dbUsed map[AddrHeaderKey]struct{},
	info InfoFn,
	base *Modifier,
	items []TxWithUndo,
) *Modifier {
	mod := base
	if mod == nil {
		mod = NewModifier()
	}
	for _, item := range items {
		mod = ApplyTx(creds, dbUsed, info, mod, item)
	}
	return mod
}

// RollbackTxs left-folds RollbackTx over the items, starting from base
// (or an empty modifier when base is nil). Items must be ordered
// newest-first: rolling back undoes work in reverse.
func RollbackTxs(
	creds *wallet.DecrCredentials,
	dbUsed map[AddrHeaderKey]struct{},
	curSlot slotting.SlotID,
	info InfoFn,
	base *Modifier,
	items []TxWithUndo,
) *Modifier {
	mod := base
	if mod == nil {
		mod = NewModifier()
	}
	for _, item := range items {
		mod = RollbackTx(creds, dbUsed, curSlot, info, mod, item)
	}
	return mod
}

// allUsed materializes the set of addresses observed on chain: the
// persisted observations combined with the modifier's pending additions,
// minus its pending deletions. Deletions matter during rollback of
// committed blocks, where the persisted set still contains the
// observations being undone.
//
// TODO: keep an incremental set alongside the modifier instead of
// materializing per transaction once wallets carry enough history for
// this to show up in sync profiles.
func allUsed(dbUsed map[AddrHeaderKey]struct{}, mod *Modifier) map[types.Address]struct{} {
	pairs := make(map[AddrHeaderKey]struct{}, len(dbUsed)+len(mod.UsedAdd))
	for key := range dbUsed {
		pairs[key] = struct{}{}
	}
	for key := range mod.UsedAdd {
		pairs[key] = struct{}{}
	}
	for key := range mod.UsedDel {
		delete(pairs, key)
	}

	out := make(map[types.Address]struct{}, len(pairs))
	for key := range pairs {
		out[key.Addr] = struct{}{}
	}
	return out
}
