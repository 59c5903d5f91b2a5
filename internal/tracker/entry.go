// Package tracker keeps a wallet's view of the chain coherent with the
// node's chain state as blocks are applied and rolled back.
package tracker

import (
	"fmt"

	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/pkg/block"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Direction classifies a history entry from the wallet's point of view.
type Direction int

const (
	// Incoming: the wallet spent nothing and received something.
	Incoming Direction = iota
	// Outgoing: the wallet spent at least one of its outputs and the
	// transaction is not Internal.
	Outgoing
	// Internal: every input and output belongs to the wallet.
	Internal
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Incoming:
		return "incoming"
	case Outgoing:
		return "outgoing"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// THEntry is the normalized history entry for one wallet-relevant
// transaction.
type THEntry struct {
	TxID      types.Hash `json:"txid"`
	Direction Direction  `json:"direction"`
	// Height is the chain difficulty of the containing block.
	Height    uint64     `json:"height"`
	Timestamp uint64     `json:"timestamp"`
	Spent     types.Coin `json:"spent"`
	Received  types.Coin `json:"received"`
}

// OwnedInput pairs a spent input with the output it consumed and the
// wallet coordinates of that output's address.
type OwnedInput struct {
	Input    tx.Input
	Consumed tx.Output
	Meta     wallet.AddressMeta
}

// OwnedOutput pairs a created output with its position and the wallet
// coordinates of its address.
type OwnedOutput struct {
	Index  uint32
	Output tx.Output
	Meta   wallet.AddressMeta
}

// EntryExtra is the wallet-relevant projection of a processed
// transaction: the owned inputs and outputs plus the history entry.
type EntryExtra struct {
	OwnInputs  []OwnedInput
	OwnOutputs []OwnedOutput
	Entry      THEntry
}

// IsInteresting reports whether the transaction touches the wallet at all.
func (e *EntryExtra) IsInteresting() bool {
	return len(e.OwnInputs) > 0 || len(e.OwnOutputs) > 0
}

// BuildEntryExtra computes the wallet-relevant projection of a
// transaction given its undo. The undo must have exactly one entry per
// input; a mismatch is a programmer error and panics.
func BuildEntryExtra(creds *wallet.DecrCredentials, aux *tx.Aux, undo tx.Undo, header *block.Header) *EntryExtra {
	txn := aux.Tx
	if len(undo) != len(txn.Inputs) {
		panic(fmt.Sprintf("undo length %d does not match input count %d for tx %s",
			len(undo), len(txn.Inputs), txn.Hash()))
	}

	extra := &EntryExtra{}

	for i, in := range txn.Inputs {
		if in.IsUnknown() {
			continue
		}
		consumed := undo[i]
		if meta, ok := creds.Classify(consumed.Address); ok {
			extra.OwnInputs = append(extra.OwnInputs, OwnedInput{
				Input:    in,
				Consumed: consumed,
				Meta:     meta,
			})
		}
	}

	for i, out := range txn.Outputs {
		if meta, ok := creds.Classify(out.Address); ok {
			extra.OwnOutputs = append(extra.OwnOutputs, OwnedOutput{
				Index:  uint32(i),
				Output: out,
				Meta:   meta,
			})
		}
	}

	var spent, received types.Coin
	for _, own := range extra.OwnInputs {
		spent = spent.Add(own.Consumed.Value)
	}
	for _, own := range extra.OwnOutputs {
		received = received.Add(own.Output.Value)
	}

	direction := Incoming
	switch {
	case len(extra.OwnInputs) == len(txn.Inputs) && len(extra.OwnOutputs) == len(txn.Outputs):
		direction = Internal
	case len(extra.OwnInputs) > 0:
		direction = Outgoing
	}

	extra.Entry = THEntry{
		TxID:      txn.Hash(),
		Direction: direction,
		Height:    header.Height,
		Timestamp: header.Timestamp,
		Spent:     spent,
		Received:  received,
	}
	return extra
}

// InputMetas projects the HD coordinates of the owned inputs.
func (e *EntryExtra) InputMetas() []wallet.AddressMeta {
	metas := make([]wallet.AddressMeta, len(e.OwnInputs))
	for i, own := range e.OwnInputs {
		metas[i] = own.Meta
	}
	return metas
}

// OutputMetas projects the HD coordinates of the owned outputs.
func (e *EntryExtra) OutputMetas() []wallet.AddressMeta {
	metas := make([]wallet.AddressMeta, len(e.OwnOutputs))
	for i, own := range e.OwnOutputs {
		metas[i] = own.Meta
	}
	return metas
}
