// Package block defines block types for the Vantar wallet core.
package block

import (
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Block represents a block in the chain. Transactions carry their
// witnesses (tx.Aux), matching what the node relays on the wire.
type Block struct {
	Header       *Header   `json:"header"`
	Transactions []*tx.Aux `json:"transactions"`
}

// NewBlock creates a new block with the given header and transactions.
func NewBlock(header *Header, txs []*tx.Aux) *Block {
	return &Block{
		Header:       header,
		Transactions: txs,
	}
}

// Undo holds one tx.Undo per transaction, in block order. Together with
// the block it allows reverting the block's UTXO effects locally.
type Undo []tx.Undo

// Blund pairs a block with its undo data.
type Blund struct {
	Block *Block `json:"block"`
	Undo  Undo   `json:"undo"`
}

// HeaderHash returns the hash of the blund's block header.
func (b *Blund) HeaderHash() types.Hash {
	return b.Block.Header.Hash()
}
