package txbuilder

import (
	"github.com/Vantar-tech/vantar-wallet/internal/log"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Msg is the inv-or-data relay payload for a transaction: the id for
// inventory announcement and the full aux for the data response.
type Msg struct {
	TxID     types.Hash `json:"txid"`
	Contents *tx.Aux    `json:"contents"`
}

// EnqueueFn hands a message to the network dispatch layer. It returns
// true iff at least one peer accepted it.
type EnqueueFn func(Msg) bool

// Snapshot is the mempool view the submission path persists into.
type Snapshot interface {
	SaveTx(txID types.Hash, aux *tx.Aux)
}

// OutSpec describes one outbound message kind the submitter relays.
type OutSpec struct {
	Name string
}

// SendTxOuts advertises the submitter's outbound capability: the
// inv-or-data relay of transaction ids and contents.
func SendTxOuts() []OutSpec {
	return []OutSpec{{Name: "inv-data/tx"}}
}

// SubmitTxRaw hashes, logs, and enqueues a fully-formed transaction for
// propagation. Returns the acceptance reported by the dispatcher.
func SubmitTxRaw(enqueue EnqueueFn, aux *tx.Aux) bool {
	txID := aux.ID()

	log.Builder.Info().
		Int("inputs", len(aux.Tx.Inputs)).
		Int("outputs", len(aux.Tx.Outputs)).
		Msg("submitting transaction")
	log.Builder.Info().
		Str("txid", txID.String()).
		Msg("transaction id")

	return enqueue(Msg{TxID: txID, Contents: aux})
}

// SubmitAndSave submits a transaction and then persists it into the
// mempool snapshot. The save is unconditional: the transaction is saved
// whether or not the enqueue accepted it, and it is not enqueued again.
func SubmitAndSave(mps Snapshot, enqueue EnqueueFn, aux *tx.Aux) bool {
	accepted := SubmitTxRaw(enqueue, aux)
	mps.SaveTx(aux.ID(), aux)
	return accepted
}
