package chaindb

import (
	"fmt"
	"sort"

	"github.com/Vantar-tech/vantar-wallet/config"
	"github.com/Vantar-tech/vantar-wallet/pkg/block"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// CreateGenesisBlock builds the genesis block from the genesis
// configuration. The genesis block has height 0, a zero PrevHash, and a
// single distribution transaction paying out the initial allocations.
func CreateGenesisBlock(gen *config.Genesis) (*block.Block, error) {
	if gen == nil {
		return nil, fmt.Errorf("genesis config is nil")
	}

	dist, err := buildDistributionTx(gen.Alloc)
	if err != nil {
		return nil, fmt.Errorf("build distribution tx: %w", err)
	}

	txs := []*tx.Aux{dist}
	merkle := block.ComputeMerkleRoot([]types.Hash{dist.ID()})

	header := &block.Header{
		Version:    1,
		PrevHash:   types.Hash{}, // Zero for genesis.
		MerkleRoot: merkle,
		Timestamp:  gen.Timestamp,
		Height:     0,
	}

	return block.NewBlock(header, txs), nil
}

// GenesisBlund wraps the genesis block with its (empty-input) undo data.
func GenesisBlund(gen *config.Genesis) (*block.Blund, error) {
	blk, err := CreateGenesisBlock(gen)
	if err != nil {
		return nil, err
	}
	undo := make(block.Undo, len(blk.Transactions))
	for i, aux := range blk.Transactions {
		undo[i] = make(tx.Undo, len(aux.Tx.Inputs))
	}
	return &block.Blund{Block: blk, Undo: undo}, nil
}

// buildDistributionTx creates the genesis transaction with the initial
// allocations. It has a single unknown-kind input (coins from nothing)
// and one output per allocation, in deterministic address order.
func buildDistributionTx(alloc map[string]uint64) (*tx.Aux, error) {
	addrs := make([]string, 0, len(alloc))
	for addr := range alloc {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	var outputs []tx.Output
	for _, addrStr := range addrs {
		addr, err := types.ParseAddress(addrStr)
		if err != nil {
			return nil, fmt.Errorf("invalid alloc address %q: %w", addrStr, err)
		}
		outputs = append(outputs, tx.Output{
			Address: addr,
			Value:   types.Coin(alloc[addrStr]),
		})
	}

	// If no allocations, create a single zero-value output so the block
	// has a valid tx.
	if len(outputs) == 0 {
		outputs = []tx.Output{{Value: 0}}
	}

	dist := &tx.Transaction{
		Version: 1,
		Inputs: []tx.Input{{
			Unknown: &tx.UnknownInput{Tag: 0, Data: []byte("genesis")},
		}},
		Outputs: outputs,
	}
	return &tx.Aux{Tx: dist, Witnesses: []tx.Witness{{}}}, nil
}
