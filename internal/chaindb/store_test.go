package chaindb

import (
	"errors"
	"testing"

	"github.com/Vantar-tech/vantar-wallet/config"
	"github.com/Vantar-tech/vantar-wallet/internal/storage"
	"github.com/Vantar-tech/vantar-wallet/pkg/block"
	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storage.NewMemory())
}

func testGenesis() *config.Genesis {
	return &config.Genesis{
		ChainID:   "vantar-test",
		Timestamp: 1700000000,
		Alloc: map[string]uint64{
			"0101010101010101010101010101010101010101": 1000,
		},
	}
}

// buildChild creates a block on top of parent containing the given
// transactions, with one empty undo per tx.
func buildChild(parent *block.Header, txs ...*tx.Aux) *block.Blund {
	hashes := make([]types.Hash, len(txs))
	for i, aux := range txs {
		hashes[i] = aux.ID()
	}
	header := &block.Header{
		Version:    1,
		PrevHash:   parent.Hash(),
		MerkleRoot: block.ComputeMerkleRoot(hashes),
		Timestamp:  parent.Timestamp + config.SlotDurationSec,
		Height:     parent.Height + 1,
	}
	undo := make(block.Undo, len(txs))
	for i, aux := range txs {
		undo[i] = make(tx.Undo, len(aux.Tx.Inputs))
	}
	return &block.Blund{Block: block.NewBlock(header, txs), Undo: undo}
}

func dummyTx(seed string) *tx.Aux {
	return &tx.Aux{
		Tx: &tx.Transaction{
			Version: 1,
			Inputs:  []tx.Input{{PrevOut: types.Outpoint{TxID: crypto.Hash([]byte(seed))}}},
			Outputs: []tx.Output{{Value: 1}},
		},
		Witnesses: []tx.Witness{{}},
	}
}

func commitChain(t *testing.T, s *Store, length int) []*block.Blund {
	t.Helper()

	gen, err := GenesisBlund(testGenesis())
	if err != nil {
		t.Fatalf("GenesisBlund() error: %v", err)
	}
	blunds := []*block.Blund{gen}
	if err := s.CommitBlock(gen); err != nil {
		t.Fatalf("commit genesis: %v", err)
	}

	for i := 1; i < length; i++ {
		blund := buildChild(blunds[i-1].Block.Header, dummyTx(string(rune('a'+i))))
		if err := s.CommitBlock(blund); err != nil {
			t.Fatalf("commit block %d: %v", i, err)
		}
		blunds = append(blunds, blund)
	}
	return blunds
}

func TestStore_CommitAndGet(t *testing.T) {
	s := testStore(t)
	blunds := commitChain(t, s, 3)

	tip, err := s.GetTipHeader()
	if err != nil {
		t.Fatalf("GetTipHeader() error: %v", err)
	}
	if tip.Height != 2 {
		t.Errorf("tip height = %d, want 2", tip.Height)
	}

	h, err := s.GetHeader(blunds[1].HeaderHash())
	if err != nil {
		t.Fatalf("GetHeader() error: %v", err)
	}
	if h.Height != 1 {
		t.Errorf("header height = %d, want 1", h.Height)
	}
}

func TestStore_GetHeaderMissing(t *testing.T) {
	s := testStore(t)
	_, err := s.GetHeader(crypto.Hash([]byte("nope")))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing header should be ErrNotFound, got %v", err)
	}
}

func TestStore_GetBlund(t *testing.T) {
	s := testStore(t)
	blunds := commitChain(t, s, 2)

	got, err := s.GetBlund(blunds[1].HeaderHash())
	if err != nil {
		t.Fatalf("GetBlund() error: %v", err)
	}
	if len(got.Undo) != len(blunds[1].Block.Transactions) {
		t.Errorf("undo count = %d, want %d", len(got.Undo), len(blunds[1].Block.Transactions))
	}
}

func TestStore_ForwardLinks(t *testing.T) {
	s := testStore(t)
	blunds := commitChain(t, s, 4)

	// Walking forward links from genesis must visit the whole chain.
	hash := blunds[0].HeaderHash()
	for i := 1; i < len(blunds); i++ {
		next, err := s.ResolveForwardLink(hash)
		if err != nil {
			t.Fatalf("ResolveForwardLink(%d) error: %v", i, err)
		}
		if next != blunds[i].HeaderHash() {
			t.Fatalf("forward link %d mismatch", i)
		}
		hash = next
	}

	// Tip has no forward link.
	if _, err := s.ResolveForwardLink(hash); !errors.Is(err, ErrNotFound) {
		t.Errorf("tip forward link should be ErrNotFound, got %v", err)
	}
}

func TestStore_LoadHeadersByDepth(t *testing.T) {
	s := testStore(t)
	blunds := commitChain(t, s, 5)

	headers, err := s.LoadHeadersByDepth(3, blunds[4].HeaderHash())
	if err != nil {
		t.Fatalf("LoadHeadersByDepth() error: %v", err)
	}
	if len(headers) != 3 {
		t.Fatalf("header count = %d, want 3", len(headers))
	}
	// Newest first.
	if headers[0].Height != 4 || headers[2].Height != 2 {
		t.Errorf("heights = %d..%d, want 4..2", headers[0].Height, headers[2].Height)
	}
}

func TestStore_LoadHeadersByDepth_StopsAtGenesis(t *testing.T) {
	s := testStore(t)
	blunds := commitChain(t, s, 2)

	headers, err := s.LoadHeadersByDepth(10, blunds[1].HeaderHash())
	if err != nil {
		t.Fatalf("LoadHeadersByDepth() error: %v", err)
	}
	if len(headers) != 2 {
		t.Errorf("header count = %d, want 2", len(headers))
	}
}

func TestStore_LoadBlundsWhile(t *testing.T) {
	s := testStore(t)
	blunds := commitChain(t, s, 5)

	// Collect blunds strictly above height 1, walking from the tip.
	got, err := s.LoadBlundsWhile(func(h *block.Header) bool {
		return h.Height > 1
	}, blunds[4].HeaderHash())
	if err != nil {
		t.Fatalf("LoadBlundsWhile() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("blund count = %d, want 3", len(got))
	}
	if got[0].Block.Header.Height != 4 || got[2].Block.Header.Height != 2 {
		t.Errorf("heights = %d..%d, want 4..2", got[0].Block.Header.Height, got[2].Block.Header.Height)
	}
}

func TestStore_RollBackTip(t *testing.T) {
	s := testStore(t)
	blunds := commitChain(t, s, 3)

	if err := s.RollBackTip(); err != nil {
		t.Fatalf("RollBackTip() error: %v", err)
	}

	tip, err := s.GetTipHeader()
	if err != nil {
		t.Fatalf("GetTipHeader() error: %v", err)
	}
	if tip.Height != 1 {
		t.Errorf("tip height = %d, want 1", tip.Height)
	}
	if _, err := s.ResolveForwardLink(blunds[1].HeaderHash()); !errors.Is(err, ErrNotFound) {
		t.Error("rolled-back forward link should be gone")
	}
}

func TestStateLock_SeesTip(t *testing.T) {
	s := testStore(t)
	blunds := commitChain(t, s, 2)

	lock := NewStateLock(func() (types.Hash, error) {
		tip, err := s.GetTipHeader()
		if err != nil {
			return types.Hash{}, err
		}
		return tip.Hash(), nil
	})

	var seen types.Hash
	err := lock.WithLock(HighPriority, func(tip types.Hash) error {
		seen = tip
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock() error: %v", err)
	}
	if seen != blunds[1].HeaderHash() {
		t.Error("lock should observe the current tip")
	}
}

func TestCreateGenesisBlock_Deterministic(t *testing.T) {
	gen := testGenesis()
	b1, err := CreateGenesisBlock(gen)
	if err != nil {
		t.Fatalf("CreateGenesisBlock() error: %v", err)
	}
	b2, err := CreateGenesisBlock(gen)
	if err != nil {
		t.Fatalf("CreateGenesisBlock() error: %v", err)
	}
	if b1.Header.Hash() != b2.Header.Hash() {
		t.Error("genesis block should be deterministic")
	}
}
