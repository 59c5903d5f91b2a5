package tracker

import (
	"errors"
	"fmt"

	"github.com/Vantar-tech/vantar-wallet/internal/chaindb"
	"github.com/Vantar-tech/vantar-wallet/internal/log"
	"github.com/Vantar-tech/vantar-wallet/internal/slotting"
	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/pkg/block"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// ErrInternal marks an inconsistency between the wallet DB and the chain
// DB: the wallet's declared tip references a header the chain does not
// know. Fatal for the affected wallet.
var ErrInternal = errors.New("internal error")

// WalletTip is the wallet's last-known synchronization point.
type WalletTip struct {
	Synced bool
	Hash   types.Hash
}

// NotSynced is the tip of a wallet that has never been reconciled.
var NotSynced = WalletTip{}

// SyncedWith returns a tip pointing at the given header.
func SyncedWith(hash types.Hash) WalletTip {
	return WalletTip{Synced: true, Hash: hash}
}

// Store is the wallet persistence the sync engine needs. Commits are
// whole-modifier and atomic: either the new tip and every delta land, or
// nothing does.
type Store interface {
	SyncTip(wid wallet.ID) (WalletTip, error)
	// UsedObservations returns the persisted on-chain address
	// observations, keyed by (address, header).
	UsedObservations(wid wallet.ID) (map[AddrHeaderKey]struct{}, error)
	ApplyModifier(wid wallet.ID, newTip types.Hash, mod *Modifier) error
	SetWalletReady(wid wallet.ID, ready bool) error
}

// Syncer reconciles wallet tips with the chain tip.
type Syncer struct {
	chain chaindb.Reader
	lock  *chaindb.StateLock
	store Store
	clock slotting.Clock
	k     uint64
}

// NewSyncer creates a sync engine. k is the chain's security parameter:
// the maximum depth a reorganization can reach.
func NewSyncer(chain chaindb.Reader, lock *chaindb.StateLock, store Store, clock slotting.Clock, k uint64) *Syncer {
	return &Syncer{chain: chain, lock: lock, store: store, clock: clock, k: k}
}

// SyncWallets reconciles each wallet with the chain tip. A failure in
// one wallet is logged with its id and does not stop the others.
func (s *Syncer) SyncWallets(credsList []*wallet.DecrCredentials) {
	for _, creds := range credsList {
		if err := s.SyncWallet(creds); err != nil {
			log.Sync.Error().
				Str("wallet_id", creds.WalletID().String()).
				Err(err).
				Msg("wallet sync failed")
		}
	}
}

// SyncWalletOnImport seeds and reconciles a freshly imported wallet.
func (s *Syncer) SyncWalletOnImport(creds *wallet.DecrCredentials) error {
	return s.SyncWallet(creds)
}

// SyncWallet reconciles one wallet with the chain tip.
//
// When the wallet lags more than k blocks behind, the bulk of the
// catch-up runs without the node's state lock: the chain cannot
// reorganize past depth k, so modifiers built against that prefix stay
// valid no matter what the tip does meanwhile. Only the final stretch
// (at most k+1 blocks) holds the lock.
func (s *Syncer) SyncWallet(creds *wallet.DecrCredentials) error {
	wid := creds.WalletID()

	tip, err := s.store.SyncTip(wid)
	if err != nil {
		return fmt.Errorf("read sync tip: %w", err)
	}

	if !tip.Synced {
		genesisHash, err := s.seedGenesis(creds)
		if err != nil {
			return fmt.Errorf("seed genesis: %w", err)
		}
		tip = SyncedWith(genesisHash)
	}

	wHeader, err := s.chain.GetHeader(tip.Hash)
	if err != nil {
		return fmt.Errorf("%w: wallet %s tip %s unknown to chain db: %v",
			ErrInternal, wid, tip.Hash, err)
	}

	gHeader, err := s.chain.GetTipHeader()
	if err != nil {
		return fmt.Errorf("read chain tip: %w", err)
	}

	// Phase 1: lag beyond the rollback horizon. Catch up lock-free to
	// the ancestor k+1 below the observed tip.
	if gHeader.Height > wHeader.Height+s.k {
		headers, err := s.chain.LoadHeadersByDepth(s.k+2, gHeader.Hash())
		if err != nil {
			return fmt.Errorf("load intermediate headers: %w", err)
		}
		target := headers[len(headers)-1]

		log.Sync.Info().
			Str("wallet_id", wid.String()).
			Uint64("from", wHeader.Height).
			Uint64("to", target.Height).
			Msg("bulk catch-up without state lock")

		mod, err := s.reconcile(creds, wHeader, target)
		if err != nil {
			return fmt.Errorf("bulk reconcile: %w", err)
		}
		if err := s.store.ApplyModifier(wid, target.Hash(), mod); err != nil {
			return fmt.Errorf("commit bulk modifier: %w", err)
		}
		wHeader = target
	}

	// Phase 2: final catch-up under the state lock. The remaining
	// distance is bounded, so the lock is held briefly.
	err = s.lock.WithLock(chaindb.HighPriority, func(tipHash types.Hash) error {
		tipHeader, err := s.chain.GetHeader(tipHash)
		if err != nil {
			return fmt.Errorf("read locked tip header: %w", err)
		}

		mod, err := s.reconcile(creds, wHeader, tipHeader)
		if err != nil {
			return fmt.Errorf("final reconcile: %w", err)
		}
		if err := s.store.ApplyModifier(wid, tipHash, mod); err != nil {
			return fmt.Errorf("commit final modifier: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.store.SetWalletReady(wid, true); err != nil {
		return fmt.Errorf("mark wallet ready: %w", err)
	}
	return nil
}

// reconcile builds the modifier that moves the wallet from one header to
// another, applying forward or rolling back depending on which side is
// ahead. Both headers must be on the main chain.
func (s *Syncer) reconcile(creds *wallet.DecrCredentials, from, to *block.Header) (*Modifier, error) {
	wid := creds.WalletID()

	dbUsed, err := s.store.UsedObservations(wid)
	if err != nil {
		return nil, fmt.Errorf("read used set: %w", err)
	}

	switch {
	case to.Height > from.Height:
		return s.applyForward(creds, dbUsed, from, to)
	case to.Height < from.Height:
		return s.rollBack(creds, dbUsed, from, to)
	default:
		return NewModifier(), nil
	}
}

// applyForward folds block application from the forward link of `from`
// up to and including `to`. Explicit iteration: chains are long and
// recursion would not survive them.
func (s *Syncer) applyForward(creds *wallet.DecrCredentials, dbUsed map[AddrHeaderKey]struct{}, from, to *block.Header) (*Modifier, error) {
	mod := NewModifier()
	cur := from.Hash()

	for cur != to.Hash() {
		next, err := s.chain.ResolveForwardLink(cur)
		if err != nil {
			return nil, fmt.Errorf("forward link from %s: %w", cur, err)
		}
		blund, err := s.chain.GetBlund(next)
		if err != nil {
			return nil, fmt.Errorf("load blund %s: %w", next, err)
		}
		if blund.Block.Header.Height > to.Height {
			break
		}
		mod = ApplyTxs(creds, dbUsed, MainBlockInfo, mod, blockItems(blund))
		cur = next
	}
	return mod, nil
}

// rollBack folds rollback over the blunds from `from` down to but not
// including `to`, newest first. Transactions inside each block are
// undone in reverse order.
func (s *Syncer) rollBack(creds *wallet.DecrCredentials, dbUsed map[AddrHeaderKey]struct{}, from, to *block.Header) (*Modifier, error) {
	blunds, err := s.chain.LoadBlundsWhile(func(h *block.Header) bool {
		return h.Height > to.Height
	}, from.Hash())
	if err != nil {
		return nil, fmt.Errorf("load blunds: %w", err)
	}

	curSlot := s.clock.CurrentSlotInaccurate()
	mod := NewModifier()
	for _, blund := range blunds {
		items := blockItems(blund)
		reverse(items)
		mod = RollbackTxs(creds, dbUsed, curSlot, MainBlockInfo, mod, items)
	}
	return mod, nil
}

// seedGenesis enumerates the genesis block's outputs, inserts the
// wallet-owned ones as addresses and UTXO, and returns the genesis hash
// the wallet is now synced with.
func (s *Syncer) seedGenesis(creds *wallet.DecrCredentials) (types.Hash, error) {
	genesis, err := s.chain.GetHeaderByHeight(0)
	if err != nil {
		return types.Hash{}, fmt.Errorf("read genesis header: %w", err)
	}
	genesisHash := genesis.Hash()

	blund, err := s.chain.GetBlund(genesisHash)
	if err != nil {
		return types.Hash{}, fmt.Errorf("read genesis blund: %w", err)
	}

	mod := NewModifier()
	for _, aux := range blund.Block.Transactions {
		txID := aux.ID()
		for i, out := range aux.Tx.Outputs {
			meta, ok := creds.Classify(out.Address)
			if !ok {
				continue
			}
			mod.InsertAddress(meta)
			mod.InsertUtxo(types.Outpoint{TxID: txID, Index: uint32(i)}, out)
		}
	}

	if err := s.store.ApplyModifier(creds.WalletID(), genesisHash, mod); err != nil {
		return types.Hash{}, fmt.Errorf("commit genesis modifier: %w", err)
	}

	log.Sync.Info().
		Str("wallet_id", creds.WalletID().String()).
		Int("utxos", len(mod.UtxoAdd)).
		Msg("wallet seeded from genesis")
	return genesisHash, nil
}

// blockItems pairs each transaction of a blund with its undo and header.
func blockItems(blund *block.Blund) []TxWithUndo {
	items := make([]TxWithUndo, len(blund.Block.Transactions))
	for i, aux := range blund.Block.Transactions {
		items[i] = TxWithUndo{
			Aux:    aux,
			Undo:   blund.Undo[i],
			Header: blund.Block.Header,
		}
	}
	return items
}

func reverse(items []TxWithUndo) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
