// Package chaindb provides the wallet tracker's read view of the chain
// database: headers, blunds, forward links, and the node state lock.
package chaindb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Vantar-tech/vantar-wallet/internal/storage"
	"github.com/Vantar-tech/vantar-wallet/pkg/block"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// ErrNotFound is returned when a header, block, or link is absent.
var ErrNotFound = errors.New("not found")

// Key prefixes and state keys for the chain store.
var (
	prefixBlock   = []byte("b/") // b/<hash(32)> -> block JSON
	prefixUndo    = []byte("d/") // d/<hash(32)> -> undo JSON
	prefixHeight  = []byte("h/") // h/<height(8)> -> hash(32)
	prefixForward = []byte("f/") // f/<hash(32)> -> next main-chain hash(32)
	keyTipHash    = []byte("s/tip")
)

// Reader is the chain access the sync engine needs. The tracker never
// writes through it; block application belongs to the node.
type Reader interface {
	GetHeader(hash types.Hash) (*block.Header, error)
	GetTipHeader() (*block.Header, error)
	GetBlund(hash types.Hash) (*block.Blund, error)
	// ResolveForwardLink returns the next main-chain header hash after
	// the given one, or ErrNotFound at the tip.
	ResolveForwardLink(hash types.Hash) (types.Hash, error)
	// LoadHeadersByDepth loads up to n headers walking back from the
	// given hash (inclusive), newest first.
	LoadHeadersByDepth(n uint64, from types.Hash) ([]*block.Header, error)
	// LoadBlundsWhile walks back from the given hash (inclusive),
	// newest first, collecting blunds while pred holds.
	LoadBlundsWhile(pred func(*block.Header) bool, from types.Hash) ([]*block.Blund, error)
	// GetHeaderByHeight returns the main-chain header at the given height.
	GetHeaderByHeight(height uint64) (*block.Header, error)
}

// Store persists blocks, undo data, and chain metadata to a storage.DB.
type Store struct {
	db storage.DB
}

// NewStore creates a chain store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// CommitBlock stores a blund, indexes it by height, writes the forward
// link from its parent, and advances the tip. Blocks must be committed
// in chain order.
func (s *Store) CommitBlock(blund *block.Blund) error {
	blk := blund.Block
	hash := blk.Header.Hash()

	blockData, err := json.Marshal(blk)
	if err != nil {
		return fmt.Errorf("block marshal: %w", err)
	}
	if err := s.db.Put(blockKey(hash), blockData); err != nil {
		return fmt.Errorf("block put: %w", err)
	}

	undoData, err := json.Marshal(blund.Undo)
	if err != nil {
		return fmt.Errorf("undo marshal: %w", err)
	}
	if err := s.db.Put(undoKey(hash), undoData); err != nil {
		return fmt.Errorf("undo put: %w", err)
	}

	if err := s.db.Put(heightKey(blk.Header.Height), hash[:]); err != nil {
		return fmt.Errorf("height index put: %w", err)
	}

	// Forward link from the parent, except for genesis.
	if blk.Header.Height > 0 {
		if err := s.db.Put(forwardKey(blk.Header.PrevHash), hash[:]); err != nil {
			return fmt.Errorf("forward link put: %w", err)
		}
	}

	if err := s.db.Put(keyTipHash, hash[:]); err != nil {
		return fmt.Errorf("set tip: %w", err)
	}
	return nil
}

// RollBackTip reverts the tip to its parent: the tip's forward link,
// height index entry, and tip marker are removed. The block and undo
// data stay on disk (the branch may win again later).
func (s *Store) RollBackTip() error {
	tip, err := s.GetTipHeader()
	if err != nil {
		return err
	}
	if tip.Height == 0 {
		return fmt.Errorf("cannot roll back genesis")
	}

	if err := s.db.Delete(forwardKey(tip.PrevHash)); err != nil {
		return fmt.Errorf("delete forward link: %w", err)
	}
	if err := s.db.Delete(heightKey(tip.Height)); err != nil {
		return fmt.Errorf("delete height index: %w", err)
	}
	if err := s.db.Put(keyTipHash, tip.PrevHash[:]); err != nil {
		return fmt.Errorf("set tip: %w", err)
	}
	return nil
}

// GetBlock retrieves a block by its header hash.
func (s *Store) GetBlock(hash types.Hash) (*block.Block, error) {
	data, err := s.db.Get(blockKey(hash))
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", hash, ErrNotFound)
	}
	var blk block.Block
	if err := json.Unmarshal(data, &blk); err != nil {
		return nil, fmt.Errorf("block unmarshal: %w", err)
	}
	return &blk, nil
}

// GetHeader retrieves a block header by its hash.
func (s *Store) GetHeader(hash types.Hash) (*block.Header, error) {
	blk, err := s.GetBlock(hash)
	if err != nil {
		return nil, err
	}
	return blk.Header, nil
}

// GetHeaderByHeight returns the main-chain header at the given height.
func (s *Store) GetHeaderByHeight(height uint64) (*block.Header, error) {
	hashBytes, err := s.db.Get(heightKey(height))
	if err != nil {
		return nil, fmt.Errorf("height %d: %w", height, ErrNotFound)
	}
	if len(hashBytes) != types.HashSize {
		return nil, fmt.Errorf("corrupt height index: got %d bytes", len(hashBytes))
	}
	var hash types.Hash
	copy(hash[:], hashBytes)
	return s.GetHeader(hash)
}

// GetTipHeader returns the header of the current chain tip.
func (s *Store) GetTipHeader() (*block.Header, error) {
	hashBytes, err := s.db.Get(keyTipHash)
	if err != nil {
		return nil, fmt.Errorf("tip: %w", ErrNotFound)
	}
	if len(hashBytes) != types.HashSize {
		return nil, fmt.Errorf("corrupt tip hash: got %d bytes", len(hashBytes))
	}
	var hash types.Hash
	copy(hash[:], hashBytes)
	return s.GetHeader(hash)
}

// GetBlund retrieves a block together with its undo data.
func (s *Store) GetBlund(hash types.Hash) (*block.Blund, error) {
	blk, err := s.GetBlock(hash)
	if err != nil {
		return nil, err
	}
	undoData, err := s.db.Get(undoKey(hash))
	if err != nil {
		return nil, fmt.Errorf("undo %s: %w", hash, ErrNotFound)
	}
	var undo block.Undo
	if err := json.Unmarshal(undoData, &undo); err != nil {
		return nil, fmt.Errorf("undo unmarshal: %w", err)
	}
	return &block.Blund{Block: blk, Undo: undo}, nil
}

// ResolveForwardLink returns the hash of the next main-chain block.
func (s *Store) ResolveForwardLink(hash types.Hash) (types.Hash, error) {
	data, err := s.db.Get(forwardKey(hash))
	if err != nil {
		return types.Hash{}, fmt.Errorf("forward link %s: %w", hash, ErrNotFound)
	}
	if len(data) != types.HashSize {
		return types.Hash{}, fmt.Errorf("corrupt forward link: got %d bytes", len(data))
	}
	var next types.Hash
	copy(next[:], data)
	return next, nil
}

// LoadHeadersByDepth loads up to n headers walking back from the given
// hash (inclusive), newest first.
func (s *Store) LoadHeadersByDepth(n uint64, from types.Hash) ([]*block.Header, error) {
	var headers []*block.Header
	hash := from
	for uint64(len(headers)) < n {
		h, err := s.GetHeader(hash)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
		if h.Height == 0 {
			break
		}
		hash = h.PrevHash
	}
	return headers, nil
}

// LoadBlundsWhile walks back from the given hash (inclusive), newest
// first, collecting blunds while pred holds on their headers.
func (s *Store) LoadBlundsWhile(pred func(*block.Header) bool, from types.Hash) ([]*block.Blund, error) {
	var blunds []*block.Blund
	hash := from
	for {
		blund, err := s.GetBlund(hash)
		if err != nil {
			return nil, err
		}
		h := blund.Block.Header
		if !pred(h) {
			break
		}
		blunds = append(blunds, blund)
		if h.Height == 0 {
			break
		}
		hash = h.PrevHash
	}
	return blunds, nil
}

func blockKey(hash types.Hash) []byte {
	key := make([]byte, len(prefixBlock)+types.HashSize)
	copy(key, prefixBlock)
	copy(key[len(prefixBlock):], hash[:])
	return key
}

func heightKey(height uint64) []byte {
	key := make([]byte, len(prefixHeight)+8)
	copy(key, prefixHeight)
	binary.BigEndian.PutUint64(key[len(prefixHeight):], height)
	return key
}

func undoKey(hash types.Hash) []byte {
	key := make([]byte, len(prefixUndo)+types.HashSize)
	copy(key, prefixUndo)
	copy(key[len(prefixUndo):], hash[:])
	return key
}

func forwardKey(hash types.Hash) []byte {
	key := make([]byte, len(prefixForward)+types.HashSize)
	copy(key, prefixForward)
	copy(key[len(prefixForward):], hash[:])
	return key
}
