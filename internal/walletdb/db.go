// Package walletdb persists per-wallet tracking state: sync tip, owned
// addresses, UTXO, history, used/change observations, and pending
// transactions.
package walletdb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Vantar-tech/vantar-wallet/internal/storage"
	"github.com/Vantar-tech/vantar-wallet/internal/tracker"
	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Key prefixes for the wallet store. Every key embeds the 20-byte wallet
// id right after the prefix so wallets share one database without
// touching each other's state.
var (
	prefixTip     = []byte("t/")  // t/<wid>                   -> tip hash(32)
	prefixReady   = []byte("r/")  // r/<wid>                   -> 1 byte flag
	prefixAddr    = []byte("a/")  // a/<wid><seq4>             -> AddressMeta JSON
	prefixAddrIdx = []byte("ai/") // ai/<wid><addr20>          -> seq4 (dedup index)
	prefixAddrSeq = []byte("an/") // an/<wid>                  -> next seq4
	prefixUtxo    = []byte("u/")  // u/<wid><txid32><idx4>     -> Output JSON
	prefixHistory = []byte("h/")  // h/<wid><txid32>           -> THEntry JSON
	prefixUsed    = []byte("us/") // us/<wid><addr20><hash32>  -> empty
	prefixChange  = []byte("ch/") // ch/<wid><addr20><hash32>  -> empty
	prefixPending = []byte("p/")  // p/<wid><txid32>           -> pendingRecord JSON
)

// AddressKind selects which observation table a query reads.
type AddressKind int

const (
	UsedAddresses AddressKind = iota
	ChangeAddresses
)

// AddressObservation pairs an address with the block it was observed at.
type AddressObservation struct {
	Addr   types.Address
	Header types.Hash
}

// pendingRecord tracks a transaction this wallet submitted. Confirmed is
// set once the tracker sees the transaction on chain.
type pendingRecord struct {
	TxID      types.Hash            `json:"txid"`
	Confirmed *tracker.PtxBlockInfo `json:"confirmed,omitempty"`
}

// DB is the wallet persistence store.
type DB struct {
	db storage.DB
}

// New creates a wallet store backed by the given database.
func New(db storage.DB) *DB {
	return &DB{db: db}
}

// SyncTip returns the wallet's last committed synchronization point.
// A wallet with no tip entry has never synced.
func (d *DB) SyncTip(wid wallet.ID) (tracker.WalletTip, error) {
	data, err := d.db.Get(widKey(prefixTip, wid))
	if err != nil {
		return tracker.NotSynced, nil
	}
	if len(data) != types.HashSize {
		return tracker.NotSynced, fmt.Errorf("corrupt sync tip: got %d bytes", len(data))
	}
	var hash types.Hash
	copy(hash[:], data)
	return tracker.SyncedWith(hash), nil
}

// Ready reports whether the wallet finished its initial sync.
func (d *DB) Ready(wid wallet.ID) bool {
	data, err := d.db.Get(widKey(prefixReady, wid))
	return err == nil && len(data) == 1 && data[0] == 1
}

// SetWalletReady marks the wallet's initial sync as finished (or not).
func (d *DB) SetWalletReady(wid wallet.ID, ready bool) error {
	val := []byte{0}
	if ready {
		val[0] = 1
	}
	return d.db.Put(widKey(prefixReady, wid), val)
}

// AddAddress inserts an owned address, preserving insertion order and
// deduplicating by chain id.
func (d *DB) AddAddress(meta wallet.AddressMeta) error {
	batch := d.newBatch()
	if err := d.stageAddAddress(batch, meta); err != nil {
		return err
	}
	return batch.Commit()
}

// Addresses returns the wallet's owned addresses in insertion order.
func (d *DB) Addresses(wid wallet.ID) ([]wallet.AddressMeta, error) {
	type seqMeta struct {
		seq  uint32
		meta wallet.AddressMeta
	}
	var entries []seqMeta

	prefix := widKey(prefixAddr, wid)
	err := d.db.ForEach(prefix, func(key, value []byte) error {
		if len(key) != len(prefix)+4 {
			return nil
		}
		var meta wallet.AddressMeta
		if err := json.Unmarshal(value, &meta); err != nil {
			return fmt.Errorf("corrupt address entry: %w", err)
		}
		entries = append(entries, seqMeta{
			seq:  binary.BigEndian.Uint32(key[len(prefix):]),
			meta: meta,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]wallet.AddressMeta, len(entries))
	for i, e := range entries {
		out[i] = e.meta
	}
	return out, nil
}

// UsedObservations returns the wallet's on-chain address observations,
// keyed by (address, header).
func (d *DB) UsedObservations(wid wallet.ID) (map[tracker.AddrHeaderKey]struct{}, error) {
	out := make(map[tracker.AddrHeaderKey]struct{})
	prefix := widKey(prefixUsed, wid)
	err := d.db.ForEach(prefix, func(key, _ []byte) error {
		if len(key) != len(prefix)+types.AddressSize+types.HashSize {
			return nil
		}
		var obs tracker.AddrHeaderKey
		copy(obs.Addr[:], key[len(prefix):len(prefix)+types.AddressSize])
		copy(obs.Header[:], key[len(prefix)+types.AddressSize:])
		out[obs] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UsedAddressSet projects UsedObservations to the address set.
func (d *DB) UsedAddressSet(wid wallet.ID) (map[types.Address]struct{}, error) {
	obs, err := d.UsedObservations(wid)
	if err != nil {
		return nil, err
	}
	out := make(map[types.Address]struct{}, len(obs))
	for key := range obs {
		out[key.Addr] = struct{}{}
	}
	return out, nil
}

// CustomAddresses returns the used or change observations of a wallet.
func (d *DB) CustomAddresses(wid wallet.ID, kind AddressKind) ([]AddressObservation, error) {
	prefix := widKey(prefixUsed, wid)
	if kind == ChangeAddresses {
		prefix = widKey(prefixChange, wid)
	}

	var out []AddressObservation
	err := d.db.ForEach(prefix, func(key, _ []byte) error {
		if len(key) != len(prefix)+types.AddressSize+types.HashSize {
			return nil
		}
		var obs AddressObservation
		copy(obs.Addr[:], key[len(prefix):len(prefix)+types.AddressSize])
		copy(obs.Header[:], key[len(prefix)+types.AddressSize:])
		out = append(out, obs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Utxo returns the wallet's full UTXO map.
func (d *DB) Utxo(wid wallet.ID) (map[types.Outpoint]tx.Output, error) {
	out := make(map[types.Outpoint]tx.Output)
	prefix := widKey(prefixUtxo, wid)
	err := d.db.ForEach(prefix, func(key, value []byte) error {
		if len(key) != len(prefix)+types.HashSize+4 {
			return nil
		}
		var op types.Outpoint
		copy(op.TxID[:], key[len(prefix):len(prefix)+types.HashSize])
		op.Index = binary.BigEndian.Uint32(key[len(prefix)+types.HashSize:])

		var output tx.Output
		if err := json.Unmarshal(value, &output); err != nil {
			return fmt.Errorf("corrupt utxo entry: %w", err)
		}
		out[op] = output
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OwnUtxos returns the wallet's unspent outputs addressed to any of the
// given addresses.
func (d *DB) OwnUtxos(wid wallet.ID, addrs []types.Address) (map[types.Outpoint]tx.Output, error) {
	all, err := d.Utxo(wid)
	if err != nil {
		return nil, err
	}
	want := make(map[types.Address]struct{}, len(addrs))
	for _, a := range addrs {
		want[a] = struct{}{}
	}
	out := make(map[types.Outpoint]tx.Output)
	for op, output := range all {
		if _, ok := want[output.Address]; ok {
			out[op] = output
		}
	}
	return out, nil
}

// Balance sums the wallet's UTXO.
func (d *DB) Balance(wid wallet.ID) (types.Coin, error) {
	utxo, err := d.Utxo(wid)
	if err != nil {
		return 0, err
	}
	var total types.Coin
	for _, out := range utxo {
		total = total.Add(out.Value)
	}
	return total, nil
}

// History returns the wallet's history entries, newest first.
func (d *DB) History(wid wallet.ID) ([]tracker.THEntry, error) {
	var entries []tracker.THEntry
	prefix := widKey(prefixHistory, wid)
	err := d.db.ForEach(prefix, func(_, value []byte) error {
		var entry tracker.THEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return fmt.Errorf("corrupt history entry: %w", err)
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Height != entries[j].Height {
			return entries[i].Height > entries[j].Height
		}
		return entries[i].TxID.String() > entries[j].TxID.String()
	})
	return entries, nil
}

// HistoryEntry returns one history entry, if present.
func (d *DB) HistoryEntry(wid wallet.ID, txID types.Hash) (tracker.THEntry, bool, error) {
	data, err := d.db.Get(historyKey(wid, txID))
	if err != nil {
		return tracker.THEntry{}, false, nil
	}
	var entry tracker.THEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return tracker.THEntry{}, false, fmt.Errorf("corrupt history entry: %w", err)
	}
	return entry, true, nil
}

// TrackPendingTx records a transaction the wallet submitted, so that a
// later confirmation candidate from the tracker attaches to it.
func (d *DB) TrackPendingTx(wid wallet.ID, txID types.Hash) error {
	rec := pendingRecord{TxID: txID}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return d.db.Put(pendingKey(wid, txID), data)
}

// PendingTx returns a pending transaction's confirmation info, if the
// transaction is tracked.
func (d *DB) PendingTx(wid wallet.ID, txID types.Hash) (*tracker.PtxBlockInfo, bool, error) {
	data, err := d.db.Get(pendingKey(wid, txID))
	if err != nil {
		return nil, false, nil
	}
	var rec pendingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false, fmt.Errorf("corrupt pending record: %w", err)
	}
	return rec.Confirmed, true, nil
}

// ApplyModifier atomically commits a whole modifier against the new
// tip. Pending-transaction candidates only attach to transactions this
// wallet tracks; candidates for foreign transactions are dropped here.
func (d *DB) ApplyModifier(wid wallet.ID, newTip types.Hash, mod *tracker.Modifier) error {
	batch := d.newBatch()

	// UTXO deletions before insertions; an op never appears in both.
	for op := range mod.UtxoDel {
		batch.Delete(utxoKey(wid, op))
	}
	for op, out := range mod.UtxoAdd {
		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshal utxo: %w", err)
		}
		batch.Put(utxoKey(wid, op), data)
	}

	for txID := range mod.HistoryDel {
		batch.Delete(historyKey(wid, txID))
	}
	for txID, entry := range mod.HistoryAdd {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal history entry: %w", err)
		}
		batch.Put(historyKey(wid, txID), data)
	}

	for key := range mod.UsedDel {
		batch.Delete(obsKey(prefixUsed, wid, key))
	}
	for key := range mod.UsedAdd {
		batch.Put(obsKey(prefixUsed, wid, key), []byte{})
	}
	for key := range mod.ChangeDel {
		batch.Delete(obsKey(prefixChange, wid, key))
	}
	for key := range mod.ChangeAdd {
		batch.Put(obsKey(prefixChange, wid, key), []byte{})
	}

	for _, meta := range mod.AddrAdd {
		if err := d.stageAddAddress(batch, meta); err != nil {
			return err
		}
	}
	for addr := range mod.AddrDel {
		if err := d.stageDeleteAddress(batch, wid, addr); err != nil {
			return err
		}
	}

	for txID, info := range mod.PtxAdd {
		if _, tracked, err := d.PendingTx(wid, txID); err != nil {
			return err
		} else if !tracked {
			continue
		}
		confirmed := info
		rec := pendingRecord{TxID: txID, Confirmed: &confirmed}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal pending record: %w", err)
		}
		batch.Put(pendingKey(wid, txID), data)
	}
	for txID := range mod.PtxDel {
		if _, tracked, err := d.PendingTx(wid, txID); err != nil {
			return err
		} else if !tracked {
			continue
		}
		// Back to unconfirmed; the transaction itself stays tracked.
		rec := pendingRecord{TxID: txID}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal pending record: %w", err)
		}
		batch.Put(pendingKey(wid, txID), data)
	}

	batch.Put(widKey(prefixTip, wid), newTip[:])

	return batch.Commit()
}

// stageAddAddress stages an insert-order-preserving, deduplicated
// address insertion into the batch.
func (d *DB) stageAddAddress(batch storage.Batch, meta wallet.AddressMeta) error {
	idxKey := addrIdxKey(meta.Wallet, meta.CId)
	if ok, err := d.db.Has(idxKey); err != nil {
		return err
	} else if ok {
		return nil
	}

	seq := d.nextAddrSeq(meta.Wallet)

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal address meta: %w", err)
	}

	var seqBuf [4]byte
	binary.BigEndian.PutUint32(seqBuf[:], seq)
	batch.Put(addrKey(meta.Wallet, seq), data)
	batch.Put(idxKey, seqBuf[:])

	var nextBuf [4]byte
	binary.BigEndian.PutUint32(nextBuf[:], seq+1)
	// Written through immediately so multiple staged inserts in one
	// batch get distinct sequence numbers.
	return d.db.Put(widKey(prefixAddrSeq, meta.Wallet), nextBuf[:])
}

// stageDeleteAddress stages the removal of an address and its index
// entry.
func (d *DB) stageDeleteAddress(batch storage.Batch, wid wallet.ID, addr types.Address) error {
	idxKey := addrIdxKey(wid, addr)
	seqBytes, err := d.db.Get(idxKey)
	if err != nil {
		return nil // Not present; nothing to delete.
	}
	if len(seqBytes) != 4 {
		return fmt.Errorf("corrupt address index entry")
	}
	seq := binary.BigEndian.Uint32(seqBytes)
	batch.Delete(addrKey(wid, seq))
	batch.Delete(idxKey)
	return nil
}

func (d *DB) nextAddrSeq(wid wallet.ID) uint32 {
	data, err := d.db.Get(widKey(prefixAddrSeq, wid))
	if err != nil || len(data) != 4 {
		return 0
	}
	return binary.BigEndian.Uint32(data)
}

// newBatch returns an atomic batch when the backing DB supports one,
// falling back to write-through otherwise.
func (d *DB) newBatch() storage.Batch {
	if batcher, ok := d.db.(storage.Batcher); ok {
		return batcher.NewBatch()
	}
	return &writeThroughBatch{db: d.db}
}

// writeThroughBatch applies operations immediately. Only used with DB
// implementations that lack batching.
type writeThroughBatch struct {
	db storage.DB
}

func (b *writeThroughBatch) Put(key, value []byte) error { return b.db.Put(key, value) }
func (b *writeThroughBatch) Delete(key []byte) error     { return b.db.Delete(key) }
func (b *writeThroughBatch) Commit() error               { return nil }

func widKey(prefix []byte, wid wallet.ID) []byte {
	key := make([]byte, len(prefix)+wallet.IDSize)
	copy(key, prefix)
	copy(key[len(prefix):], wid[:])
	return key
}

func addrKey(wid wallet.ID, seq uint32) []byte {
	base := widKey(prefixAddr, wid)
	key := make([]byte, len(base)+4)
	copy(key, base)
	binary.BigEndian.PutUint32(key[len(base):], seq)
	return key
}

func addrIdxKey(wid wallet.ID, addr types.Address) []byte {
	base := widKey(prefixAddrIdx, wid)
	key := make([]byte, len(base)+types.AddressSize)
	copy(key, base)
	copy(key[len(base):], addr[:])
	return key
}

func utxoKey(wid wallet.ID, op types.Outpoint) []byte {
	base := widKey(prefixUtxo, wid)
	key := make([]byte, len(base)+types.HashSize+4)
	copy(key, base)
	copy(key[len(base):], op.TxID[:])
	binary.BigEndian.PutUint32(key[len(base)+types.HashSize:], op.Index)
	return key
}

func historyKey(wid wallet.ID, txID types.Hash) []byte {
	base := widKey(prefixHistory, wid)
	key := make([]byte, len(base)+types.HashSize)
	copy(key, base)
	copy(key[len(base):], txID[:])
	return key
}

func obsKey(prefix []byte, wid wallet.ID, key tracker.AddrHeaderKey) []byte {
	base := widKey(prefix, wid)
	out := make([]byte, len(base)+types.AddressSize+types.HashSize)
	copy(out, base)
	copy(out[len(base):], key.Addr[:])
	copy(out[len(base)+types.AddressSize:], key.Header[:])
	return out
}

func pendingKey(wid wallet.ID, txID types.Hash) []byte {
	base := widKey(prefixPending, wid)
	key := make([]byte, len(base)+types.HashSize)
	copy(key, base)
	copy(key[len(base):], txID[:])
	return key
}
