// Package tx defines transaction types for the Vantar wallet core.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Transaction represents a blockchain transaction. Witness data lives in
// Aux, never in the transaction itself, so the id is stable across
// signing.
type Transaction struct {
	Version    uint32            `json:"version"`
	Inputs     []Input           `json:"inputs"`
	Outputs    []Output          `json:"outputs"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Input references a UTXO being spent, or carries an opaque payload this
// node cannot interpret (forward compatibility with newer input kinds).
type Input struct {
	PrevOut types.Outpoint `json:"prevout"`
	Unknown *UnknownInput  `json:"unknown,omitempty"`
}

// UnknownInput is an input of a kind this node does not understand.
// The raw payload is preserved so the transaction still round-trips.
type UnknownInput struct {
	Tag  uint8  `json:"tag"`
	Data []byte `json:"data"`
}

// IsUnknown returns true if the input is of an unrecognized kind.
func (in Input) IsUnknown() bool {
	return in.Unknown != nil
}

// Output pays a coin amount to an address.
type Output struct {
	Address types.Address `json:"address"`
	Value   types.Coin    `json:"value"`
}

// Witness proves the right to spend one input.
type Witness struct {
	Signature []byte `json:"signature"`
	PubKey    []byte `json:"pubkey"`
}

// witnessJSON is the JSON representation of Witness with hex-encoded fields.
type witnessJSON struct {
	Signature string `json:"signature"`
	PubKey    string `json:"pubkey"`
}

// MarshalJSON encodes the witness with hex-encoded signature and pubkey.
func (w Witness) MarshalJSON() ([]byte, error) {
	return json.Marshal(witnessJSON{
		Signature: hex.EncodeToString(w.Signature),
		PubKey:    hex.EncodeToString(w.PubKey),
	})
}

// UnmarshalJSON decodes a witness with hex-encoded signature and pubkey.
func (w *Witness) UnmarshalJSON(data []byte) error {
	var j witnessJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	sig, err := hex.DecodeString(j.Signature)
	if err != nil {
		return err
	}
	pub, err := hex.DecodeString(j.PubKey)
	if err != nil {
		return err
	}
	w.Signature = sig
	w.PubKey = pub
	return nil
}

// Aux bundles a transaction with its witnesses. Witnesses[i] witnesses
// Inputs[i]; a fully signed transaction has one witness per input.
type Aux struct {
	Tx        *Transaction `json:"tx"`
	Witnesses []Witness    `json:"witnesses"`
}

// ID returns the transaction id of the wrapped transaction.
func (a *Aux) ID() types.Hash {
	return a.Tx.Hash()
}

// Undo records, for each input of a transaction, the output it consumed,
// in input order. Rollback restores these without consulting chain state.
type Undo []Output

// Hash computes the transaction id (BLAKE3 hash of the serialized
// transaction, excluding witnesses).
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for
// hashing and signing.
//
// Format: version(4) | input_count(4) | inputs... | output_count(4) |
// [value(8) + address(20)]... | attr_count(4) | [key,value]...
// Each input is kind(1) followed by either prevout(36) or
// tag(1) + data_len(4) + data.
func (tx *Transaction) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, tx.Version)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		if in.Unknown != nil {
			buf = append(buf, 1)
			buf = append(buf, in.Unknown.Tag)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(in.Unknown.Data)))
			buf = append(buf, in.Unknown.Data...)
			continue
		}
		buf = append(buf, 0)
		buf = append(buf, in.PrevOut.TxID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, in.PrevOut.Index)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(out.Value))
		buf = append(buf, out.Address[:]...)
	}

	// Attributes in sorted key order for determinism.
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Attributes)))
	for _, k := range sortedKeys(tx.Attributes) {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(k)))
		buf = append(buf, k...)
		v := tx.Attributes[k]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v)))
		buf = append(buf, v...)
	}

	return buf
}

// TotalOutputValue returns the sum of all output values.
// Returns an error if the sum overflows.
func (tx *Transaction) TotalOutputValue() (types.Coin, error) {
	var total types.Coin
	for _, out := range tx.Outputs {
		if total > types.MaxCoin-out.Value {
			return 0, fmt.Errorf("output value overflow")
		}
		total += out.Value
	}
	return total, nil
}

// Validate checks structural rules: at least one input and one output,
// and no output exceeding the maximum coin amount when summed.
func (tx *Transaction) Validate() error {
	if len(tx.Inputs) == 0 {
		return fmt.Errorf("transaction has no inputs")
	}
	if len(tx.Outputs) == 0 {
		return fmt.Errorf("transaction has no outputs")
	}
	if _, err := tx.TotalOutputValue(); err != nil {
		return err
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
