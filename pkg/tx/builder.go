package tx

import (
	"fmt"

	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Builder constructs transactions incrementally and signs them into an
// Aux with one witness per input.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{
		tx: &Transaction{Version: 1},
	}
}

// AddInput adds an input referencing a previous output.
func (b *Builder) AddInput(prevOut types.Outpoint) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, Input{PrevOut: prevOut})
	return b
}

// AddOutput adds an output paying value to addr.
func (b *Builder) AddOutput(addr types.Address, value types.Coin) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Address: addr, Value: value})
	return b
}

// SetAttribute records a transaction attribute.
func (b *Builder) SetAttribute(key, value string) *Builder {
	if b.tx.Attributes == nil {
		b.tx.Attributes = make(map[string]string)
	}
	b.tx.Attributes[key] = value
	return b
}

// Sign signs all inputs with the provided signer (single-owner spending)
// and returns the signed transaction.
func (b *Builder) Sign(signer crypto.Signer) (*Aux, error) {
	hash := b.tx.Hash()
	sig, err := signer.Sign(hash[:])
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	w := Witness{Signature: sig, PubKey: signer.PublicKey()}

	witnesses := make([]Witness, len(b.tx.Inputs))
	for i := range witnesses {
		witnesses[i] = w
	}
	return &Aux{Tx: b.tx, Witnesses: witnesses}, nil
}

// SignEach signs each input with the signer selected by signerFor, which
// receives the input's position. Signers are resolved per input so a
// transaction can spend outputs owned by different keys.
func (b *Builder) SignEach(signerFor func(i int) (crypto.Signer, error)) (*Aux, error) {
	hash := b.tx.Hash()

	// Cache signatures: same key always produces the same witness for
	// the same hash.
	cache := make(map[string]Witness)

	witnesses := make([]Witness, len(b.tx.Inputs))
	for i := range b.tx.Inputs {
		signer, err := signerFor(i)
		if err != nil {
			return nil, fmt.Errorf("resolve signer for input %d: %w", i, err)
		}

		key := string(signer.PublicKey())
		w, cached := cache[key]
		if !cached {
			sig, err := signer.Sign(hash[:])
			if err != nil {
				return nil, fmt.Errorf("sign input %d: %w", i, err)
			}
			w = Witness{Signature: sig, PubKey: signer.PublicKey()}
			cache[key] = w
		}
		witnesses[i] = w
	}
	return &Aux{Tx: b.tx, Witnesses: witnesses}, nil
}

// Build returns the constructed transaction without signing.
func (b *Builder) Build() *Transaction {
	return b.tx
}
