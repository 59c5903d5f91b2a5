package tracker

import (
	"reflect"
	"testing"

	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

func TestModifier_EmptyIdentity(t *testing.T) {
	m := NewModifier()
	if !m.IsEmpty() {
		t.Error("new modifier should be empty")
	}

	other := NewModifier()
	other.InsertUtxo(types.Outpoint{TxID: crypto.Hash([]byte("a"))}, tx.Output{Value: 1})

	m.Compose(other)
	if len(m.UtxoAdd) != 1 {
		t.Error("composing onto empty should carry the insertion")
	}
}

func TestModifier_DeleteCancelsInsert(t *testing.T) {
	op := types.Outpoint{TxID: crypto.Hash([]byte("a"))}

	m := NewModifier()
	m.InsertUtxo(op, tx.Output{Value: 5})
	m.DeleteUtxo(op)

	if !m.IsEmpty() {
		t.Error("insert then delete of the same outpoint should cancel")
	}
}

func TestModifier_InsertCancelsDelete(t *testing.T) {
	op := types.Outpoint{TxID: crypto.Hash([]byte("a"))}

	m := NewModifier()
	m.DeleteUtxo(op)
	m.InsertUtxo(op, tx.Output{Value: 5})

	if !m.IsEmpty() {
		t.Error("delete then insert of the same outpoint should cancel")
	}
}

func TestModifier_HistoryLaterInsertWins(t *testing.T) {
	txID := crypto.Hash([]byte("tx"))

	m := NewModifier()
	m.InsertHistory(THEntry{TxID: txID, Height: 1})
	m.InsertHistory(THEntry{TxID: txID, Height: 2})

	if m.HistoryAdd[txID].Height != 2 {
		t.Error("later history insertion should win")
	}
}

func TestModifier_AddressOrderPreserved(t *testing.T) {
	m := NewModifier()
	a := externalAddr(0x0a)
	b := externalAddr(0x0b)

	m.InsertAddress(metaFor(b))
	m.InsertAddress(metaFor(a))
	m.InsertAddress(metaFor(b)) // duplicate, ignored

	if len(m.AddrAdd) != 2 {
		t.Fatalf("address count = %d, want 2", len(m.AddrAdd))
	}
	if m.AddrAdd[0].CId != b || m.AddrAdd[1].CId != a {
		t.Error("addresses should keep insertion order")
	}

	m.DeleteAddress(b)
	if len(m.AddrAdd) != 1 || m.AddrAdd[0].CId != a {
		t.Error("deleting a pending insertion should remove it from the list")
	}
}

func TestModifier_ComposeAssociative(t *testing.T) {
	opA := types.Outpoint{TxID: crypto.Hash([]byte("a"))}
	opB := types.Outpoint{TxID: crypto.Hash([]byte("b"))}
	key := AddrHeaderKey{Addr: externalAddr(0x01), Header: crypto.Hash([]byte("h"))}

	build := func() (*Modifier, *Modifier, *Modifier) {
		m1 := NewModifier()
		m1.InsertUtxo(opA, tx.Output{Value: 1})
		m1.InsertUsed(key)

		m2 := NewModifier()
		m2.DeleteUtxo(opA)
		m2.InsertUtxo(opB, tx.Output{Value: 2})

		m3 := NewModifier()
		m3.DeleteUsed(key)
		return m1, m2, m3
	}

	// (m1 ∘ m2) ∘ m3
	l1, l2, l3 := build()
	l1.Compose(l2)
	l1.Compose(l3)

	// m1 ∘ (m2 ∘ m3)
	r1, r2, r3 := build()
	r2.Compose(r3)
	r1.Compose(r2)

	if !reflect.DeepEqual(l1, r1) {
		t.Errorf("compose not associative:\nleft  = %+v\nright = %+v", l1, r1)
	}
}

func TestModifier_DeletePtxKeepsRemovalToken(t *testing.T) {
	txID := crypto.Hash([]byte("tx"))

	m := NewModifier()
	m.InsertPtx(txID, PtxBlockInfo{Height: 3})
	m.DeletePtx(txID, PtxRemoval{Slot: 17})

	if len(m.PtxAdd) != 0 {
		t.Error("delete should drop the pending insertion")
	}
	if removal, ok := m.PtxDel[txID]; !ok || removal.Slot != 17 {
		t.Error("delete should keep its removal token")
	}
}

func metaFor(addr types.Address) wallet.AddressMeta {
	return wallet.AddressMeta{CId: addr}
}
