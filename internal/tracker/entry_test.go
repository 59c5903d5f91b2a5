package tracker

import (
	"testing"

	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
)

func TestBuildEntryExtra_Receive(t *testing.T) {
	creds := fixtureCreds(t)
	a := ownAddr(t, 0, 0)
	header := mkHeader(1, "b1")

	aux := mkAux(
		[]tx.Input{externalInput("ext")},
		[]tx.Output{{Address: a, Value: 100}},
	)
	undo := tx.Undo{{Address: externalAddr(0xee), Value: 100}}

	extra := BuildEntryExtra(creds, aux, undo, header)

	if len(extra.OwnInputs) != 0 {
		t.Errorf("own inputs = %d, want 0", len(extra.OwnInputs))
	}
	if len(extra.OwnOutputs) != 1 {
		t.Fatalf("own outputs = %d, want 1", len(extra.OwnOutputs))
	}
	if !extra.IsInteresting() {
		t.Error("receive should be interesting")
	}
	if extra.Entry.Direction != Incoming {
		t.Errorf("direction = %s, want incoming", extra.Entry.Direction)
	}
	if extra.Entry.Received != 100 || extra.Entry.Spent != 0 {
		t.Errorf("totals = spent %d received %d, want 0/100", extra.Entry.Spent, extra.Entry.Received)
	}
	if extra.Entry.Height != header.Height || extra.Entry.Timestamp != header.Timestamp {
		t.Error("entry should carry the block's difficulty and timestamp")
	}
}

func TestBuildEntryExtra_Send(t *testing.T) {
	creds := fixtureCreds(t)
	a := ownAddr(t, 0, 0)
	header := mkHeader(2, "b2")

	aux := mkAux(
		[]tx.Input{externalInput("spent")},
		[]tx.Output{{Address: externalAddr(0xee), Value: 60}},
	)
	undo := tx.Undo{{Address: a, Value: 100}}

	extra := BuildEntryExtra(creds, aux, undo, header)

	if len(extra.OwnInputs) != 1 {
		t.Fatalf("own inputs = %d, want 1", len(extra.OwnInputs))
	}
	if extra.Entry.Direction != Outgoing {
		t.Errorf("direction = %s, want outgoing", extra.Entry.Direction)
	}
	if extra.Entry.Spent != 100 {
		t.Errorf("spent = %d, want 100", extra.Entry.Spent)
	}
}

func TestBuildEntryExtra_Internal(t *testing.T) {
	creds := fixtureCreds(t)
	a := ownAddr(t, 0, 0)
	b := ownAddr(t, 0, 1)
	header := mkHeader(3, "b3")

	aux := mkAux(
		[]tx.Input{externalInput("own")},
		[]tx.Output{{Address: b, Value: 100}},
	)
	undo := tx.Undo{{Address: a, Value: 100}}

	extra := BuildEntryExtra(creds, aux, undo, header)
	if extra.Entry.Direction != Internal {
		t.Errorf("direction = %s, want internal", extra.Entry.Direction)
	}
}

func TestBuildEntryExtra_Uninteresting(t *testing.T) {
	creds := fixtureCreds(t)
	header := mkHeader(4, "b4")

	aux := mkAux(
		[]tx.Input{externalInput("ext")},
		[]tx.Output{{Address: externalAddr(0xee), Value: 5}},
	)
	undo := tx.Undo{{Address: externalAddr(0xdd), Value: 5}}

	extra := BuildEntryExtra(creds, aux, undo, header)
	if extra.IsInteresting() {
		t.Error("fully foreign tx should not be interesting")
	}
}

func TestBuildEntryExtra_UnknownInputSkipped(t *testing.T) {
	creds := fixtureCreds(t)
	a := ownAddr(t, 0, 0)
	header := mkHeader(5, "b5")

	aux := mkAux(
		[]tx.Input{{Unknown: &tx.UnknownInput{Tag: 1, Data: []byte("x")}}},
		[]tx.Output{{Address: a, Value: 7}},
	)
	// Undo still carries one entry per input, even unknown ones.
	undo := tx.Undo{{}}

	extra := BuildEntryExtra(creds, aux, undo, header)
	if len(extra.OwnInputs) != 0 {
		t.Error("unknown inputs should never classify as own")
	}
	if len(extra.OwnOutputs) != 1 {
		t.Error("outputs should classify normally")
	}
}

func TestBuildEntryExtra_UndoMismatchPanics(t *testing.T) {
	creds := fixtureCreds(t)
	header := mkHeader(6, "b6")
	aux := mkAux(
		[]tx.Input{externalInput("a"), externalInput("b")},
		[]tx.Output{{Address: externalAddr(0xee), Value: 1}},
	)

	defer func() {
		if recover() == nil {
			t.Error("undo/input length mismatch should panic")
		}
	}()
	BuildEntryExtra(creds, aux, tx.Undo{{}}, header)
}
