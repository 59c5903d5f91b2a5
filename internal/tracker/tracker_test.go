package tracker

import (
	"testing"

	"github.com/Vantar-tech/vantar-wallet/internal/wallet"
	"github.com/Vantar-tech/vantar-wallet/pkg/block"
	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
	"github.com/Vantar-tech/vantar-wallet/pkg/tx"
	"github.com/Vantar-tech/vantar-wallet/pkg/types"
)

// Shared fixtures for the tracker tests. The wallet owns every address
// at m/44'/7421'/account'/0/index for account < 2, index < 4.

func fixtureMaster(t *testing.T) *wallet.HDKey {
	t.Helper()
	seed := make([]byte, wallet.SeedSize)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		t.Fatalf("NewMasterKey() error: %v", err)
	}
	return master
}

func fixtureCreds(t *testing.T) *wallet.DecrCredentials {
	t.Helper()
	id := wallet.IDFromEncryptedSeed([]byte("tracker fixture wallet"))
	creds, err := wallet.Credentials(id, fixtureMaster(t), 2, 4)
	if err != nil {
		t.Fatalf("Credentials() error: %v", err)
	}
	return creds
}

// ownAddr returns the wallet-owned address at the given HD coordinates.
func ownAddr(t *testing.T, account, index uint32) types.Address {
	t.Helper()
	key, err := fixtureMaster(t).DeriveAddressKey(account, index)
	if err != nil {
		t.Fatalf("DeriveAddressKey() error: %v", err)
	}
	return key.Address()
}

// externalAddr returns an address the wallet does not own.
func externalAddr(b byte) types.Address {
	var a types.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func mkHeader(height uint64, seed string) *block.Header {
	return &block.Header{
		Version:    1,
		PrevHash:   crypto.Hash([]byte(seed + "/prev")),
		MerkleRoot: crypto.Hash([]byte(seed + "/merkle")),
		Timestamp:  1700000000 + height*20,
		Height:     height,
	}
}

func mkAux(inputs []tx.Input, outputs []tx.Output) *tx.Aux {
	return &tx.Aux{
		Tx: &tx.Transaction{
			Version: 1,
			Inputs:  inputs,
			Outputs: outputs,
		},
		Witnesses: make([]tx.Witness, len(inputs)),
	}
}

func externalInput(seed string) tx.Input {
	return tx.Input{PrevOut: types.Outpoint{TxID: crypto.Hash([]byte(seed))}}
}

func noUsed() map[AddrHeaderKey]struct{} {
	return map[AddrHeaderKey]struct{}{}
}
