package wallet

import (
	"bytes"
	"testing"

	"github.com/Vantar-tech/vantar-wallet/pkg/crypto"
)

func TestNewMasterKey_RejectsShortSeed(t *testing.T) {
	if _, err := NewMasterKey([]byte("short")); err == nil {
		t.Error("NewMasterKey should reject non-64-byte seeds")
	}
}

func TestDeriveAddressKey_Deterministic(t *testing.T) {
	master := testMaster(t)

	k1, err := master.DeriveAddressKey(0, 0)
	if err != nil {
		t.Fatalf("DeriveAddressKey() error: %v", err)
	}
	k2, err := master.DeriveAddressKey(0, 0)
	if err != nil {
		t.Fatalf("DeriveAddressKey() error: %v", err)
	}
	if k1.Address() != k2.Address() {
		t.Error("same path should derive the same address")
	}

	k3, err := master.DeriveAddressKey(0, 1)
	if err != nil {
		t.Fatalf("DeriveAddressKey() error: %v", err)
	}
	if k1.Address() == k3.Address() {
		t.Error("different paths should derive different addresses")
	}
}

func TestHDKey_SignerMatchesAddress(t *testing.T) {
	master := testMaster(t)
	key, err := master.DeriveAddressKey(2, 7)
	if err != nil {
		t.Fatalf("DeriveAddressKey() error: %v", err)
	}

	signer, err := key.Signer()
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	if !bytes.Equal(signer.PublicKey(), key.PublicKeyBytes()) {
		t.Error("signer public key should match HD key public key")
	}
	if crypto.AddressFromPubKey(signer.PublicKey()) != key.Address() {
		t.Error("signer should control the derived address")
	}
}

func TestHDKey_Neuter(t *testing.T) {
	master := testMaster(t)
	pub := master.Neuter()

	if pub.IsPrivate() {
		t.Error("neutered key should not be private")
	}
	if pub.PrivateKeyBytes() != nil {
		t.Error("neutered key should have no private bytes")
	}
	if _, err := pub.Signer(); err == nil {
		t.Error("neutered key should not produce a signer")
	}
}
