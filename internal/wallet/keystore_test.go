package wallet

import (
	"bytes"
	"testing"
)

func testSeed() []byte {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = byte(i * 3)
	}
	return seed
}

func TestKeystore_CreateAndLoad(t *testing.T) {
	ks, err := NewKeystore(t.TempDir())
	if err != nil {
		t.Fatalf("NewKeystore() error: %v", err)
	}

	seed := testSeed()
	if err := ks.Create("alice", seed, []byte("hunter2"), fastParams()); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	loaded, err := ks.Load("alice", []byte("hunter2"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !bytes.Equal(loaded, seed) {
		t.Error("loaded seed should match created seed")
	}
}

func TestKeystore_WrongPassword(t *testing.T) {
	ks, _ := NewKeystore(t.TempDir())
	ks.Create("alice", testSeed(), []byte("right"), fastParams())

	if _, err := ks.Load("alice", []byte("wrong")); err == nil {
		t.Error("Load with wrong password should fail")
	}
}

func TestKeystore_DuplicateCreate(t *testing.T) {
	ks, _ := NewKeystore(t.TempDir())
	ks.Create("alice", testSeed(), []byte("pw"), fastParams())

	if err := ks.Create("alice", testSeed(), []byte("pw"), fastParams()); err == nil {
		t.Error("duplicate Create should fail")
	}
}

func TestKeystore_EncryptedSeedStable(t *testing.T) {
	ks, _ := NewKeystore(t.TempDir())
	ks.Create("alice", testSeed(), []byte("pw"), fastParams())

	enc1, err := ks.EncryptedSeed("alice")
	if err != nil {
		t.Fatalf("EncryptedSeed() error: %v", err)
	}
	enc2, err := ks.EncryptedSeed("alice")
	if err != nil {
		t.Fatalf("EncryptedSeed() error: %v", err)
	}
	if !bytes.Equal(enc1, enc2) {
		t.Error("encrypted seed should be stable across reads")
	}
	if IDFromEncryptedSeed(enc1) != IDFromEncryptedSeed(enc2) {
		t.Error("wallet id should be stable across reads")
	}
}

func TestKeystore_ListAndDelete(t *testing.T) {
	ks, _ := NewKeystore(t.TempDir())
	ks.Create("alice", testSeed(), []byte("pw"), fastParams())
	ks.Create("bob", testSeed(), []byte("pw"), fastParams())

	names, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("List() = %d wallets, want 2", len(names))
	}

	if err := ks.Delete("alice"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	names, _ = ks.List()
	if len(names) != 1 || names[0] != "bob" {
		t.Errorf("after delete, List() = %v, want [bob]", names)
	}

	if err := ks.Delete("alice"); err == nil {
		t.Error("deleting a missing wallet should fail")
	}
}
