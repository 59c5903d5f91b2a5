package crypto

import (
	"bytes"
	"testing"
)

func TestHash_Deterministic(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("same input should produce same hash")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("different inputs should produce different hashes")
	}
}

func TestSignAndVerify(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	msg := Hash([]byte("sign me"))
	sig, err := key.Sign(msg[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if !VerifySignature(msg[:], sig, key.PublicKey()) {
		t.Error("signature should verify")
	}

	other := Hash([]byte("something else"))
	if VerifySignature(other[:], sig, key.PublicKey()) {
		t.Error("signature should not verify for different message")
	}
}

func TestSign_RejectsShortHash(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if _, err := key.Sign([]byte("short")); err == nil {
		t.Error("Sign should reject non-32-byte input")
	}
}

func TestPrivateKeyFromBytes_RoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}

	restored, err := PrivateKeyFromBytes(key.Serialize())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes() error: %v", err)
	}
	if !bytes.Equal(restored.PublicKey(), key.PublicKey()) {
		t.Error("restored key should have the same public key")
	}
}

func TestRedeemKey(t *testing.T) {
	secret := make([]byte, 32)
	secret[0] = 0x7a
	secret[31] = 0x01

	rk, err := RedeemKeyFromBytes(secret)
	if err != nil {
		t.Fatalf("RedeemKeyFromBytes() error: %v", err)
	}

	addr := rk.Address()
	if addr.IsZero() {
		t.Error("redeem address should not be zero")
	}
	if addr != MakeRedeemAddress(rk.PublicKey()) {
		t.Error("Address() should match MakeRedeemAddress of the pubkey")
	}

	msg := Hash([]byte("redeem"))
	sig, err := rk.Sign(msg[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !VerifySignature(msg[:], sig, rk.PublicKey()) {
		t.Error("redeem signature should verify")
	}
}

func TestAddressFromPubKey_Stable(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	a1 := AddressFromPubKey(key.PublicKey())
	a2 := AddressFromPubKey(key.PublicKey())
	if a1 != a2 {
		t.Error("address derivation should be deterministic")
	}
}
