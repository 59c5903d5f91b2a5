package types

import (
	"encoding/json"
	"testing"
)

func TestHash_HexRoundTrip(t *testing.T) {
	h := Hash{0xde, 0xad, 0xbe, 0xef}
	parsed, err := HexToHash(h.String())
	if err != nil {
		t.Fatalf("HexToHash() error: %v", err)
	}
	if parsed != h {
		t.Error("hex round trip mismatch")
	}
}

func TestHexToHash_WrongLength(t *testing.T) {
	if _, err := HexToHash("abcd"); err == nil {
		t.Error("HexToHash should reject short input")
	}
}

func TestHash_JSONRoundTrip(t *testing.T) {
	h := Hash{0x01, 0x02, 0x03}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var decoded Hash
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if decoded != h {
		t.Error("JSON round trip mismatch")
	}
}

func TestHash_IsZero(t *testing.T) {
	var zero Hash
	if !zero.IsZero() {
		t.Error("zero hash should be IsZero")
	}
	if (Hash{0x01}).IsZero() {
		t.Error("non-zero hash should not be IsZero")
	}
}
