package types

import (
	"encoding/json"
	"testing"
)

func testAddr() Address {
	return Address{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
		0x11, 0x12, 0x13, 0x14}
}

func TestAddress_StringRoundTrip(t *testing.T) {
	a := testAddr()
	s := a.String()
	if s[:4] != "vnt1" {
		t.Errorf("String() = %q, want vnt1 prefix", s)
	}

	parsed, err := ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress() error: %v", err)
	}
	if parsed != a {
		t.Errorf("round trip mismatch: %s != %s", parsed, a)
	}
}

func TestParseAddress_RawHex(t *testing.T) {
	a := testAddr()
	parsed, err := ParseAddress(a.Hex())
	if err != nil {
		t.Fatalf("ParseAddress() error: %v", err)
	}
	if parsed != a {
		t.Error("hex parse mismatch")
	}
}

func TestParseAddress_Empty(t *testing.T) {
	if _, err := ParseAddress(""); err == nil {
		t.Error("ParseAddress(\"\") should error")
	}
}

func TestParseAddress_WrongLength(t *testing.T) {
	if _, err := ParseAddress("abcdef"); err == nil {
		t.Error("ParseAddress should reject short hex")
	}
}

func TestAddress_JSONRoundTrip(t *testing.T) {
	a := testAddr()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var decoded Address
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if decoded != a {
		t.Error("JSON round trip mismatch")
	}
}

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero address should be IsZero")
	}
	if testAddr().IsZero() {
		t.Error("non-zero address should not be IsZero")
	}
}
