package crypto

import "testing"

func TestSumDeterministic(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Error("Sum is not deterministic")
	}
	if Sum([]byte("hello")) == Sum([]byte("world")) {
		t.Error("different inputs hashed to the same value")
	}
}

func TestZeroIsZero(t *testing.T) {
	if !Zero().IsZero() {
		t.Error("Zero() should report IsZero() true")
	}
	if Sum([]byte("x")).IsZero() {
		t.Error("a real hash should not report IsZero()")
	}
}

func TestHexRoundTrip(t *testing.T) {
	h := Sum([]byte("roundtrip"))
	decoded, err := FromHex(h.Hex())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if decoded != h {
		t.Error("hex round-trip did not preserve bytes")
	}
}

func TestFromHexRejectsWrongLength(t *testing.T) {
	if _, err := FromHex("deadbeef"); err == nil {
		t.Error("expected error for short hex")
	}
}

func TestHashJSONRoundTrip(t *testing.T) {
	h := Sum([]byte("json"))
	data, err := h.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var decoded Hash
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if decoded != h {
		t.Error("JSON round-trip did not preserve bytes")
	}
}
