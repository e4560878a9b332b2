// Package crypto provides the hash, Merkle, and ed25519 signature
// collaborators consumed by the block package. Nothing in this package
// knows about blocks, transactions, or the chain — it is pure plumbing.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// MarshalJSON encodes h as its lowercase hex string, the wire shape used
// for every hash and ID in this module.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.Hex() + `"`), nil
}

// UnmarshalJSON decodes a lowercase hex string into h.
func (h *Hash) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("hash: invalid JSON hash %q", data)
	}
	decoded, err := FromHex(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// Size is the byte width of a Hash.
const Size = sha256.Size

// Hash is a fixed-width content hash. The zero value is the distinguished
// all-zero sentinel used for "empty" and genesis linkage.
type Hash [Size]byte

// Sum returns the SHA-256 hash of data.
func Sum(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// Zero is the all-zero sentinel hash.
func Zero() Hash {
	return Hash{}
}

// IsZero reports whether h is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Bytes returns a copy of the raw hash bytes.
func (h Hash) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, h[:])
	return b
}

// Hex returns the lowercase hex encoding of h.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// String implements fmt.Stringer.
func (h Hash) String() string {
	return h.Hex()
}

// FromHex decodes a lowercase hex string into a Hash.
func FromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(b) != Size {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", Size, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}
