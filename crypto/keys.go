package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// PrivateKey and PublicKey are raw ed25519 key bytes. The module never
// signs arbitrary messages with them: a key pair signs precomputed hashes
// (block header hashes and transaction hashes), and its public half,
// hex-encoded, is the SignerID that keys a block's signature set.
type PrivateKey []byte

type PublicKey []byte

// KeyPair is a node's signing identity.
type KeyPair struct {
	Priv PrivateKey
	Pub  PublicKey
}

// NewKeyPair generates a fresh ed25519 signing identity.
func NewKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("crypto: generate key pair: %w", err)
	}
	return KeyPair{Priv: PrivateKey(priv), Pub: PublicKey(pub)}, nil
}

// Identity returns the hex-encoded public key, the SignerID under which
// this key pair's signatures are recorded and deduplicated.
func (k KeyPair) Identity() string {
	return hex.EncodeToString(k.Pub)
}

// SignHash signs a precomputed hash: a block header hash or a transaction
// hash. The caller computed it from canonical bytes already; there is
// nothing else to marshal.
func (k KeyPair) SignHash(h Hash) ([]byte, error) {
	if len(k.Priv) != ed25519.PrivateKeySize {
		return nil, errors.New("crypto: key pair has no private key")
	}
	return ed25519.Sign(ed25519.PrivateKey(k.Priv), h[:]), nil
}

// VerifyHash reports whether sig is signerID's valid signature over h.
// A malformed signer identity verifies as false rather than erroring: a
// signature set may carry entries from unknown peers, and filtering them
// out is exactly what verification is for.
func VerifyHash(signerID string, h Hash, sig []byte) bool {
	pub, err := ParseSignerID(signerID)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), h[:], sig)
}

// ParseSignerID decodes the hex signer identity recorded in a signature
// set back into the public key it names.
func ParseSignerID(s string) (PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: signer id is not hex: %w", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("crypto: signer id is %d bytes, want %d", len(b), ed25519.PublicKeySize)
	}
	return PublicKey(b), nil
}

// Pair rebuilds the full signing identity from a stored private key:
// ed25519 private keys embed their public half, so nothing else needs to
// be persisted to recover the signer.
func (priv PrivateKey) Pair() (KeyPair, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return KeyPair{}, fmt.Errorf("crypto: private key is %d bytes, want %d", len(priv), ed25519.PrivateKeySize)
	}
	pub := ed25519.PrivateKey(priv).Public().(ed25519.PublicKey)
	return KeyPair{Priv: priv, Pub: PublicKey(pub)}, nil
}

// Hex returns pub in the same encoding Identity uses.
func (pub PublicKey) Hex() string {
	return hex.EncodeToString(pub)
}

// Address derives the short operator-facing form of a validator
// identity: the first 20 bytes of SHA-256(pubkey), hex-encoded. It
// appears in logs and CLI output, never in a signature set.
func (pub PublicKey) Address() string {
	sum := Sum(pub)
	return hex.EncodeToString(sum[:20])
}
