package block

import "github.com/ledgerforge/corechain/crypto"

// Signature is one signer's signature over a header hash.
type Signature struct {
	SignerID string
	Bytes    []byte
}

// SignatureSet is a set of Signatures keyed by signer identity.
// Insertion order is preserved for deterministic iteration.
type SignatureSet struct {
	order []string
	bySig map[string]Signature
}

func newSignatureSet() SignatureSet {
	return SignatureSet{bySig: make(map[string]Signature)}
}

// insert adds sig, deduplicating by SignerID. Re-inserting a signer that
// is already present is a no-op.
func (s *SignatureSet) insert(sig Signature) {
	if _, exists := s.bySig[sig.SignerID]; exists {
		return
	}
	s.order = append(s.order, sig.SignerID)
	s.bySig[sig.SignerID] = sig
}

// Len returns the number of distinct signers.
func (s SignatureSet) Len() int { return len(s.order) }

// List returns the signatures in insertion order.
func (s SignatureSet) List() []Signature {
	out := make([]Signature, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.bySig[id])
	}
	return out
}

// Has reports whether signerID already has a signature in the set.
func (s SignatureSet) Has(signerID string) bool {
	_, ok := s.bySig[signerID]
	return ok
}

// VerifiedSignatures returns, in insertion order, the signatures whose
// cryptographic verification against h succeeds. Verification
// is pure and may be called repeatedly.
func (s SignatureSet) VerifiedSignatures(h crypto.Hash) []Signature {
	out := make([]Signature, 0, len(s.order))
	for _, id := range s.order {
		sig := s.bySig[id]
		if crypto.VerifyHash(sig.SignerID, h, sig.Bytes) {
			out = append(out, sig)
		}
	}
	return out
}

// clone returns a deep copy so retagging ValidSigned<->Committed never
// lets two states share a mutable signature set.
func (s SignatureSet) clone() SignatureSet {
	cp := newSignatureSet()
	for _, id := range s.order {
		cp.insert(s.bySig[id])
	}
	return cp
}
