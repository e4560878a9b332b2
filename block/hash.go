package block

import "github.com/ledgerforge/corechain/crypto"

// Hash is a content hash typed by the block state it identifies, while
// staying byte-identical across states: only the header is ever hashed.
// The phantom type parameter S prevents, at compile time,
// comparing a Valid hash to a ValidSigned hash directly; callers outside
// the package compare Raw() values instead.
type Hash[S any] struct {
	raw crypto.Hash
}

// Bytes returns a copy of the raw hash bytes.
func (h Hash[S]) Bytes() []byte { return h.raw.Bytes() }

// Hex returns the lowercase hex encoding of h.
func (h Hash[S]) Hex() string { return h.raw.Hex() }

// IsZero reports whether h is the all-zero sentinel.
func (h Hash[S]) IsZero() bool { return h.raw.IsZero() }

// Equal reports whether two same-typed hashes carry identical bytes.
func (h Hash[S]) Equal(other Hash[S]) bool { return h.raw == other.raw }

// Raw exposes the untyped hash, e.g. to compare against a plain
// crypto.Hash received from elsewhere (Candidate revalidation compares
// against latestBlockHash, which arrives untyped from the chain).
func (h Hash[S]) Raw() crypto.Hash { return h.raw }

func newHash[S any](raw crypto.Hash) Hash[S] {
	return Hash[S]{raw: raw}
}

// retag converts a Hash from one state to another without touching the
// underlying bytes; nothing is recomputed. It is unexported, and no
// transition method calls it: each state's Hash() hashes its header
// afresh, which yields the same bytes because the header is unchanged.
func retag[From, To any](h Hash[From]) Hash[To] {
	return Hash[To]{raw: h.raw}
}
