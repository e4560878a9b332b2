package block

import (
	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
)

// Signer is the signing collaborator contract: anything that
// can produce a signature over a header hash and identify itself as the
// signer. crypto.KeyPair satisfies this structurally.
type Signer interface {
	Identity() string
	SignHash(h crypto.Hash) ([]byte, error)
}

// Limits bounds a transaction's admission into a block.
type Limits struct {
	MaxInstructions uint64
	MaxWasmSize     uint64
}

// Decision is the outcome of running a transaction through a Validator.
type Decision struct {
	Accepted bool
	Tx       *txn.Transaction
	// Reason is set when Accepted is false.
	Reason string
}

// WorldStateView is the read-only world-state collaborator.
type WorldStateView interface {
	IsInBlockchain(txHash crypto.Hash) bool
}

// Validator is the transaction validation collaborator. Admit enforces
// the validator's own resource Limits during admission; Validate
// re-executes a
// transaction against wsv and reports accept/reject. An Admit error is
// fatal only when Candidate.Revalidate re-admits a transaction the sender
// accepted; Chained.Validate, and Revalidate for a transaction the sender
// rejected, record it as an ordinary rejection.
type Validator interface {
	Limits() Limits
	Admit(tx *txn.Transaction, limits Limits) error
	Validate(tx *txn.Transaction, isGenesis bool, wsv WorldStateView) Decision
}
