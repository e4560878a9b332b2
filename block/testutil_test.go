package block

import (
	"testing"

	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
)

// acceptAllValidator accepts every transaction it sees and never admits
// anything into IsInBlockchain; tests that need rejection supply their
// own small Validator implementations instead.
type acceptAllValidator struct{}

func (acceptAllValidator) Limits() Limits                                 { return Limits{} }
func (acceptAllValidator) Admit(tx *txn.Transaction, limits Limits) error { return nil }
func (acceptAllValidator) Validate(tx *txn.Transaction, isGenesis bool, wsv WorldStateView) Decision {
	return Decision{Accepted: true, Tx: tx}
}

// rejectAllValidator rejects every transaction with a fixed reason.
type rejectAllValidator struct{ reason string }

func (rejectAllValidator) Limits() Limits                                 { return Limits{} }
func (rejectAllValidator) Admit(tx *txn.Transaction, limits Limits) error { return nil }
func (v rejectAllValidator) Validate(tx *txn.Transaction, isGenesis bool, wsv WorldStateView) Decision {
	return Decision{Accepted: false, Tx: tx, Reason: v.reason}
}

// emptyWSV reports no transaction as ever committed.
type emptyWSV struct{}

func (emptyWSV) IsInBlockchain(crypto.Hash) bool { return false }

// seenWSV reports exactly the hashes in its set as committed.
type seenWSV map[crypto.Hash]bool

func (s seenWSV) IsInBlockchain(h crypto.Hash) bool { return s[h] }

type fakeSigner struct {
	id  string
	kp  crypto.KeyPair
	err error
}

func (f fakeSigner) Identity() string { return f.id }
func (f fakeSigner) SignHash(h crypto.Hash) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.kp.SignHash(h)
}

func newTestSigner(t *testing.T, id string) fakeSigner {
	t.Helper()
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	if id == "" {
		id = kp.Identity()
	}
	return fakeSigner{id: id, kp: kp}
}

func newTestTx(t *testing.T, nonce uint64) *txn.Transaction {
	t.Helper()
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	tx, err := txn.New(txn.Type("transfer"), kp.Pub.Hex(), nonce, 1, nil)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	if err := tx.Sign(kp); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tx
}
