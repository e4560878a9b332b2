package block

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
)

func buildSignedCandidate(t *testing.T, txs []*txn.Transaction, height uint64, prev crypto.Hash) Candidate {
	t.Helper()
	pending := NewPending(1, txs, nil)
	var chained Chained
	if height == 1 {
		chained = pending.ChainFirst(nil)
	} else {
		chained = pending.Chain(height-1, prev)
	}
	valid, err := chained.Validate(acceptAllValidator{}, emptyWSV{})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	signer := newTestSigner(t, "")
	signed, err := valid.Sign(signer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return signed.ToCandidate()
}

func TestRevalidateRoundTripSucceeds(t *testing.T) {
	tx := newTestTx(t, 0)
	cand := buildSignedCandidate(t, []*txn.Transaction{tx}, 1, crypto.Zero())

	vs, err := cand.Revalidate(acceptAllValidator{}, emptyWSV{}, crypto.Zero(), 0)
	if err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	if vs.Hash().Raw() != cand.Hash().Raw() {
		t.Error("a successful revalidation should preserve the header, and thus the hash")
	}
	if len(vs.Accepted()) != 1 {
		t.Errorf("expected 1 accepted tx, got %d", len(vs.Accepted()))
	}
	want := cand.Signatures().List()
	got := vs.Signatures().List()
	if len(got) != len(want) {
		t.Fatalf("expected %d signatures to survive revalidation, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].SignerID != want[i].SignerID || !bytes.Equal(got[i].Bytes, want[i].Bytes) {
			t.Errorf("signature %d should be preserved bit-exact across revalidation", i)
		}
	}
}

func TestRevalidateRejectsEmptyCandidate(t *testing.T) {
	cand := buildSignedCandidate(t, nil, 1, crypto.Zero())
	_, err := cand.Revalidate(acceptAllValidator{}, emptyWSV{}, crypto.Zero(), 0)
	if !errors.Is(err, ErrEmptyBlock) {
		t.Errorf("expected ErrEmptyBlock, got %v", err)
	}
}

func TestRevalidateRejectsReplay(t *testing.T) {
	tx := newTestTx(t, 0)
	cand := buildSignedCandidate(t, []*txn.Transaction{tx}, 1, crypto.Zero())
	seen := seenWSV{tx.Hash(): true}
	_, err := cand.Revalidate(acceptAllValidator{}, seen, crypto.Zero(), 0)
	if !errors.Is(err, ErrAlreadyCommitted) {
		t.Errorf("expected ErrAlreadyCommitted, got %v", err)
	}
}

func TestRevalidateRejectsPrevHashMismatch(t *testing.T) {
	tx := newTestTx(t, 0)
	cand := buildSignedCandidate(t, []*txn.Transaction{tx}, 5, crypto.Sum([]byte("actual-prev")))
	_, err := cand.Revalidate(acceptAllValidator{}, emptyWSV{}, crypto.Sum([]byte("different-prev")), 4)
	var mismatch *PrevHashMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected *PrevHashMismatchError, got %v", err)
	}
}

func TestRevalidateRejectsHeightMismatch(t *testing.T) {
	tx := newTestTx(t, 0)
	prev := crypto.Sum([]byte("prev"))
	cand := buildSignedCandidate(t, []*txn.Transaction{tx}, 5, prev)
	_, err := cand.Revalidate(acceptAllValidator{}, emptyWSV{}, prev, 10)
	var mismatch *HeightMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected *HeightMismatchError, got %v", err)
	}
}

func TestRevalidateChecksContinuityForGenesisToo(t *testing.T) {
	tx := newTestTx(t, 0)
	cand := buildSignedCandidate(t, []*txn.Transaction{tx}, 1, crypto.Zero())

	_, err := cand.Revalidate(acceptAllValidator{}, emptyWSV{}, crypto.Sum([]byte("garbage")), 99)
	var prevMismatch *PrevHashMismatchError
	if !errors.As(err, &prevMismatch) {
		t.Errorf("expected *PrevHashMismatchError for a height-1 candidate against an advanced chain, got %v", err)
	}

	_, err = cand.Revalidate(acceptAllValidator{}, emptyWSV{}, crypto.Zero(), 99)
	var heightMismatch *HeightMismatchError
	if !errors.As(err, &heightMismatch) {
		t.Errorf("expected *HeightMismatchError for a height-1 candidate against an advanced chain, got %v", err)
	}

	_, err = cand.Revalidate(acceptAllValidator{}, emptyWSV{}, crypto.Zero(), 0)
	if err != nil {
		t.Fatalf("expected genesis candidate to pass continuity against an empty chain, got: %v", err)
	}
}

func TestRevalidateRejectsTamperedTransactionsRoot(t *testing.T) {
	tx := newTestTx(t, 0)
	cand := buildSignedCandidate(t, []*txn.Transaction{tx}, 1, crypto.Zero())
	cand.header.TransactionsHash = crypto.Sum([]byte("not the real root"))
	_, err := cand.Revalidate(acceptAllValidator{}, emptyWSV{}, crypto.Zero(), 0)
	var mismatch *TxRootMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected *TxRootMismatchError, got %v", err)
	}
}

func TestRevalidateFailsWhenAcceptedTxNoLongerValidates(t *testing.T) {
	tx := newTestTx(t, 0)
	cand := buildSignedCandidate(t, []*txn.Transaction{tx}, 1, crypto.Zero())
	_, err := cand.Revalidate(rejectAllValidator{reason: "state changed"}, emptyWSV{}, crypto.Zero(), 0)
	var failed *AcceptedTxRevalidationFailedError
	if !errors.As(err, &failed) {
		t.Errorf("expected *AcceptedTxRevalidationFailedError, got %v", err)
	}
}

func TestRevalidateFailsWhenRejectedTxNowValidatesClean(t *testing.T) {
	accept := newTestTx(t, 0)
	reject := newTestTx(t, 0)
	sender := byIdentityValidator{accept: accept.Hash(), reason: "bad at the time"}

	pending := NewPending(1, []*txn.Transaction{accept, reject}, nil)
	chained := pending.ChainFirst(nil)
	valid, err := chained.Validate(sender, emptyWSV{})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	signer := newTestSigner(t, "")
	signed, err := valid.Sign(signer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	cand := signed.ToCandidate()

	// The receiver's validator now accepts everything, including the
	// transaction the sender rejected: that must be fatal, not a silent
	// promotion into the accepted set.
	_, err = cand.Revalidate(acceptAllValidator{}, emptyWSV{}, crypto.Zero(), 0)
	if !errors.Is(err, ErrRejectedTxRevalidatesClean) {
		t.Errorf("expected ErrRejectedTxRevalidatesClean, got %v", err)
	}
}
