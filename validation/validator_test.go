package validation

import (
	"testing"

	"github.com/ledgerforge/corechain/block"
	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
	"github.com/ledgerforge/corechain/worldstate"
)

func newFundedValidator(t *testing.T, balance uint64) (*TokenValidator, crypto.KeyPair, *worldstate.WorldState) {
	t.Helper()
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	state := worldstate.New(worldstate.NewMemDB())
	if err := state.SetAccount(worldstate.Account{Address: kp.Pub.Hex(), Balance: balance}); err != nil {
		t.Fatalf("SetAccount: %v", err)
	}
	return New(state, block.Limits{}), kp, state
}

func signedTx(t *testing.T, kp crypto.KeyPair, nonce, fee uint64) *txn.Transaction {
	t.Helper()
	tx, err := txn.New(txn.Type("transfer"), kp.Pub.Hex(), nonce, fee, nil)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	if err := tx.Sign(kp); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tx
}

func TestAdmitRejectsUnsignedTransaction(t *testing.T) {
	v, _, _ := newFundedValidator(t, 100)
	tx := &txn.Transaction{From: "someone"}
	if err := v.Admit(tx, v.Limits()); err == nil {
		t.Error("expected Admit to reject an unsigned transaction")
	}
}

func TestValidateAcceptsWellFormedTransaction(t *testing.T) {
	v, kp, _ := newFundedValidator(t, 100)
	tx := signedTx(t, kp, 0, 10)
	decision := v.Validate(tx, false, mustWSV(t, v))
	if !decision.Accepted {
		t.Fatalf("expected acceptance, got rejection: %s", decision.Reason)
	}
}

func TestValidateRejectsBadNonce(t *testing.T) {
	v, kp, _ := newFundedValidator(t, 100)
	tx := signedTx(t, kp, 5, 10)
	decision := v.Validate(tx, false, mustWSV(t, v))
	if decision.Accepted {
		t.Error("expected rejection for a nonce that does not match account state")
	}
}

func TestValidateRejectsInsufficientBalance(t *testing.T) {
	v, kp, _ := newFundedValidator(t, 5)
	tx := signedTx(t, kp, 0, 10)
	decision := v.Validate(tx, false, mustWSV(t, v))
	if decision.Accepted {
		t.Error("expected rejection when fee exceeds balance")
	}
}

func TestValidateDebitsFeeAndAdvancesNonce(t *testing.T) {
	v, kp, state := newFundedValidator(t, 100)
	tx := signedTx(t, kp, 0, 10)
	decision := v.Validate(tx, false, mustWSV(t, v))
	if !decision.Accepted {
		t.Fatalf("expected acceptance, got: %s", decision.Reason)
	}
	acc, err := state.GetAccount(kp.Pub.Hex())
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acc.Balance != 90 {
		t.Errorf("expected balance 90 after fee debit, got %d", acc.Balance)
	}
	if acc.Nonce != 1 {
		t.Errorf("expected nonce 1 after acceptance, got %d", acc.Nonce)
	}
}

func TestValidateGenesisSkipsNonceAndBalanceChecks(t *testing.T) {
	v, kp, _ := newFundedValidator(t, 0)
	tx := signedTx(t, kp, 77, 1000)
	decision := v.Validate(tx, true, mustWSV(t, v))
	if !decision.Accepted {
		t.Fatalf("expected genesis transaction to be accepted regardless of nonce/balance, got: %s", decision.Reason)
	}
}

func TestValidateRejectsBadSignature(t *testing.T) {
	v, kp, _ := newFundedValidator(t, 100)
	tx := signedTx(t, kp, 0, 10)
	repl := "00"
	if tx.Signature[len(tx.Signature)-2:] == repl {
		repl = "ff"
	}
	tx.Signature = tx.Signature[:len(tx.Signature)-2] + repl
	decision := v.Validate(tx, false, mustWSV(t, v))
	if decision.Accepted {
		t.Error("expected rejection for a corrupted signature")
	}
}

// mustWSV adapts the validator's own backing state to block.WorldStateView
// for tests that don't need a populated membership index.
func mustWSV(t *testing.T, v *TokenValidator) block.WorldStateView {
	t.Helper()
	return v.state
}
