// Package validation is a lean implementation of block.Validator: it
// enforces fee and nonce bookkeeping without any richer transaction
// execution machinery behind it.
package validation

import (
	"fmt"
	"math"

	"github.com/ledgerforge/corechain/block"
	"github.com/ledgerforge/corechain/txn"
	"github.com/ledgerforge/corechain/worldstate"
)

// TokenValidator checks a transaction's signature, replay-protection
// nonce, and fee balance against a WorldState, then debits the fee and
// advances the nonce on acceptance.
type TokenValidator struct {
	state  *worldstate.WorldState
	limits block.Limits
}

// New returns a TokenValidator backed by state, enforcing limits on
// admission.
func New(state *worldstate.WorldState, limits block.Limits) *TokenValidator {
	return &TokenValidator{state: state, limits: limits}
}

// Limits implements block.Validator.
func (v *TokenValidator) Limits() block.Limits { return v.limits }

// Admit implements block.Validator: resource-limit checks whose failure is
// fatal when revalidating a transaction the sender accepted, and an
// ordinary rejection everywhere else. This validator has
// no instruction count or WASM payload to bound, so admission only
// rejects malformed transactions.
func (v *TokenValidator) Admit(tx *txn.Transaction, limits block.Limits) error {
	if tx.Signature == "" {
		return fmt.Errorf("validation: unsigned transaction")
	}
	return nil
}

// Validate implements block.Validator: verifies the signature, then
// checks and applies the nonce and fee bookkeeping.
func (v *TokenValidator) Validate(tx *txn.Transaction, isGenesis bool, wsv block.WorldStateView) block.Decision {
	if err := tx.Verify(); err != nil {
		return block.Decision{Tx: tx, Reason: fmt.Sprintf("signature: %v", err)}
	}

	acc, err := v.state.GetAccount(tx.From)
	if err != nil {
		return block.Decision{Tx: tx, Reason: fmt.Sprintf("get account: %v", err)}
	}

	if !isGenesis {
		if acc.Nonce != tx.Nonce {
			return block.Decision{Tx: tx, Reason: fmt.Sprintf("invalid nonce: expected %d got %d", acc.Nonce, tx.Nonce)}
		}
		if acc.Balance < tx.Fee {
			return block.Decision{Tx: tx, Reason: fmt.Sprintf("insufficient balance for fee: have %d need %d", acc.Balance, tx.Fee)}
		}
		if acc.Nonce == math.MaxUint64 {
			return block.Decision{Tx: tx, Reason: fmt.Sprintf("nonce overflow for account %s", tx.From)}
		}
		acc.Balance -= tx.Fee
		acc.Nonce++
	}

	if err := v.state.SetAccount(acc); err != nil {
		return block.Decision{Tx: tx, Reason: fmt.Sprintf("set account: %v", err)}
	}

	return block.Decision{Accepted: true, Tx: tx}
}
