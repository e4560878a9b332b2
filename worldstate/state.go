package worldstate

import (
	"encoding/json"
	"fmt"

	"github.com/ledgerforge/corechain/crypto"
)

const (
	prefixAccount = "acct:"
	prefixTxSeen  = "txseen:"
)

// Account holds a participant's token balance and replay-protection
// nonce.
type Account struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// WorldState is the account/nonce store and membership index backing
// block.WorldStateView and validation.TokenValidator. It has no snapshot or
// rollback machinery: transaction execution lives entirely in the
// Validator collaborator, so there is nothing to roll back to.
type WorldState struct {
	db DB
}

// New returns a WorldState backed by db.
func New(db DB) *WorldState {
	return &WorldState{db: db}
}

// GetAccount returns the account at address, or a fresh zero-value
// account if it has never been seen.
func (w *WorldState) GetAccount(address string) (Account, error) {
	data, err := w.db.Get([]byte(prefixAccount + address))
	if err == ErrNotFound {
		return Account{Address: address}, nil
	}
	if err != nil {
		return Account{}, fmt.Errorf("worldstate: get account %s: %w", address, err)
	}
	var acc Account
	if err := json.Unmarshal(data, &acc); err != nil {
		return Account{}, fmt.Errorf("worldstate: decode account %s: %w", address, err)
	}
	return acc, nil
}

// SetAccount persists acc.
func (w *WorldState) SetAccount(acc Account) error {
	data, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("worldstate: encode account %s: %w", acc.Address, err)
	}
	if err := w.db.Set([]byte(prefixAccount+acc.Address), data); err != nil {
		return fmt.Errorf("worldstate: set account %s: %w", acc.Address, err)
	}
	return nil
}

// MarkCommitted records txHash as part of the blockchain, so a future
// Candidate carrying the same transaction is caught as a replay.
func (w *WorldState) MarkCommitted(txHash crypto.Hash) error {
	if err := w.db.Set([]byte(prefixTxSeen+txHash.Hex()), []byte{1}); err != nil {
		return fmt.Errorf("worldstate: mark committed %s: %w", txHash, err)
	}
	return nil
}

// IsInBlockchain implements block.WorldStateView.
func (w *WorldState) IsInBlockchain(txHash crypto.Hash) bool {
	_, err := w.db.Get([]byte(prefixTxSeen + txHash.Hex()))
	return err == nil
}
