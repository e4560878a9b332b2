// Package wallet holds a signing key pair and builds signed
// transactions in the shape the txn and block packages use.
package wallet

import (
	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
)

// Wallet holds a key pair and provides transaction-building helpers. It
// implements block.Signer through its Identity and SignHash methods.
type Wallet struct {
	kp crypto.KeyPair
}

// New creates a Wallet from an existing key pair.
func New(kp crypto.KeyPair) *Wallet {
	return &Wallet{kp: kp}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate() (*Wallet, error) {
	kp, err := crypto.NewKeyPair()
	if err != nil {
		return nil, err
	}
	return New(kp), nil
}

// KeyPair returns the wallet's underlying signing key pair.
func (w *Wallet) KeyPair() crypto.KeyPair { return w.kp }

// Identity implements block.Signer.
func (w *Wallet) Identity() string { return w.kp.Identity() }

// SignHash implements block.Signer.
func (w *Wallet) SignHash(h crypto.Hash) ([]byte, error) { return w.kp.SignHash(h) }

// Address returns the short human-readable address (first 20 bytes of
// SHA-256(pubkey)).
func (w *Wallet) Address() string { return w.kp.Pub.Address() }

// NewTx creates and signs a transaction. nonce should match the
// account's current nonce as seen in worldstate.
func (w *Wallet) NewTx(typ txn.Type, nonce, fee uint64, payload any) (*txn.Transaction, error) {
	tx, err := txn.New(typ, w.kp.Pub.Hex(), nonce, fee, payload)
	if err != nil {
		return nil, err
	}
	if err := tx.Sign(w.kp); err != nil {
		return nil, err
	}
	return tx, nil
}
