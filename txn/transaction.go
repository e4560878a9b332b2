// Package txn is the transaction type carried by blocks. Execution
// semantics (what a transaction does to world state) are out of scope
// here by design — see block.Validator — this package only owns identity,
// signing, and the accepted/rejected wrapper the block pipeline needs.
package txn

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerforge/corechain/crypto"
)

// Type identifies the kind of operation a transaction performs. The set
// of types is a concern of the Validator collaborator, not of this
// package; Type is carried opaquely.
type Type string

// Transaction is the atomic unit of work carried by a block.
// From holds the sender's full hex-encoded ed25519 public key.
// Signature covers every field except Signature and ID.
type Transaction struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Fee       uint64          `json:"fee"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// signingBody holds the fields covered by the signature.
type signingBody struct {
	Type      Type            `json:"type"`
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Fee       uint64          `json:"fee"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns the deterministic content hash of tx (sans Signature/ID).
func (tx *Transaction) Hash() crypto.Hash {
	body := signingBody{
		Type:      tx.Type,
		From:      tx.From,
		Nonce:     tx.Nonce,
		Fee:       tx.Fee,
		Timestamp: tx.Timestamp,
		Payload:   tx.Payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		// signingBody contains only JSON-safe fields; this cannot happen.
		panic(fmt.Sprintf("txn: marshal signing body: %v", err))
	}
	return crypto.Sum(data)
}

// Sign computes the signature over Hash() and sets ID to the hash hex.
func (tx *Transaction) Sign(kp crypto.KeyPair) error {
	h := tx.Hash()
	sig, err := kp.SignHash(h)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	tx.Signature = hex.EncodeToString(sig)
	tx.ID = h.Hex()
	return nil
}

// Verify checks the signature and that From is a well-formed public key.
func (tx *Transaction) Verify() error {
	if tx.From == "" {
		return errors.New("txn: missing from field")
	}
	sig, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return fmt.Errorf("txn: invalid signature hex: %w", err)
	}
	if !crypto.VerifyHash(tx.From, tx.Hash(), sig) {
		return errors.New("txn: signature verification failed")
	}
	return nil
}

// New creates an unsigned transaction stamped with the current time.
// Call Sign before it can be admitted anywhere.
func New(typ Type, from string, nonce, fee uint64, payload any) (*Transaction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("txn: marshal payload: %w", err)
	}
	return &Transaction{
		Type:      typ,
		From:      from,
		Nonce:     nonce,
		Fee:       fee,
		Timestamp: time.Now().UnixMilli(),
		Payload:   raw,
	}, nil
}

// Rejected pairs a transaction with the reason the validator rejected it.
// Rejected transactions are retained in the committed block.
type Rejected struct {
	Tx     *Transaction `json:"tx"`
	Reason string       `json:"reason"`
}
