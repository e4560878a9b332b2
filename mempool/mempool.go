// Package mempool is the pending-transaction pool a block producer
// drains to build a Pending block. Transaction execution and block
// assembly policy stay the caller's responsibility.
package mempool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerforge/corechain/txn"
)

const (
	maxSize     = 10_000
	maxTxAgeMS  = int64(time.Hour / time.Millisecond)
	maxFutureMS = int64(5 * time.Minute / time.Millisecond)
)

// Mempool is a thread-safe pending-transaction pool keyed by transaction ID.
type Mempool struct {
	mu  sync.Mutex
	txs map[string]*txn.Transaction
	ord []string
}

// New creates an empty Mempool.
func New() *Mempool {
	return &Mempool{txs: make(map[string]*txn.Transaction)}
}

// Add validates and inserts tx. It rejects an unsigned or badly-signed
// transaction, one already present, one outside the acceptable timestamp
// window, or one that would overflow the pool.
func (m *Mempool) Add(tx *txn.Transaction) error {
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("mempool: invalid signature: %w", err)
	}
	now := time.Now().UnixMilli()
	if now-tx.Timestamp > maxTxAgeMS {
		return errors.New("mempool: transaction expired")
	}
	if tx.Timestamp-now > maxFutureMS {
		return errors.New("mempool: transaction timestamp too far in the future")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.txs) >= maxSize {
		return errors.New("mempool: full")
	}
	if _, exists := m.txs[tx.ID]; exists {
		return errors.New("mempool: transaction already pooled")
	}
	m.txs[tx.ID] = tx
	m.ord = append(m.ord, tx.ID)
	return nil
}

// Pending returns up to n pooled transactions in insertion order, the
// candidate set a producer hands to block.NewPending.
func (m *Mempool) Pending(n int) []*txn.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*txn.Transaction, 0, n)
	for _, id := range m.ord {
		tx, ok := m.txs[id]
		if !ok {
			continue
		}
		out = append(out, tx)
		if len(out) >= n {
			break
		}
	}
	return out
}

// Remove drops the given transaction IDs, called once a block carrying
// them has been committed (accepted or rejected either way).
func (m *Mempool) Remove(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		delete(m.txs, id)
		gone[id] = true
	}
	filtered := m.ord[:0]
	for _, id := range m.ord {
		if !gone[id] {
			filtered = append(filtered, id)
		}
	}
	m.ord = filtered
}

// Size returns the number of pooled transactions.
func (m *Mempool) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txs)
}
