// Package chainstore persists chain.Chain's committed blocks so a node
// can resume after a restart. It never touches chain.Chain's concurrency
// model (the Chain itself does no I/O); it only snapshots what Push
// already accepted, and replays those snapshots back into a fresh
// in-memory Chain on Load.
package chainstore

import (
	"encoding/binary"
	"fmt"

	"github.com/ledgerforge/corechain/block"
	"github.com/ledgerforge/corechain/chain"
	"github.com/ledgerforge/corechain/worldstate"
)

const (
	prefixBlock  = "chainstore:block:"
	prefixHeight = "chainstore:height:"
	keyTip       = "chainstore:tip"
)

// Store persists chain.Chain snapshots to a worldstate.DB (LevelDB or
// MemDB; chainstore only needs Get/Set, so either backend works).
type Store struct {
	db worldstate.DB
}

// New wraps db as a chainstore.Store.
func New(db worldstate.DB) *Store {
	return &Store{db: db}
}

// Save persists b and advances the recorded tip height, so Load can
// reconstruct the chain in height order.
func (s *Store) Save(b block.Committed) error {
	data, err := b.MarshalJSON()
	if err != nil {
		return fmt.Errorf("chainstore: encode block at height %d: %w", b.Header().Height, err)
	}
	hash := b.Hash().Hex()
	if err := s.db.Set([]byte(prefixBlock+hash), data); err != nil {
		return fmt.Errorf("chainstore: persist block %s: %w", hash, err)
	}
	if err := s.db.Set(heightKey(b.Header().Height), []byte(hash)); err != nil {
		return fmt.Errorf("chainstore: persist height index %d: %w", b.Header().Height, err)
	}
	if err := s.db.Set([]byte(keyTip), encodeUint64(b.Header().Height)); err != nil {
		return fmt.Errorf("chainstore: advance tip: %w", err)
	}
	return nil
}

// Tip returns the highest height persisted so far, or 0 if the store is empty.
func (s *Store) Tip() (uint64, error) {
	data, err := s.db.Get([]byte(keyTip))
	if err == worldstate.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("chainstore: read tip: %w", err)
	}
	return decodeUint64(data), nil
}

// Load replays every persisted block, in height order, into a fresh
// in-memory chain.Chain, the shape a node needs at startup before it can
// accept new Candidates. Heights are assumed dense and contiguous from 1.
func (s *Store) Load() (*chain.Chain, error) {
	c := chain.New()
	tip, err := s.Tip()
	if err != nil {
		return nil, err
	}
	for h := uint64(1); h <= tip; h++ {
		hash, err := s.db.Get(heightKey(h))
		if err == worldstate.ErrNotFound {
			return nil, fmt.Errorf("chainstore: gap at height %d below recorded tip %d", h, tip)
		}
		if err != nil {
			return nil, fmt.Errorf("chainstore: read height index %d: %w", h, err)
		}
		blockData, err := s.db.Get([]byte(prefixBlock + string(hash)))
		if err != nil {
			return nil, fmt.Errorf("chainstore: read block %s: %w", hash, err)
		}
		b, err := block.DecodeCommitted(blockData)
		if err != nil {
			return nil, fmt.Errorf("chainstore: decode block at height %d: %w", h, err)
		}
		c.Push(b)
	}
	return c, nil
}

func heightKey(h uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixHeight, h))
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
