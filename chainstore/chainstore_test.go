package chainstore

import (
	"testing"

	"github.com/ledgerforge/corechain/block"
	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
	"github.com/ledgerforge/corechain/worldstate"
)

type noopValidator struct{}

func (noopValidator) Limits() block.Limits                                 { return block.Limits{} }
func (noopValidator) Admit(tx *txn.Transaction, limits block.Limits) error { return nil }
func (noopValidator) Validate(tx *txn.Transaction, isGenesis bool, wsv block.WorldStateView) block.Decision {
	return block.Decision{Accepted: true, Tx: tx}
}

type noopWSV struct{}

func (noopWSV) IsInBlockchain(crypto.Hash) bool { return false }

type noopSigner struct{ kp crypto.KeyPair }

func (s noopSigner) Identity() string                       { return s.kp.Identity() }
func (s noopSigner) SignHash(h crypto.Hash) ([]byte, error) { return s.kp.SignHash(h) }

func buildCommitted(t *testing.T, height uint64) block.Committed {
	t.Helper()
	pending := block.NewPending(1, nil, nil)
	var chained block.Chained
	if height == 1 {
		chained = pending.ChainFirst(nil)
	} else {
		chained = pending.Chain(height-1, crypto.Zero())
	}
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	valid, err := chained.Validate(noopValidator{}, noopWSV{})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	signed, err := valid.Sign(noopSigner{kp})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return signed.Commit()
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	db := worldstate.NewMemDB()
	store := New(db)

	b1 := buildCommitted(t, 1)
	if err := store.Save(b1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b2 := buildCommitted(t, 2)
	if err := store.Save(b2); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tip, err := store.Tip()
	if err != nil {
		t.Fatalf("Tip: %v", err)
	}
	if tip != 2 {
		t.Errorf("expected tip 2, got %d", tip)
	}

	c, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 blocks loaded, got %d", c.Len())
	}
	got, ok := c.Get(1)
	if !ok || got.Hash().Raw() != b1.Hash().Raw() {
		t.Error("expected height 1 to round-trip to the same block")
	}
}

func TestLoadOnEmptyStoreReturnsEmptyChain(t *testing.T) {
	store := New(worldstate.NewMemDB())
	c, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected an empty chain, got length %d", c.Len())
	}
}
