package block

import (
	"bytes"
	"testing"

	"github.com/ledgerforge/corechain/txn"
)

func buildCommitted(t *testing.T) Committed {
	t.Helper()
	accept := newTestTx(t, 0)
	reject := newTestTx(t, 0)
	pending := NewPending(1, []*txn.Transaction{accept, reject}, nil)
	chained := pending.ChainFirst(nil)
	v := byIdentityValidator{accept: accept.Hash(), reason: "insufficient balance"}
	valid, err := chained.Validate(v, emptyWSV{})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	signer := newTestSigner(t, "")
	signed, err := valid.Sign(signer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return signed.Commit()
}

func TestCommittedMarshalDecodeRoundTrip(t *testing.T) {
	committed := buildCommitted(t)
	data, err := committed.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	decoded, err := DecodeCommitted(data)
	if err != nil {
		t.Fatalf("DecodeCommitted: %v", err)
	}
	if decoded.Hash().Raw() != committed.Hash().Raw() {
		t.Error("decoded block should hash identically to the original")
	}
	if len(decoded.Accepted()) != len(committed.Accepted()) {
		t.Errorf("expected %d accepted txs, got %d", len(committed.Accepted()), len(decoded.Accepted()))
	}
	if decoded.Signatures().Len() != committed.Signatures().Len() {
		t.Error("expected the signature set to survive the round trip")
	}
}

func TestCandidateMarshalDecodeRoundTrip(t *testing.T) {
	committed := buildCommitted(t)
	cand := committed.Reopen().ToCandidate()
	data, err := cand.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	decoded, err := DecodeCandidate(data)
	if err != nil {
		t.Fatalf("DecodeCandidate: %v", err)
	}
	if decoded.Hash().Raw() != cand.Hash().Raw() {
		t.Error("decoded candidate should hash identically to the original")
	}
	if len(decoded.RejectedCandidates()) != len(cand.RejectedCandidates()) {
		t.Error("expected rejected candidate transactions to survive the round trip")
	}
}

func TestDecodeCommittedRejectsGarbage(t *testing.T) {
	if _, err := DecodeCommitted([]byte("not json")); err == nil {
		t.Error("expected an error decoding malformed JSON")
	}
}

func TestHeaderHashesAreHexInWireForm(t *testing.T) {
	committed := buildCommitted(t)
	data, err := committed.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	// crypto.Hash's MarshalJSON renders as a quoted hex string; a byte
	// array encoding would make the payload far larger and non-human-
	// readable, so just check the hex substring appears.
	if !bytes.Contains(data, []byte(committed.Header().PreviousBlockHash.Hex())) {
		t.Error("expected the previous-block hash to appear hex-encoded in the wire payload")
	}
}
