package block

import (
	"encoding/json"
	"fmt"

	"github.com/ledgerforge/corechain/txn"
)

// envelope is the JSON wire shape shared by Committed and Candidate. It
// exists so chainstore (persistence) and network (transport) can
// (de)serialize blocks without reaching into unexported fields; the only
// field-level access happens here, inside this package.
type envelope struct {
	Header   Header             `json:"header"`
	Accepted []*txn.Transaction `json:"accepted"`
	Rejected []txn.Rejected     `json:"rejected,omitempty"`
	// RejectedCandidates carries Candidate's rejected-but-not-yet-reasoned
	// transactions; empty for Committed.
	RejectedCandidates []*txn.Transaction `json:"rejected_candidates,omitempty"`
	Signatures         []Signature        `json:"signatures"`
}

// MarshalJSON encodes cm for storage or transport (chainstore, network).
func (cm Committed) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{
		Header:     cm.header,
		Accepted:   cm.accepted,
		Rejected:   cm.rejected,
		Signatures: cm.signatures.List(),
	})
}

// DecodeCommitted reconstructs a Committed block from bytes produced by
// MarshalJSON. This is the one sanctioned way to rebuild a Committed value
// outside the transition chain; it stays inside package block and trusts
// the caller only as far as re-deriving the exact same hash would.
func DecodeCommitted(data []byte) (Committed, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Committed{}, fmt.Errorf("block: decode committed: %w", err)
	}
	sigs := newSignatureSet()
	for _, s := range env.Signatures {
		sigs.insert(s)
	}
	return Committed{
		header:     env.Header,
		accepted:   env.Accepted,
		rejected:   env.Rejected,
		signatures: sigs,
	}, nil
}

// MarshalJSON encodes c for transport: the wire form a producer's node
// actually ships over the network.
func (c Candidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelope{
		Header:             c.header,
		Accepted:           c.accepted,
		RejectedCandidates: c.rejected,
		Signatures:         c.signatures.List(),
	})
}

// DecodeCandidate reconstructs a Candidate from bytes produced by
// MarshalJSON, the receiving side of network transport.
func DecodeCandidate(data []byte) (Candidate, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Candidate{}, fmt.Errorf("block: decode candidate: %w", err)
	}
	sigs := newSignatureSet()
	for _, s := range env.Signatures {
		sigs.insert(s)
	}
	return Candidate{
		header:     env.Header,
		accepted:   env.Accepted,
		rejected:   env.RejectedCandidates,
		signatures: sigs,
	}, nil
}
