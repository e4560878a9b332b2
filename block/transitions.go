package block

import (
	"fmt"

	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
)

// Chain turns a Pending block into a Chained block, stamping height and
// previous-hash linkage. The caller passes the chain's current height
// (the height of the last committed block); Chain advances it by one.
// Merkle roots are left zero until Validate runs.
func (p Pending) Chain(height uint64, prevHash crypto.Hash) Chained {
	return Chained{
		header: Header{
			Timestamp:                p.timestamp,
			ConsensusEstimation:      DefaultConsensusEstimation,
			Height:                   height + 1,
			PreviousBlockHash:        prevHash,
			TransactionsHash:         crypto.Zero(),
			RejectedTransactionsHash: crypto.Zero(),
		},
		txs:       p.txs,
		eventRecs: p.eventRecs,
	}
}

// ChainFirst turns a Pending block into height 1, the genesis block,
// carrying the initial peer topology.
func (p Pending) ChainFirst(topology *Topology) Chained {
	return Chained{
		header: Header{
			Timestamp:                p.timestamp,
			ConsensusEstimation:      DefaultConsensusEstimation,
			Height:                   1,
			PreviousBlockHash:        crypto.Zero(),
			TransactionsHash:         crypto.Zero(),
			RejectedTransactionsHash: crypto.Zero(),
			GenesisTopology:          topology,
		},
		txs:       p.txs,
		eventRecs: p.eventRecs,
	}
}

// Validate runs every transaction in c through validator, partitioning
// them into accepted and rejected, and binds the resulting Merkle roots
// into the header. isGenesis is derived from the header's
// own height so callers cannot lie about it.
func (c Chained) Validate(validator Validator, wsv WorldStateView) (Valid, error) {
	isGenesis := IsGenesis(c.header)
	limits := validator.Limits()

	accepted := make([]*txn.Transaction, 0, len(c.txs))
	rejected := make([]txn.Rejected, 0)

	for _, tx := range c.txs {
		if err := validator.Admit(tx, limits); err != nil {
			rejected = append(rejected, txn.Rejected{Tx: tx, Reason: err.Error()})
			continue
		}
		decision := validator.Validate(tx, isGenesis, wsv)
		if decision.Accepted {
			accepted = append(accepted, tx)
		} else {
			rejected = append(rejected, txn.Rejected{Tx: tx, Reason: decision.Reason})
		}
	}

	header := c.header
	header.TransactionsHash = rootOfTxs(accepted)
	header.RejectedTransactionsHash = rootOfRejected(rejected)

	return Valid{header: header, accepted: accepted, rejected: rejected}, nil
}

// Sign produces the first signature over v's header hash, becoming a
// ValidSigned block. A signer failure is always wrapped in
// ErrSignatureCreation.
func (v Valid) Sign(signer Signer) (ValidSigned, error) {
	sig, err := signer.SignHash(v.Hash().Raw())
	if err != nil {
		return ValidSigned{}, fmt.Errorf("%w: %v", ErrSignatureCreation, err)
	}
	sigs := newSignatureSet()
	sigs.insert(Signature{SignerID: signer.Identity(), Bytes: sig})
	return ValidSigned{
		header:     v.header,
		accepted:   v.accepted,
		rejected:   v.rejected,
		signatures: sigs,
	}, nil
}

// Sign adds one more signature to an already-signed block. Re-signing
// with a signer already present is a no-op.
func (vs ValidSigned) Sign(signer Signer) (ValidSigned, error) {
	sig, err := signer.SignHash(vs.Hash().Raw())
	if err != nil {
		return ValidSigned{}, fmt.Errorf("%w: %v", ErrSignatureCreation, err)
	}
	sigs := vs.signatures.clone()
	sigs.insert(Signature{SignerID: signer.Identity(), Bytes: sig})
	return ValidSigned{
		header:     vs.header,
		accepted:   vs.accepted,
		rejected:   vs.rejected,
		signatures: sigs,
	}, nil
}

// VerifiedSignatures returns the subset of vs's signatures that verify
// against vs's own header hash.
func (vs ValidSigned) VerifiedSignatures() []Signature {
	return vs.signatures.VerifiedSignatures(vs.Hash().Raw())
}

// Commit turns a signed block into a committed one. It is a pure retag:
// no bytes change, no recomputation happens.
func (vs ValidSigned) Commit() Committed {
	return Committed{
		header:     vs.header,
		accepted:   vs.accepted,
		rejected:   vs.rejected,
		signatures: vs.signatures.clone(),
	}
}

// Reopen is Commit's inverse, also a pure retag.
func (cm Committed) Reopen() ValidSigned {
	return ValidSigned{
		header:     cm.header,
		accepted:   cm.accepted,
		rejected:   cm.rejected,
		signatures: cm.signatures.clone(),
	}
}

// ToCandidate losslessly retags a signed block into its wire form. The
// rejected set loses its locally-computed reasons on the wire — a
// receiving peer derives its own reasons during Revalidate — but keeps
// the transactions themselves, so a peer can re-reject the exact same
// set the sender declared.
func (vs ValidSigned) ToCandidate() Candidate {
	rejectedTxs := make([]*txn.Transaction, len(vs.rejected))
	for i, r := range vs.rejected {
		rejectedTxs[i] = r.Tx
	}
	return Candidate{
		header:     vs.header,
		accepted:   vs.accepted,
		rejected:   rejectedTxs,
		signatures: vs.signatures.clone(),
	}
}
