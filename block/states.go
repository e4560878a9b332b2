package block

import (
	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
)

// EventRecommendation is an opaque hint carried alongside a block body.
// Nothing in this module inspects its contents; it travels with the block
// unexamined.
type EventRecommendation string

// Pending is a freshly proposed block: a body with no header yet. Only
// Chain and ChainFirst can turn it into a Chained block.
type Pending struct {
	timestamp uint64
	txs       []*txn.Transaction
	eventRecs []EventRecommendation
}

// NewPending creates a Pending block from accepted transactions. An
// empty transaction list is not rejected here; whether to propose empty
// blocks is the caller's admission policy.
func NewPending(timestampMillis uint64, txs []*txn.Transaction, eventRecs []EventRecommendation) Pending {
	cp := make([]*txn.Transaction, len(txs))
	copy(cp, txs)
	return Pending{timestamp: timestampMillis, txs: cp, eventRecs: eventRecs}
}

// Transactions returns the proposed transactions, in input order.
func (p Pending) Transactions() []*txn.Transaction { return p.txs }

// Chained has a populated header but has not yet been checked against
// world state: Merkle roots are placeholders (zero) until Validate runs.
type Chained struct {
	header    Header
	txs       []*txn.Transaction
	eventRecs []EventRecommendation
}

// Header returns the block's header.
func (c Chained) Header() Header { return c.header }

// Transactions returns the not-yet-validated transaction list.
func (c Chained) Transactions() []*txn.Transaction { return c.txs }

// Hash returns the content hash of c's header, typed to Chained.
func (c Chained) Hash() Hash[Chained] { return newHash[Chained](hashHeader(c.header)) }

// Valid is a Chained block whose header Merkle roots now reflect the
// validator's partition of transactions into accepted/rejected.
type Valid struct {
	header   Header
	accepted []*txn.Transaction
	rejected []txn.Rejected
}

// Header returns the block's header.
func (v Valid) Header() Header { return v.header }

// Accepted returns the accepted transactions, in their resulting order.
func (v Valid) Accepted() []*txn.Transaction { return v.accepted }

// Rejected returns the rejected transactions with their reasons.
func (v Valid) Rejected() []txn.Rejected { return v.rejected }

// Hash returns the content hash of v's header, typed to Valid.
func (v Valid) Hash() Hash[Valid] { return newHash[Valid](hashHeader(v.header)) }

// ValidSigned is a Valid block plus a non-empty set of signatures over
// its header hash.
type ValidSigned struct {
	header     Header
	accepted   []*txn.Transaction
	rejected   []txn.Rejected
	signatures SignatureSet
}

// Header returns the block's header.
func (vs ValidSigned) Header() Header { return vs.header }

// Accepted returns the accepted transactions, in their resulting order.
func (vs ValidSigned) Accepted() []*txn.Transaction { return vs.accepted }

// Rejected returns the rejected transactions with their reasons.
func (vs ValidSigned) Rejected() []txn.Rejected { return vs.rejected }

// Hash returns the content hash of vs's header, typed to ValidSigned.
func (vs ValidSigned) Hash() Hash[ValidSigned] { return newHash[ValidSigned](hashHeader(vs.header)) }

// Signatures returns the current signature set.
func (vs ValidSigned) Signatures() SignatureSet { return vs.signatures }

// Committed is semantically identical to ValidSigned; the only
// difference is the Go type, so a committed block can never again be
// mistaken for one still awaiting commit.
type Committed struct {
	header     Header
	accepted   []*txn.Transaction
	rejected   []txn.Rejected
	signatures SignatureSet
}

// Header returns the block's header.
func (cm Committed) Header() Header { return cm.header }

// Accepted returns the accepted transactions, in their resulting order.
func (cm Committed) Accepted() []*txn.Transaction { return cm.accepted }

// Rejected returns the rejected transactions with their reasons.
func (cm Committed) Rejected() []txn.Rejected { return cm.rejected }

// Hash returns the content hash of cm's header, typed to Committed. It
// is byte-identical to the ValidSigned hash it was committed from.
func (cm Committed) Hash() Hash[Committed] { return newHash[Committed](hashHeader(cm.header)) }

// Signatures returns the signature set, retagged "committed" for type safety.
func (cm Committed) Signatures() SignatureSet { return cm.signatures }

// Candidate is the wire form of a ValidSigned/Committed block: the same
// header (still binding the sender's accepted/rejected partition) but
// transactions carried in signed-only form, pending the receiver's own
// revalidation.
type Candidate struct {
	header     Header
	accepted   []*txn.Transaction
	rejected   []*txn.Transaction
	signatures SignatureSet
}

// Header returns the block's header.
func (c Candidate) Header() Header { return c.header }

// AcceptedCandidates returns the transactions the sender classified as
// accepted, not yet re-validated by the receiver.
func (c Candidate) AcceptedCandidates() []*txn.Transaction { return c.accepted }

// RejectedCandidates returns the transactions the sender classified as
// rejected, not yet re-validated by the receiver.
func (c Candidate) RejectedCandidates() []*txn.Transaction { return c.rejected }

// Hash returns the content hash of c's header, typed to Candidate.
func (c Candidate) Hash() Hash[Candidate] { return newHash[Candidate](hashHeader(c.header)) }

// Signatures returns the signatures carried over from the sender,
// preserved bit-exact.
func (c Candidate) Signatures() SignatureSet { return c.signatures }

func rootOfTxs(txs []*txn.Transaction) crypto.Hash {
	leaves := make([]crypto.Hash, len(txs))
	for i, t := range txs {
		leaves[i] = t.Hash()
	}
	return crypto.Root(leaves)
}

func rootOfRejected(rs []txn.Rejected) crypto.Hash {
	leaves := make([]crypto.Hash, len(rs))
	for i, r := range rs {
		leaves[i] = r.Tx.Hash()
	}
	return crypto.Root(leaves)
}
