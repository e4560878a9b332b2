package block

import (
	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/txn"
)

// Revalidate re-executes a received Candidate against the receiver's own
// world state before it is trusted. The algorithm runs in
// a fixed order and returns on the first failure:
//
//  1. reject an empty candidate (no accepted and no rejected transactions)
//  2. reject a candidate carrying any transaction, accepted or rejected,
//     the local world state has already committed (replay)
//  3. check previous-hash continuity against the local chain tip
//  4. check height continuity against the local chain tip
//  5. recompute both Merkle roots and rebind them against the header's
//     declared roots
//  6. re-admit and re-validate every accepted transaction; the first one
//     that now fails is fatal
//  7. re-admit and re-validate every rejected transaction; the first one
//     that now validates cleanly is fatal
//
// Signatures and transaction ordering are preserved bit-exact throughout.
func (c Candidate) Revalidate(validator Validator, wsv WorldStateView, latestBlockHash crypto.Hash, latestHeight uint64) (ValidSigned, error) {
	if len(c.accepted) == 0 && len(c.rejected) == 0 {
		return ValidSigned{}, ErrEmptyBlock
	}

	for _, tx := range c.accepted {
		if wsv.IsInBlockchain(tx.Hash()) {
			return ValidSigned{}, ErrAlreadyCommitted
		}
	}
	for _, tx := range c.rejected {
		if wsv.IsInBlockchain(tx.Hash()) {
			return ValidSigned{}, ErrAlreadyCommitted
		}
	}

	if c.header.PreviousBlockHash != latestBlockHash {
		return ValidSigned{}, &PrevHashMismatchError{Expected: latestBlockHash, Actual: c.header.PreviousBlockHash}
	}
	if c.header.Height != latestHeight+1 {
		return ValidSigned{}, &HeightMismatchError{Expected: latestHeight + 1, Actual: c.header.Height}
	}

	recomputedTxRoot := rootOfTxs(c.accepted)
	if recomputedTxRoot != c.header.TransactionsHash {
		return ValidSigned{}, &TxRootMismatchError{Expected: c.header.TransactionsHash, Actual: recomputedTxRoot}
	}
	recomputedRejectedRoot := rootOfTxs(c.rejected)
	if recomputedRejectedRoot != c.header.RejectedTransactionsHash {
		return ValidSigned{}, &RejectedRootMismatchError{Expected: c.header.RejectedTransactionsHash, Actual: recomputedRejectedRoot}
	}

	isGenesis := IsGenesis(c.header)
	limits := validator.Limits()

	for _, tx := range c.accepted {
		if err := validator.Admit(tx, limits); err != nil {
			return ValidSigned{}, &TxAdmissionFailedError{TxHash: tx.Hash(), Reason: err.Error()}
		}
		decision := validator.Validate(tx, isGenesis, wsv)
		if !decision.Accepted {
			return ValidSigned{}, &AcceptedTxRevalidationFailedError{TxHash: tx.Hash(), Reason: decision.Reason}
		}
	}

	rejected := make([]txn.Rejected, 0, len(c.rejected))
	for _, tx := range c.rejected {
		if err := validator.Admit(tx, limits); err != nil {
			rejected = append(rejected, txn.Rejected{Tx: tx, Reason: err.Error()})
			continue
		}
		decision := validator.Validate(tx, isGenesis, wsv)
		if decision.Accepted {
			return ValidSigned{}, ErrRejectedTxRevalidatesClean
		}
		rejected = append(rejected, txn.Rejected{Tx: tx, Reason: decision.Reason})
	}

	return ValidSigned{
		header:     c.header,
		accepted:   c.accepted,
		rejected:   rejected,
		signatures: c.signatures.clone(),
	}, nil
}
