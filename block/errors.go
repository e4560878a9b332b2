package block

import (
	"errors"
	"fmt"

	"github.com/ledgerforge/corechain/crypto"
)

// ErrSignatureCreation wraps a signing collaborator failure.
var ErrSignatureCreation = errors.New("block: signature creation failed")

// ErrEmptyBlock is returned by Revalidate when both transaction lists are empty.
var ErrEmptyBlock = errors.New("block: candidate has no accepted or rejected transactions")

// ErrAlreadyCommitted is returned by Revalidate when a candidate replays a
// transaction the local world state already has.
var ErrAlreadyCommitted = errors.New("block: transaction already committed")

// ErrRejectedTxRevalidatesClean is returned when a transaction the sender
// marked rejected validates successfully against local state.
var ErrRejectedTxRevalidatesClean = errors.New("block: rejected transaction revalidated clean")

// PrevHashMismatchError reports a broken previous-hash linkage.
type PrevHashMismatchError struct {
	Expected crypto.Hash
	Actual   crypto.Hash
}

func (e *PrevHashMismatchError) Error() string {
	return fmt.Sprintf("block: previous hash mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// HeightMismatchError reports a broken height continuity.
type HeightMismatchError struct {
	Expected uint64
	Actual   uint64
}

func (e *HeightMismatchError) Error() string {
	return fmt.Sprintf("block: height mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// TxRootMismatchError reports that the declared accepted-transactions
// Merkle root does not match the recomputed one.
type TxRootMismatchError struct {
	Expected crypto.Hash
	Actual   crypto.Hash
}

func (e *TxRootMismatchError) Error() string {
	return fmt.Sprintf("block: transactions_hash mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// RejectedRootMismatchError reports that the declared rejected-transactions
// Merkle root does not match the recomputed one.
type RejectedRootMismatchError struct {
	Expected crypto.Hash
	Actual   crypto.Hash
}

func (e *RejectedRootMismatchError) Error() string {
	return fmt.Sprintf("block: rejected_transactions_hash mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// AcceptedTxRevalidationFailedError wraps the validation failure of an
// accepted-candidate transaction during revalidation. An admission failure
// of such a transaction is reported as TxAdmissionFailedError instead.
type AcceptedTxRevalidationFailedError struct {
	TxHash crypto.Hash
	Reason string
}

func (e *AcceptedTxRevalidationFailedError) Error() string {
	return fmt.Sprintf("block: accepted tx %s failed revalidation: %s", e.TxHash, e.Reason)
}

// TxAdmissionFailedError reports that a transaction exceeded local limits
// during revalidation admission.
type TxAdmissionFailedError struct {
	TxHash crypto.Hash
	Reason string
}

func (e *TxAdmissionFailedError) Error() string {
	return fmt.Sprintf("block: tx %s failed admission: %s", e.TxHash, e.Reason)
}
