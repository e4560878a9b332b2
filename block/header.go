// Package block implements the typed block lifecycle: the compile-time
// enforced progression from a freshly proposed Pending block through
// Chained, Valid, ValidSigned, and Committed, plus the Candidate wire
// form used to ship a block to a peer for revalidation.
//
// The only way to produce a Valid block is to validate a Chained one; the
// only way to produce a Committed block is to commit a ValidSigned one.
// There is no field-level constructor for any state past Pending —
// everything flows through the transition methods in transitions.go and
// candidate.go, or through the decoders in wire.go (DecodeCommitted,
// DecodeCandidate), which rebuild a state from its JSON envelope.
package block

import (
	"encoding/binary"

	"github.com/ledgerforge/corechain/crypto"
)

// Topology describes the initial peer set of a genesis block. It is
// present only when externally supplied and is encoded
// positionally so header bytes stay deterministic with or without it.
type Topology struct {
	Peers []string
}

// Header is the sole byte-basis of a block's content hash: the block
// body (transactions) never participates in identity.
//
// Timestamp and ConsensusEstimation are uint64 milliseconds. A uint64
// millisecond counter does not wrap until the year 584,942,417,355, so
// nothing wider is needed.
type Header struct {
	Timestamp                uint64
	ConsensusEstimation      uint64
	Height                   uint64
	PreviousBlockHash        crypto.Hash
	TransactionsHash         crypto.Hash
	RejectedTransactionsHash crypto.Hash
	GenesisTopology          *Topology
}

// DefaultConsensusEstimation is used by Chain/ChainFirst when the
// producer has not supplied an estimate of its own.
const DefaultConsensusEstimation = uint64(2000)

// IsGenesis reports whether h is the height-1 genesis header.
func IsGenesis(h Header) bool {
	return h.Height == 1
}

// encode produces the deterministic binary encoding peers agree on. Field
// order is fixed; Hash() is taken from exactly these bytes and nothing
// else, so changing this layout changes every block hash in the system.
func (h Header) encode() []byte {
	buf := make([]byte, 0, 8+8+8+crypto.Size*3+1+64)
	var scratch [8]byte

	binary.BigEndian.PutUint64(scratch[:], h.Height)
	buf = append(buf, scratch[:]...)
	binary.BigEndian.PutUint64(scratch[:], h.Timestamp)
	buf = append(buf, scratch[:]...)
	binary.BigEndian.PutUint64(scratch[:], h.ConsensusEstimation)
	buf = append(buf, scratch[:]...)

	buf = append(buf, h.PreviousBlockHash.Bytes()...)
	buf = append(buf, h.TransactionsHash.Bytes()...)
	buf = append(buf, h.RejectedTransactionsHash.Bytes()...)

	if h.GenesisTopology == nil {
		buf = append(buf, 0)
		return buf
	}
	buf = append(buf, 1)
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(h.GenesisTopology.Peers)))
	buf = append(buf, count[:]...)
	for _, p := range h.GenesisTopology.Peers {
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(p)))
		buf = append(buf, l[:]...)
		buf = append(buf, p...)
	}
	return buf
}

// hashHeader is the single point every state's Hash() method calls
// through, guaranteeing byte-identical hashes across state transitions:
// only the header is ever hashed.
func hashHeader(h Header) crypto.Hash {
	return crypto.Sum(h.encode())
}
