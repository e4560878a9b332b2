// Package network ships transactions and candidate blocks between
// validator nodes as length-delimited JSON frames over TCP, with mutual
// TLS when configured. The transport knows nothing about what a message
// means: the syncer registers a handler per message type and owns the
// semantics.
package network

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// MsgType labels a frame.
type MsgType string

const (
	MsgHello     MsgType = "hello"
	MsgTx        MsgType = "tx"
	MsgCandidate MsgType = "candidate"
	MsgGetBlocks MsgType = "get_blocks"
	MsgBlocks    MsgType = "blocks"
)

// Message is the frame payload: a type tag plus the type's own JSON body.
type Message struct {
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hello is the first frame each side of a fresh connection sends: who it
// is, and how tall its chain is, so the receiver can immediately decide
// whether it needs to request catch-up blocks.
type Hello struct {
	NodeID string `json:"node_id"`
	Height uint64 `json:"height"`
}

// Frame budgets per message type. A gossiped transaction is a few
// hundred bytes; a candidate carries a whole block's transaction lists
// and signatures, and a blocks batch carries up to syncBatchSize of
// them. An oversized frame for its declared type is a protocol
// violation, not something to buffer.
const (
	maxControlFrame   = 4 << 10
	maxTxFrame        = 64 << 10
	maxCandidateFrame = 8 << 20
	maxBlocksFrame    = 32 << 20
)

func frameBudget(typ MsgType) int {
	switch typ {
	case MsgCandidate:
		return maxCandidateFrame
	case MsgBlocks:
		return maxBlocksFrame
	case MsgTx:
		return maxTxFrame
	default:
		return maxControlFrame
	}
}

// idleTimeout disconnects a peer that has sent nothing for this long.
// No keepalive frame is sent, and a production tick with an empty
// mempool sends nothing, so a peer on an idle network is disconnected
// too.
const idleTimeout = 5 * time.Minute

// Peer is one live connection to a remote node.
type Peer struct {
	ID   string // remote node id, learned from the hello handshake
	Addr string

	conn net.Conn
	r    *bufio.Reader

	wmu sync.Mutex // serializes frame writes

	mu     sync.Mutex
	closed bool
	height uint64 // last chain height the remote reported
}

// NewPeer wraps an established connection. The caller performs the hello
// handshake before the peer is useful.
func NewPeer(conn net.Conn) *Peer {
	return &Peer{
		Addr: conn.RemoteAddr().String(),
		conn: conn,
		r:    bufio.NewReader(conn),
	}
}

// Send writes one frame: uvarint length, then the JSON-encoded message.
// A message over its type's frame budget is refused locally rather than
// shipped to a peer that would drop it.
func (p *Peer) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if budget := frameBudget(msg.Type); len(data) > budget {
		return fmt.Errorf("network: %s frame is %d bytes, budget is %d", msg.Type, len(data), budget)
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()
	if p.isClosed() {
		return fmt.Errorf("network: peer %s is closed", p.Addr)
	}
	var head [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(head[:], uint64(len(data)))
	if _, err := p.conn.Write(head[:n]); err != nil {
		return err
	}
	_, err = p.conn.Write(data)
	return err
}

// Receive reads the next frame. The length prefix is checked against the
// largest budget before the body is read, and the decoded message is
// checked again against its own type's budget, so a peer cannot smuggle
// a blocks-sized frame under a tx label.
func (p *Peer) Receive() (Message, error) {
	return p.receive(idleTimeout)
}

func (p *Peer) receive(timeout time.Duration) (Message, error) {
	_ = p.conn.SetReadDeadline(time.Now().Add(timeout))
	length, err := binary.ReadUvarint(p.r)
	if err != nil {
		return Message{}, err
	}
	if length > maxBlocksFrame {
		return Message{}, fmt.Errorf("network: frame of %d bytes exceeds any budget", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		return Message{}, err
	}
	var msg Message
	if err := json.Unmarshal(buf, &msg); err != nil {
		return Message{}, fmt.Errorf("network: malformed frame: %w", err)
	}
	if budget := frameBudget(msg.Type); len(buf) > budget {
		return Message{}, fmt.Errorf("network: %s frame is %d bytes, budget is %d", msg.Type, len(buf), budget)
	}
	return msg, nil
}

// RecordHeight notes the chain height the remote last reported, from its
// hello or from blocks it has shipped since.
func (p *Peer) RecordHeight(h uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if h > p.height {
		p.height = h
	}
}

// Height returns the highest chain height the remote has reported.
func (p *Peer) Height() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.height
}

func (p *Peer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close terminates the connection. Safe to call more than once.
func (p *Peer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.conn.Close()
	}
}
