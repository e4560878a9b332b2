package network

import (
	"encoding/json"
	"log"

	"github.com/ledgerforge/corechain/block"
	"github.com/ledgerforge/corechain/chain"
	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/mempool"
	"github.com/ledgerforge/corechain/txn"
)

// syncBatchSize caps how many committed blocks one catch-up response
// carries; a lagging peer pages through history batch by batch.
const syncBatchSize = 50

// GetBlocksRequest asks a peer for committed blocks starting at FromHeight.
type GetBlocksRequest struct {
	FromHeight uint64 `json:"from_height"`
	Limit      int    `json:"limit"`
}

// BlocksResponse carries a batch of committed blocks, each already
// encoded via block.Committed.MarshalJSON.
type BlocksResponse struct {
	Blocks []json.RawMessage `json:"blocks"`
}

// WorldState is everything the syncer needs from world state: the
// read-only membership check Candidate.Revalidate requires, plus the
// ability to record freshly committed transactions so the next
// candidate's replay guard has something to check against.
type WorldState interface {
	block.WorldStateView
	MarkCommitted(txHash crypto.Hash) error
}

// Syncer owns the meaning of every P2P message: gossiped transactions go
// to the mempool, candidates are revalidated against local state before
// they may commit, and lagging peers are paged through chain history.
type Syncer struct {
	node      *Node
	chain     *chain.Chain
	validator block.Validator
	wsv       WorldState
	pool      *mempool.Mempool
}

// NewSyncer wires a Syncer into node's message handlers and its
// peer-join hook.
func NewSyncer(node *Node, c *chain.Chain, validator block.Validator, wsv WorldState, pool *mempool.Mempool) *Syncer {
	s := &Syncer{node: node, chain: c, validator: validator, wsv: wsv, pool: pool}
	node.Handle(MsgTx, s.handleTx)
	node.Handle(MsgCandidate, s.handleCandidate)
	node.Handle(MsgGetBlocks, s.handleGetBlocks)
	node.Handle(MsgBlocks, s.handleBlocks)
	node.OnPeerJoin(s.peerJoined)
	return s
}

// peerJoined starts catch-up when a fresh peer's handshake reported a
// taller chain than ours.
func (s *Syncer) peerJoined(p *Peer) {
	_, height := s.localTip()
	if p.Height() > height {
		if err := s.RequestBlocks(p, height+1); err != nil {
			log.Printf("[sync] request blocks from %s: %v", p.ID, err)
		}
	}
}

// AnnounceCandidate ships a freshly signed block to every peer in its
// wire form, for each to revalidate against its own state.
func (s *Syncer) AnnounceCandidate(c block.Candidate) error {
	data, err := c.MarshalJSON()
	if err != nil {
		return err
	}
	s.node.Broadcast(Message{Type: MsgCandidate, Payload: data})
	return nil
}

// AnnounceTx gossips a pooled transaction to every peer.
func (s *Syncer) AnnounceTx(tx *txn.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	s.node.Broadcast(Message{Type: MsgTx, Payload: data})
	return nil
}

// RequestBlocks asks peer for committed blocks starting at fromHeight.
func (s *Syncer) RequestBlocks(peer *Peer, fromHeight uint64) error {
	req, err := json.Marshal(GetBlocksRequest{FromHeight: fromHeight, Limit: syncBatchSize})
	if err != nil {
		return err
	}
	return peer.Send(Message{Type: MsgGetBlocks, Payload: req})
}

func (s *Syncer) handleTx(_ *Peer, msg Message) {
	var tx txn.Transaction
	if err := json.Unmarshal(msg.Payload, &tx); err != nil {
		log.Printf("[sync] malformed tx gossip: %v", err)
		return
	}
	if err := s.pool.Add(&tx); err != nil {
		log.Printf("[sync] gossiped tx refused: %v", err)
	}
}

// handleCandidate revalidates an incoming Candidate and, on success,
// commits and pushes it onto the local chain. A failure is logged and
// the candidate is dropped: revalidation is all-or-nothing, with no
// partial acceptance.
func (s *Syncer) handleCandidate(peer *Peer, msg Message) {
	cand, err := block.DecodeCandidate(msg.Payload)
	if err != nil {
		log.Printf("[sync] decode candidate: %v", err)
		return
	}

	latestHash, latestHeight := s.localTip()
	vs, err := cand.Revalidate(s.validator, s.wsv, latestHash, latestHeight)
	if err != nil {
		log.Printf("[sync] candidate at height %d failed revalidation: %v", cand.Header().Height, err)
		return
	}
	committed := vs.Commit()
	s.chain.Push(committed)
	s.recordCommitted(committed)
	if peer != nil {
		peer.RecordHeight(committed.Header().Height)
	}
}

func (s *Syncer) handleGetBlocks(peer *Peer, msg Message) {
	var req GetBlocksRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return
	}
	if req.Limit <= 0 || req.Limit > syncBatchSize {
		req.Limit = syncBatchSize
	}
	blocks := make([]json.RawMessage, 0, req.Limit)
	for h := req.FromHeight; h < req.FromHeight+uint64(req.Limit); h++ {
		b, ok := s.chain.Get(h)
		if !ok {
			break
		}
		data, err := b.MarshalJSON()
		if err != nil {
			log.Printf("[sync] marshal block %d: %v", h, err)
			break
		}
		blocks = append(blocks, data)
	}
	data, err := json.Marshal(BlocksResponse{Blocks: blocks})
	if err != nil {
		return
	}
	_ = peer.Send(Message{Type: MsgBlocks, Payload: data})
}

// handleBlocks ingests a catch-up batch. A peer-supplied already
// committed block is trusted as-is (it was revalidated by whoever first
// committed it); the chain itself enforces no continuity on Push. When a
// full batch arrives there may be more history behind it, so the next
// page is requested from the same peer.
func (s *Syncer) handleBlocks(peer *Peer, msg Message) {
	var resp BlocksResponse
	if err := json.Unmarshal(msg.Payload, &resp); err != nil {
		log.Printf("[sync] unmarshal blocks response: %v", err)
		return
	}
	var maxHeight uint64
	for _, raw := range resp.Blocks {
		b, err := block.DecodeCommitted(raw)
		if err != nil {
			log.Printf("[sync] decode block: %v", err)
			continue
		}
		s.chain.Push(b)
		s.recordCommitted(b)
		if h := b.Header().Height; h > maxHeight {
			maxHeight = h
		}
	}
	if peer == nil || maxHeight == 0 {
		return
	}
	peer.RecordHeight(maxHeight)
	if len(resp.Blocks) == syncBatchSize {
		if err := s.RequestBlocks(peer, maxHeight+1); err != nil {
			log.Printf("[sync] request next batch from %s: %v", peer.ID, err)
		}
	}
}

// recordCommitted indexes every transaction of a newly committed block
// for the replay guard and drops them from the mempool. Rejected
// transactions count too: they are part of the committed ledger.
func (s *Syncer) recordCommitted(b block.Committed) {
	ids := make([]string, 0, len(b.Accepted())+len(b.Rejected()))
	for _, tx := range b.Accepted() {
		ids = append(ids, tx.Hash().Hex())
		if err := s.wsv.MarkCommitted(tx.Hash()); err != nil {
			log.Printf("[sync] mark committed %s: %v", tx.Hash(), err)
		}
	}
	for _, r := range b.Rejected() {
		ids = append(ids, r.Tx.Hash().Hex())
		if err := s.wsv.MarkCommitted(r.Tx.Hash()); err != nil {
			log.Printf("[sync] mark committed %s: %v", r.Tx.Hash(), err)
		}
	}
	if s.pool != nil {
		s.pool.Remove(ids)
	}
}

func (s *Syncer) localTip() (crypto.Hash, uint64) {
	b, ok := s.chain.Latest()
	if !ok {
		return crypto.Zero(), 0
	}
	return b.Hash().Raw(), b.Header().Height
}
