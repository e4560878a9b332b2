package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/ledgerforge/corechain/chain"
	"github.com/ledgerforge/corechain/mempool"
	"github.com/ledgerforge/corechain/txn"
	"github.com/ledgerforge/corechain/worldstate"
)

// Handler holds all dependencies needed to serve RPC methods.
type Handler struct {
	chain   *chain.Chain
	pool    *mempool.Mempool
	state   *worldstate.WorldState
	chainID string
}

// NewHandler creates an RPC Handler. chainID lets sendTx reject
// transactions submitted for a different chain.
func NewHandler(c *chain.Chain, pool *mempool.Mempool, state *worldstate.WorldState, chainID string) *Handler {
	return &Handler{chain: c, pool: pool, state: state, chainID: chainID}
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(req Request) Response {
	switch req.Method {
	case "getBlockHeight":
		return ok(req.ID, h.chain.Len())

	case "getBlock":
		return h.getBlock(req)

	case "getBalance":
		return h.getBalance(req)

	case "sendTx":
		return h.sendTx(req)

	case "getMempoolSize":
		return ok(req.ID, h.pool.Size())

	default:
		return fail(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (h *Handler) getBlock(req Request) Response {
	var params struct {
		Height *uint64 `json:"height"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return fail(req.ID, CodeInvalidParams, "params: "+err.Error())
	}

	if params.Height != nil {
		b, found := h.chain.Get(*params.Height)
		if !found {
			return failWith(req.ID, CodeNotFound, "no block at this height",
				map[string]uint64{"height": *params.Height, "chain_length": uint64(h.chain.Len())})
		}
		return rawJSONResponse(req.ID, b)
	}
	b, found := h.chain.Latest()
	if !found {
		return fail(req.ID, CodeNotFound, "chain is empty")
	}
	return rawJSONResponse(req.ID, b)
}

// rawJSONResponse marshals v (a block.Committed, via its own MarshalJSON)
// and threads the bytes through as the result field's raw JSON, rather
// than letting encoding/json re-marshal an already-marshaled value.
func rawJSONResponse(id any, v json.Marshaler) Response {
	data, err := v.MarshalJSON()
	if err != nil {
		return fail(id, CodeInternalError, err.Error())
	}
	return ok(id, json.RawMessage(data))
}

func (h *Handler) getBalance(req Request) Response {
	var params struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return fail(req.ID, CodeInvalidParams, err.Error())
	}
	if params.Address == "" {
		return fail(req.ID, CodeInvalidParams, "address is required")
	}
	acc, err := h.state.GetAccount(params.Address)
	if err != nil {
		return fail(req.ID, CodeInternalError, err.Error())
	}
	return ok(req.ID, map[string]any{"address": params.Address, "balance": acc.Balance, "nonce": acc.Nonce})
}

func (h *Handler) sendTx(req Request) Response {
	var body struct {
		ChainID string          `json:"chain_id"`
		Tx      json.RawMessage `json:"tx"`
	}
	if err := json.Unmarshal(req.Params, &body); err != nil {
		return fail(req.ID, CodeInvalidParams, err.Error())
	}
	if body.ChainID != h.chainID {
		return failWith(req.ID, CodeInvalidParams, "chain id mismatch",
			map[string]string{"got": body.ChainID, "want": h.chainID})
	}
	var tx txn.Transaction
	if err := json.Unmarshal(body.Tx, &tx); err != nil {
		return fail(req.ID, CodeInvalidParams, err.Error())
	}
	if err := h.pool.Add(&tx); err != nil {
		return fail(req.ID, CodeRejected, err.Error())
	}
	return ok(req.ID, map[string]string{"tx_id": tx.Hash().Hex()})
}
