package rpc

import (
	"encoding/json"
	"testing"

	"github.com/ledgerforge/corechain/chain"
	"github.com/ledgerforge/corechain/crypto"
	"github.com/ledgerforge/corechain/mempool"
	"github.com/ledgerforge/corechain/txn"
	"github.com/ledgerforge/corechain/worldstate"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	c := chain.New()
	pool := mempool.New()
	state := worldstate.New(worldstate.NewMemDB())
	return NewHandler(c, pool, state, "test-chain")
}

func dispatch(h *Handler, method string, params any) Response {
	raw, _ := json.Marshal(params)
	return h.Dispatch(Request{JSONRPC: "2.0", ID: 1, Method: method, Params: raw})
}

func TestGetBlockHeightOnEmptyChain(t *testing.T) {
	h := newTestHandler(t)
	resp := dispatch(h, "getBlockHeight", struct{}{})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	height, ok := resp.Result.(int)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if height != 0 {
		t.Errorf("height: got %d want 0", height)
	}
}

func TestGetBlockOnEmptyChainErrors(t *testing.T) {
	h := newTestHandler(t)
	resp := dispatch(h, "getBlock", struct{}{})
	if resp.Error == nil {
		t.Fatal("expected an error for getBlock on an empty chain")
	}
	if resp.Error.Code != CodeNotFound {
		t.Errorf("error code: got %d want %d", resp.Error.Code, CodeNotFound)
	}
}

func TestGetBlockMissingHeightCarriesContext(t *testing.T) {
	h := newTestHandler(t)
	resp := dispatch(h, "getBlock", map[string]uint64{"height": 7})
	if resp.Error == nil || resp.Error.Code != CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %+v", resp.Error)
	}
	data, ok := resp.Error.Data.(map[string]uint64)
	if !ok {
		t.Fatalf("expected structured error data, got %T", resp.Error.Data)
	}
	if data["height"] != 7 || data["chain_length"] != 0 {
		t.Errorf("error data should name the missed height and the chain length, got %v", data)
	}
}

func TestGetBalanceDefaultsToZero(t *testing.T) {
	h := newTestHandler(t)
	resp := dispatch(h, "getBalance", map[string]string{"address": "nobody"})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected result type %T", resp.Result)
	}
	if result["balance"] != uint64(0) {
		t.Errorf("balance: got %v want 0", result["balance"])
	}
}

func TestGetBalanceRejectsEmptyAddress(t *testing.T) {
	h := newTestHandler(t)
	resp := dispatch(h, "getBalance", map[string]string{"address": ""})
	if resp.Error == nil {
		t.Fatal("expected an error for an empty address")
	}
	if resp.Error.Code != CodeInvalidParams {
		t.Errorf("error code: got %d want %d", resp.Error.Code, CodeInvalidParams)
	}
}

func TestGetMempoolSizeOnEmptyPool(t *testing.T) {
	h := newTestHandler(t)
	resp := dispatch(h, "getMempoolSize", struct{}{})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	if resp.Result != 0 {
		t.Errorf("mempool size: got %v want 0", resp.Result)
	}
}

func TestMethodNotFound(t *testing.T) {
	h := newTestHandler(t)
	resp := dispatch(h, "doesNotExist", struct{}{})
	if resp.Error == nil {
		t.Fatal("expected an error for an unknown method")
	}
	if resp.Error.Code != CodeMethodNotFound {
		t.Errorf("error code: got %d want %d", resp.Error.Code, CodeMethodNotFound)
	}
}

func TestSendTxRejectsChainIDMismatch(t *testing.T) {
	h := newTestHandler(t)
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	tx, err := txn.New(txn.Type("transfer"), kp.Pub.Hex(), 0, 1, nil)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	if err := tx.Sign(kp); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	txJSON, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	resp := dispatch(h, "sendTx", map[string]any{
		"chain_id": "wrong-chain",
		"tx":       json.RawMessage(txJSON),
	})
	if resp.Error == nil {
		t.Fatal("expected an error for a chain ID mismatch")
	}
	if resp.Error.Code != CodeInvalidParams {
		t.Errorf("error code: got %d want %d", resp.Error.Code, CodeInvalidParams)
	}
}

func TestSendTxAddsToMempool(t *testing.T) {
	h := newTestHandler(t)
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("NewKeyPair: %v", err)
	}
	tx, err := txn.New(txn.Type("transfer"), kp.Pub.Hex(), 0, 1, nil)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	if err := tx.Sign(kp); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	txJSON, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	resp := dispatch(h, "sendTx", map[string]any{
		"chain_id": "test-chain",
		"tx":       json.RawMessage(txJSON),
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error.Message)
	}
	sizeResp := dispatch(h, "getMempoolSize", struct{}{})
	if sizeResp.Result != 1 {
		t.Errorf("mempool size after sendTx: got %v want 1", sizeResp.Result)
	}
}
