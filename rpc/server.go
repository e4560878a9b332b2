package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// maxRequestBytes bounds an incoming call. Requests here are tiny; the
// largest legitimate payload is a sendTx body. Responses can carry whole
// blocks and are not bounded, so the cap is deliberately asymmetric.
const maxRequestBytes = 256 << 10

// Server terminates HTTP for the Handler's JSON-RPC methods.
type Server struct {
	handler   *Handler
	authToken string // empty disables auth
	srv       *http.Server
	ln        net.Listener
}

// NewServer creates a Server on addr. A non-empty authToken requires
// every call to carry "Authorization: Bearer <token>".
func NewServer(addr string, handler *Handler, authToken string) *Server {
	s := &Server{handler: handler, authToken: authToken}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(s.serve),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Start binds the port synchronously so a bad address fails here, not in
// a goroutine, then serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[rpc] serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address, useful when started on ":0".
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "JSON-RPC calls must be POSTed", http.StatusMethodNotAllowed)
		return
	}
	if s.authToken != "" && r.Header.Get("Authorization") != "Bearer "+s.authToken {
		w.WriteHeader(http.StatusUnauthorized)
		reply(w, fail(nil, CodeUnauthorized, "missing or invalid bearer token"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		reply(w, fail(nil, CodeInvalidRequest, "request body too large or unreadable"))
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		reply(w, fail(nil, CodeInvalidRequest, "batch calls are not supported"))
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		reply(w, fail(nil, CodeParseError, err.Error()))
		return
	}
	if req.JSONRPC != "2.0" {
		reply(w, fail(req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\""))
		return
	}
	reply(w, s.handler.Dispatch(req))
}

func reply(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[rpc] encode response: %v", err)
	}
}
