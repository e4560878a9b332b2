package network

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// MessageHandler is called for each frame of its registered type.
type MessageHandler func(peer *Peer, msg Message)

const (
	// DefaultMaxPeers bounds simultaneous connections.
	DefaultMaxPeers = 50

	handshakeTimeout = 10 * time.Second
	dialTimeout      = 10 * time.Second
)

// Node is the transport: it listens, dials, performs the hello
// handshake, and dispatches frames to registered handlers. It holds no
// block, mempool, or chain state of its own; the only domain fact it
// carries is the local chain height it reports in handshakes, supplied
// as a callback.
type Node struct {
	id         string
	listenAddr string
	tlsCfg     *tls.Config // nil means plain TCP
	tip        func() uint64
	maxPeers   int

	mu       sync.RWMutex
	peers    map[string]*Peer
	handlers map[MsgType]MessageHandler
	onJoin   func(*Peer)

	ln     net.Listener
	stopCh chan struct{}
}

// NewNode creates a Node that will listen on listenAddr. tip reports the
// local chain height for handshakes; nil means a height of zero.
func NewNode(id, listenAddr string, tip func() uint64, tlsCfg *tls.Config) *Node {
	if tip == nil {
		tip = func() uint64 { return 0 }
	}
	return &Node{
		id:         id,
		listenAddr: listenAddr,
		tlsCfg:     tlsCfg,
		tip:        tip,
		maxPeers:   DefaultMaxPeers,
		peers:      make(map[string]*Peer),
		handlers:   make(map[MsgType]MessageHandler),
		stopCh:     make(chan struct{}),
	}
}

// Handle registers a handler for typ, overwriting any previous one.
func (n *Node) Handle(typ MsgType, h MessageHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[typ] = h
}

// OnPeerJoin registers a callback invoked once per peer, after its
// handshake completes. The syncer uses it to start catch-up when the new
// peer's reported height is ahead of the local chain.
func (n *Node) OnPeerJoin(f func(*Peer)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onJoin = f
}

// Start begins accepting connections.
func (n *Node) Start() error {
	var ln net.Listener
	var err error
	if n.tlsCfg != nil {
		ln, err = tls.Listen("tcp", n.listenAddr, n.tlsCfg)
	} else {
		ln, err = net.Listen("tcp", n.listenAddr)
	}
	if err != nil {
		return fmt.Errorf("network: listen %s: %w", n.listenAddr, err)
	}
	n.ln = ln
	go n.acceptLoop()
	return nil
}

// ListenAddr returns the bound listener address, useful when started on
// port 0.
func (n *Node) ListenAddr() net.Addr {
	if n.ln == nil {
		return nil
	}
	return n.ln.Addr()
}

// Stop shuts down the listener and closes every peer.
func (n *Node) Stop() {
	close(n.stopCh)
	if n.ln != nil {
		n.ln.Close()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, p := range n.peers {
		p.Close()
	}
}

// AddPeer dials addr, handshakes, and registers the peer under the node
// id it introduced itself with.
func (n *Node) AddPeer(addr string) error {
	var conn net.Conn
	var err error
	if n.tlsCfg != nil {
		conn, err = tls.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, "tcp", addr, n.tlsCfg)
	} else {
		conn, err = net.DialTimeout("tcp", addr, dialTimeout)
	}
	if err != nil {
		return fmt.Errorf("network: dial %s: %w", addr, err)
	}

	p := NewPeer(conn)
	if err := n.handshake(p); err != nil {
		p.Close()
		return fmt.Errorf("network: handshake with %s: %w", addr, err)
	}
	n.register(p)
	go n.readLoop(p)
	return nil
}

// Peer returns the connected peer with the given node id, or nil.
func (n *Node) Peer(id string) *Peer {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.peers[id]
}

// Broadcast sends msg to every connected peer.
func (n *Node) Broadcast(msg Message) {
	n.mu.RLock()
	peers := make([]*Peer, 0, len(n.peers))
	for _, p := range n.peers {
		peers = append(peers, p)
	}
	n.mu.RUnlock()
	for _, p := range peers {
		if err := p.Send(msg); err != nil {
			log.Printf("[network] broadcast %s to %s: %v", msg.Type, p.ID, err)
		}
	}
}

// handshake exchanges hello frames: this side announces its identity and
// chain height, then requires the same of the remote before any other
// frame is honored.
func (n *Node) handshake(p *Peer) error {
	hello, err := json.Marshal(Hello{NodeID: n.id, Height: n.tip()})
	if err != nil {
		return err
	}
	if err := p.Send(Message{Type: MsgHello, Payload: hello}); err != nil {
		return err
	}

	msg, err := p.receive(handshakeTimeout)
	if err != nil {
		return err
	}
	if msg.Type != MsgHello {
		return fmt.Errorf("expected hello, got %s", msg.Type)
	}
	var remote Hello
	if err := json.Unmarshal(msg.Payload, &remote); err != nil {
		return err
	}
	if remote.NodeID == "" {
		return errors.New("peer did not identify itself")
	}
	if remote.NodeID == n.id {
		return errors.New("connected to self")
	}
	p.ID = remote.NodeID
	p.RecordHeight(remote.Height)
	return nil
}

func (n *Node) register(p *Peer) {
	n.mu.Lock()
	if old, ok := n.peers[p.ID]; ok {
		old.Close()
	}
	n.peers[p.ID] = p
	onJoin := n.onJoin
	n.mu.Unlock()
	if onJoin != nil {
		onJoin(p)
	}
}

func (n *Node) unregister(p *Peer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.peers[p.ID] == p {
		delete(n.peers, p.ID)
	}
}

func (n *Node) acceptLoop() {
	for {
		conn, err := n.ln.Accept()
		if err != nil {
			select {
			case <-n.stopCh:
				return
			default:
				log.Printf("[network] accept: %v", err)
				time.Sleep(100 * time.Millisecond)
				continue
			}
		}
		n.mu.RLock()
		full := len(n.peers) >= n.maxPeers
		n.mu.RUnlock()
		if full {
			log.Printf("[network] peer limit %d reached, refusing %s", n.maxPeers, conn.RemoteAddr())
			conn.Close()
			continue
		}
		go n.admit(conn)
	}
}

func (n *Node) admit(conn net.Conn) {
	p := NewPeer(conn)
	if err := n.handshake(p); err != nil {
		log.Printf("[network] handshake from %s: %v", p.Addr, err)
		p.Close()
		return
	}
	n.register(p)
	n.readLoop(p)
}

func (n *Node) readLoop(p *Peer) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[network] handler panic for peer %s: %v", p.ID, r)
		}
		p.Close()
		n.unregister(p)
	}()
	for {
		msg, err := p.Receive()
		if err != nil {
			return
		}
		n.mu.RLock()
		h, ok := n.handlers[msg.Type]
		n.mu.RUnlock()
		if ok {
			h(p, msg)
		}
	}
}
