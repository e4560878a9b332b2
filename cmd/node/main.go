// Command node runs a single-validator node wiring the block lifecycle
// core (block, chain) to the transport, storage, and config packages
// around it. It is not a consensus engine: there is no leader election
// or voting here. The node drains its own mempool on a timer and runs
// every block through the same Chain, Validate, Sign, Commit pipeline a
// real proposer would.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerforge/corechain/block"
	"github.com/ledgerforge/corechain/chain"
	"github.com/ledgerforge/corechain/chainstore"
	"github.com/ledgerforge/corechain/config"
	"github.com/ledgerforge/corechain/events"
	"github.com/ledgerforge/corechain/mempool"
	"github.com/ledgerforge/corechain/network"
	"github.com/ledgerforge/corechain/rpc"
	"github.com/ledgerforge/corechain/validation"
	"github.com/ledgerforge/corechain/wallet"
	"github.com/ledgerforge/corechain/worldstate"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	keyPath := flag.String("key", "validator.key", "path to keystore file")
	genKey := flag.Bool("genkey", false, "generate a new validator key and exit")
	flag.Parse()

	password := os.Getenv("CORECHAIN_PASSWORD")
	if password == "" {
		log.Println("WARNING: CORECHAIN_PASSWORD not set — keystore will use an empty password")
	}

	if *genKey {
		w, err := wallet.Generate()
		if err != nil {
			log.Fatal(err)
		}
		if err := wallet.SaveKeystore(*keyPath, password, w.KeyPair()); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Generated key. Validator address: %s\n", w.Address())
		fmt.Printf("Saved to: %s\n", *keyPath)
		return
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	kp, err := wallet.LoadKeystore(*keyPath, password)
	if err != nil {
		log.Fatalf("load key: %v", err)
	}
	signer := wallet.New(kp)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}
	db, err := worldstate.NewLevelDB(cfg.DataDir + "/state")
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	state := worldstate.New(db)
	store := chainstore.New(db)

	c, err := store.Load()
	if err != nil {
		log.Fatalf("chainstore load: %v", err)
	}

	emitter := events.NewEmitter()
	pool := mempool.New()
	limits := block.Limits{MaxInstructions: 0, MaxWasmSize: 0}
	validator := validation.New(state, limits)

	if c.Len() == 0 {
		if err := seedGenesis(c, store, state, signer, cfg); err != nil {
			log.Fatalf("genesis: %v", err)
		}
		log.Println("Genesis block committed")
	}

	tlsCfg, err := cfg.TLS.Load()
	if err != nil {
		log.Fatalf("tls: %v", err)
	}
	if tlsCfg != nil {
		log.Println("mTLS enabled for P2P")
	}

	tip := func() uint64 {
		b, ok := c.Latest()
		if !ok {
			return 0
		}
		return b.Header().Height
	}
	p2pAddr := fmt.Sprintf(":%d", cfg.P2PPort)
	node := network.NewNode(cfg.NodeID, p2pAddr, tip, tlsCfg)
	syncer := network.NewSyncer(node, c, validator, state, pool)
	if err := node.Start(); err != nil {
		log.Fatalf("p2p start: %v", err)
	}
	defer node.Stop()
	log.Printf("P2P listening on %s", p2pAddr)

	// Catch-up, when a seed peer is ahead, starts from the handshake
	// heights; nothing more to arrange here.
	for _, sp := range cfg.SeedPeers {
		if err := node.AddPeer(sp.Addr); err != nil {
			log.Printf("seed peer %s (%s): %v", sp.ID, sp.Addr, err)
			continue
		}
		log.Printf("Connected to seed peer %s (%s)", sp.ID, sp.Addr)
	}

	rpcAddr := fmt.Sprintf(":%d", cfg.RPCPort)
	rpcHandler := rpc.NewHandler(c, pool, state, cfg.Genesis.ChainID)
	rpcServer := rpc.NewServer(rpcAddr, rpcHandler, "")
	if err := rpcServer.Start(); err != nil {
		log.Fatalf("rpc start: %v", err)
	}
	defer rpcServer.Stop()
	log.Printf("RPC listening on %s", rpcAddr)

	done := make(chan struct{})
	go produceLoop(done, c, store, state, pool, validator, signer, syncer, emitter, cfg.MaxBlockTxs)
	log.Printf("Block production running (validator: %s)", signer.Identity())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")
	close(done)
	log.Println("Shutdown complete.")
}

// seedGenesis builds and commits the single genesis block from the
// allocations in cfg.Genesis, through the same pipeline any later block
// takes.
func seedGenesis(c *chain.Chain, store *chainstore.Store, state *worldstate.WorldState, signer *wallet.Wallet, cfg *config.Config) error {
	for addr, balance := range cfg.Genesis.Alloc {
		if err := state.SetAccount(worldstate.Account{Address: addr, Balance: balance}); err != nil {
			return err
		}
	}

	var topology *block.Topology
	if len(cfg.Validators) > 0 {
		topology = &block.Topology{Peers: cfg.Validators}
	}

	pending := block.NewPending(uint64(time.Now().UnixMilli()), nil, nil)
	chained := pending.ChainFirst(topology)
	limits := block.Limits{}
	validator := validation.New(state, limits)
	valid, err := chained.Validate(validator, state)
	if err != nil {
		return err
	}
	signed, err := valid.Sign(signer)
	if err != nil {
		return err
	}
	committed := signed.Commit()
	c.Push(committed)
	return store.Save(committed)
}

// produceLoop drains the mempool on a fixed tick and runs whatever it
// finds through the full block lifecycle: chain, validate, sign, commit,
// persist, push, broadcast as a Candidate. An empty mempool produces no
// block this tick: the node only proposes when there is something to
// propose.
func produceLoop(
	done <-chan struct{},
	c *chain.Chain,
	store *chainstore.Store,
	state *worldstate.WorldState,
	pool *mempool.Mempool,
	validator *validation.TokenValidator,
	signer *wallet.Wallet,
	syncer *network.Syncer,
	emitter *events.Emitter,
	maxTxs int,
) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			produceOne(c, store, state, pool, validator, signer, syncer, emitter, maxTxs)
		}
	}
}

func produceOne(
	c *chain.Chain,
	store *chainstore.Store,
	state *worldstate.WorldState,
	pool *mempool.Mempool,
	validator *validation.TokenValidator,
	signer *wallet.Wallet,
	syncer *network.Syncer,
	emitter *events.Emitter,
	maxTxs int,
) {
	if maxTxs <= 0 {
		maxTxs = 500
	}
	txs := pool.Pending(maxTxs)
	if len(txs) == 0 {
		return
	}

	latest, ok := c.Latest()
	if !ok {
		log.Println("[produce] no committed blocks yet, skipping until genesis exists")
		return
	}
	prevHash := latest.Hash().Raw()
	height := latest.Header().Height

	pending := block.NewPending(uint64(time.Now().UnixMilli()), txs, nil)
	chained := pending.Chain(height, prevHash)
	valid, err := chained.Validate(validator, state)
	if err != nil {
		log.Printf("[produce] validate: %v", err)
		return
	}
	signed, err := valid.Sign(signer)
	if err != nil {
		log.Printf("[produce] sign: %v", err)
		return
	}
	emitter.EmitAll(block.ProjectSigned(signed))

	committed := signed.Commit()
	if err := store.Save(committed); err != nil {
		log.Printf("[produce] persist: %v", err)
		return
	}
	c.Push(committed)
	emitter.EmitAll(block.ProjectCommitted(committed))

	ids := make([]string, 0, len(committed.Accepted())+len(committed.Rejected()))
	for _, tx := range committed.Accepted() {
		ids = append(ids, tx.Hash().Hex())
		if err := state.MarkCommitted(tx.Hash()); err != nil {
			log.Printf("[produce] mark committed %s: %v", tx.Hash(), err)
		}
	}
	for _, r := range committed.Rejected() {
		ids = append(ids, r.Tx.Hash().Hex())
		if err := state.MarkCommitted(r.Tx.Hash()); err != nil {
			log.Printf("[produce] mark committed %s: %v", r.Tx.Hash(), err)
		}
	}
	pool.Remove(ids)

	if err := syncer.AnnounceCandidate(signed.ToCandidate()); err != nil {
		log.Printf("[produce] announce candidate: %v", err)
	}
	log.Printf("Committed block at height %d (%d accepted, %d rejected)", committed.Header().Height, len(committed.Accepted()), len(committed.Rejected()))
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file not found at %s, using defaults.", path)
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}
