// Package p2p implements the wallet core's network dispatch: a libp2p
// GossipSub publisher for locally submitted transactions.
package p2p

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Vantar-tech/vantar-wallet/config"
	"github.com/Vantar-tech/vantar-wallet/internal/log"
	"github.com/Vantar-tech/vantar-wallet/internal/txbuilder"
	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"
)

// TopicTransactions is the GossipSub topic transactions relay on.
const TopicTransactions = "vantar/tx/1"

// seedConnectTimeout bounds each seed dial.
const seedConnectTimeout = 5 * time.Second

// Broadcaster publishes transaction messages to the gossip network. It
// implements the submission path's enqueue hook.
type Broadcaster struct {
	host    host.Host
	pubsub  *pubsub.PubSub
	topicTx *pubsub.Topic
	subTx   *pubsub.Subscription
	ctx     context.Context
	cancel  context.CancelFunc

	// onTx, when set, receives relayed transactions from other peers.
	onTx func(msg txbuilder.Msg)
}

// NewBroadcaster creates an unstarted broadcaster.
func NewBroadcaster() *Broadcaster {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broadcaster{ctx: ctx, cancel: cancel}
}

// SetTxHandler registers a handler for transactions relayed by peers.
// Must be called before Start.
func (b *Broadcaster) SetTxHandler(fn func(msg txbuilder.Msg)) {
	b.onTx = fn
}

// Start initializes the libp2p host, joins the transaction topic, and
// connects to the configured seed peers.
func (b *Broadcaster) Start(cfg config.P2PConfig) error {
	addr := fmt.Sprintf("/ip4/%s/tcp/%d", cfg.ListenAddr, cfg.Port)

	h, err := libp2p.New(libp2p.ListenAddrStrings(addr))
	if err != nil {
		return fmt.Errorf("create libp2p host: %w", err)
	}
	b.host = h

	ps, err := pubsub.NewGossipSub(b.ctx, h)
	if err != nil {
		h.Close()
		return fmt.Errorf("create pubsub: %w", err)
	}
	b.pubsub = ps

	b.topicTx, err = ps.Join(TopicTransactions)
	if err != nil {
		h.Close()
		return fmt.Errorf("join tx topic: %w", err)
	}
	b.subTx, err = b.topicTx.Subscribe()
	if err != nil {
		h.Close()
		return fmt.Errorf("subscribe tx topic: %w", err)
	}
	go b.readLoop()

	b.connectSeeds(cfg.Seeds)

	log.P2P.Info().
		Str("peer_id", h.ID().String()).
		Str("listen", addr).
		Msg("broadcaster started")
	return nil
}

// Enqueue publishes a transaction message. Returns true iff the topic
// currently has at least one peer to deliver to.
func (b *Broadcaster) Enqueue(msg txbuilder.Msg) bool {
	if b.topicTx == nil {
		log.P2P.Warn().Msg("enqueue before broadcaster start")
		return false
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.P2P.Error().Err(err).Msg("marshal tx message")
		return false
	}
	if err := b.topicTx.Publish(b.ctx, data); err != nil {
		log.P2P.Error().Err(err).Str("txid", msg.TxID.String()).Msg("publish tx")
		return false
	}
	return len(b.topicTx.ListPeers()) > 0
}

// readLoop delivers relayed transactions to the registered handler.
func (b *Broadcaster) readLoop() {
	for {
		m, err := b.subTx.Next(b.ctx)
		if err != nil {
			return // Context cancelled or subscription closed.
		}
		if m.ReceivedFrom == b.host.ID() {
			continue // Ignore our own publishes.
		}
		if b.onTx == nil {
			continue
		}

		var msg txbuilder.Msg
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.P2P.Debug().Err(err).Msg("drop malformed tx message")
			continue
		}
		if msg.Contents == nil || msg.Contents.ID() != msg.TxID {
			log.P2P.Debug().Str("txid", msg.TxID.String()).Msg("drop tx with mismatched id")
			continue
		}
		b.onTx(msg)
	}
}

// connectSeeds dials each configured seed once, best effort.
func (b *Broadcaster) connectSeeds(seeds []string) {
	for _, seed := range seeds {
		maddr, err := multiaddr.NewMultiaddr(seed)
		if err != nil {
			log.P2P.Warn().Str("seed", seed).Err(err).Msg("invalid seed multiaddr")
			continue
		}
		info, err := peer.AddrInfoFromP2pAddr(maddr)
		if err != nil {
			log.P2P.Warn().Str("seed", seed).Err(err).Msg("seed has no peer id")
			continue
		}

		ctx, cancel := context.WithTimeout(b.ctx, seedConnectTimeout)
		if err := b.host.Connect(ctx, *info); err != nil {
			log.P2P.Warn().Str("seed", seed).Err(err).Msg("seed connect failed")
		}
		cancel()
	}
}

// Close shuts the broadcaster down.
func (b *Broadcaster) Close() error {
	b.cancel()
	if b.host != nil {
		return b.host.Close()
	}
	return nil
}
