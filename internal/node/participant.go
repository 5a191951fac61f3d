// Package node runs a single participant's protocol event loop on its
// own goroutine. It applies internal/protocol's pure transition table
// (or an adversarial internal/protocol.Strategy) to messages arriving
// on its inbox and emits the results onto a shared outbox, grounded on
// pkg/mcast/core/peer.go's Peer.poll/Peer.process event loop.
package node

import (
	"fmt"
	"math/rand"

	"github.com/jabolina/bracha-sim/internal/bracha"
	"github.com/jabolina/bracha-sim/internal/logging"
	"github.com/jabolina/bracha-sim/internal/protocol"
)

// Handle is returned by New; Join blocks until the participant's
// goroutine has exited and surfaces any recovered panic.
type Handle struct {
	done  chan struct{}
	panic interface{}
	id    bracha.Identifier
}

// Join waits for the participant to exit and returns a non-nil error
// if its goroutine panicked.
func (h *Handle) Join() error {
	<-h.done
	if h.panic != nil {
		return &bracha.PanicError{Participant: h.id, Value: h.panic}
	}
	return nil
}

// participant is a single execution unit owning its own protocol
// State. It touches no other participant's memory; all communication
// is by message passing over Inbox/outbox.
type participant struct {
	id       bracha.Identifier
	role     bracha.Role
	params   bracha.Params
	peers    []bracha.Identifier
	silentK  int
	strategy protocol.Strategy
	rng      *rand.Rand

	inbox  <-chan bracha.Envelope
	outbox chan<- bracha.Envelope

	log logging.Logger

	state *bracha.State

	received int // envelopes processed so far, for SilentAfterK
}

// Config configures a single participant.
type Config struct {
	ID       bracha.Identifier
	Role     bracha.Role
	Params   bracha.Params
	Peers    []bracha.Identifier
	SilentK  int
	Strategy protocol.Strategy
	Seed     int64

	Inbox  <-chan bracha.Envelope
	Outbox chan<- bracha.Envelope

	Log     logging.Logger
	Invoker Invoker
}

// New constructs a participant and starts its event loop through the
// supplied Invoker (or a freshly-allocated one), returning a Handle to
// join on termination.
func New(cfg Config) *Handle {
	log := cfg.Log
	if log == nil {
		log = logging.NewNoop()
	}
	invoker := cfg.Invoker
	if invoker == nil {
		invoker = NewInvoker()
	}
	p := &participant{
		id:       cfg.ID,
		role:     cfg.Role,
		params:   cfg.Params,
		peers:    cfg.Peers,
		silentK:  cfg.SilentK,
		strategy: cfg.Strategy,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		inbox:    cfg.Inbox,
		outbox:   cfg.Outbox,
		log:      log,
		state:    bracha.NewState(),
	}

	h := &Handle{done: make(chan struct{}), id: cfg.ID}
	invoker.Spawn(func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("participant %d panicked: %v", p.id, r)
				h.panic = r
			}
		}()
		p.run()
	})
	return h
}

// run is the participant's event loop: repeatedly receive one envelope
// and dispatch on role, until the inbox closes or a fabric END(·)
// arrives.
func (p *participant) run() {
	defer p.log.Debugf("participant %d exiting", p.id)
	for env := range p.inbox {
		if _, ok := env.Msg.(bracha.ControlMessage); ok {
			p.log.Debugf("participant %d received shutdown", p.id)
			return
		}

		msg, ok := env.Msg.(bracha.ProtocolMessage)
		if !ok {
			panic(fmt.Sprintf("participant %d received malformed envelope %#v", p.id, env))
		}

		switch p.role {
		case bracha.Honest:
			p.dispatchHonest(env.From, msg)
		case bracha.SilentAfterK:
			if p.received < p.silentK {
				p.dispatchHonest(env.From, msg)
			}
			p.received++
		case bracha.Byzantine:
			p.dispatchByzantine(msg)
		default:
			panic(fmt.Sprintf("participant %d has unknown role %v", p.id, p.role))
		}

		if p.state.IsDelivered() && p.role != bracha.Byzantine {
			return
		}
	}
}

// dispatchHonest applies the honest transition table. Once delivered,
// no further protocol messages modify state (they are unreachable
// because run() exits on delivery).
func (p *participant) dispatchHonest(from bracha.Identifier, msg bracha.ProtocolMessage) {
	if p.state.IsDelivered() {
		return
	}

	var res protocol.Result
	switch {
	case msg.IsLeader():
		res = protocol.ApplyLeader(p.state, msg.Value())
	case msg.IsInit():
		res = protocol.ApplyInit(p.state, msg.Value())
	case msg.IsEcho():
		res = protocol.ApplyEcho(p.state, p.params, from, msg.Value())
	case msg.IsReady():
		res = protocol.ApplyReady(p.state, p.params, from, msg.Value())
	default:
		panic(fmt.Sprintf("participant %d received unknown message kind %v", p.id, msg))
	}

	for _, out := range res.Outbound {
		p.broadcastToPeers(out.Msg)
	}

	if res.Delivered {
		v := res.Value
		p.state.Delivered = &v
		p.log.Debugf("participant %d delivers %d", p.id, v)
		p.send(bracha.FabricID, bracha.ControlMessage{V: v})
	}
}

// dispatchByzantine ignores the incoming message's content (beyond
// triggering emission) and sends one adversarially-chosen message per
// peer. The strategy's random draw is made once per envelope: every
// peer's call sees a source seeded identically, so only a strategy
// that depends on the peer identifier varies across peers.
func (p *participant) dispatchByzantine(_ bracha.ProtocolMessage) {
	draw := p.rng.Int63()
	for _, peer := range p.peers {
		out := p.strategy(rand.New(rand.NewSource(draw)), p.id, peer)
		p.send(peer, out)
	}
}

// broadcastToPeers sends msg to every peer identifier known to this
// participant (never to itself).
func (p *participant) broadcastToPeers(msg bracha.ProtocolMessage) {
	for _, peer := range p.peers {
		p.send(peer, msg)
	}
}

// send emits one envelope to the fabric's aggregated inbox, addressed
// to the given recipient.
func (p *participant) send(to bracha.Identifier, msg interface{}) {
	p.outbox <- bracha.Envelope{From: p.id, To: to, Msg: msg}
}
