// Package fabric implements the single supervising execution unit that
// relays participant-to-participant traffic for one Bracha broadcast
// instance, injects the initial leader message, records termination
// outputs, and evaluates the agreement/validity/termination
// predicates. Grounded on pkg/mcast/protocol.go's Unity.poll/
// Unity.process relay shape, generalized from GM-Cast's multi-
// partition quorum to Bracha's single honest/Byzantine partition.
package fabric

import (
	"github.com/jabolina/bracha-sim/internal/bracha"
	"github.com/jabolina/bracha-sim/internal/logging"
	"github.com/jabolina/bracha-sim/internal/metrics"
	"github.com/jabolina/bracha-sim/internal/node"
	"github.com/jabolina/bracha-sim/internal/protocol"
)

// Config configures a single broadcast instance: how many
// participants, how many are Byzantine, which strategy they run, and
// which value the named leader proposes.
type Config struct {
	N      int
	B      int
	Kind   protocol.Kind
	Value  bracha.Value
	Leader bracha.Identifier
	Seed   int64

	Log     logging.Logger
	Metrics *metrics.Registry

	// Timeout is reserved per spec.md §5 "Cancellation" but never
	// consulted by the relay loop.
	Timeout int64
}

// Result is the outcome of one broadcast instance.
type Result struct {
	Success     bool
	Delivered   map[bracha.Identifier]bracha.Value
	Termination bool
	Agreement   bool
	Validity    bool
}

// Fabric owns every participant's inbound channel and execution-unit
// handle, and the aggregated inbox all participants send to.
type Fabric struct {
	params      bracha.Params
	honestIDs   map[bracha.Identifier]struct{}
	byzantinIDs map[bracha.Identifier]struct{}

	inboxes  map[bracha.Identifier]chan bracha.Envelope
	handles  map[bracha.Identifier]*node.Handle
	live     map[bracha.Identifier]bool
	aggInbox chan bracha.Envelope

	invoker node.Invoker
	log     logging.Logger
	metrics *metrics.Registry
}

// Broadcast validates cfg, constructs a Fabric, and runs one broadcast
// instance to completion, injecting LEADER(cfg.Value) at cfg.Leader.
// This is the package's single programmatic entry point, per spec.md
// §6.
func Broadcast(cfg Config) (Result, error) {
	if err := validate(cfg); err != nil {
		return Result{}, err
	}
	f := New(cfg)
	return f.broadcast(cfg.Value, cfg.Leader)
}

func validate(cfg Config) error {
	if cfg.N < 1 {
		return &bracha.ConfigError{Reason: "N must be >= 1"}
	}
	if cfg.B < 0 {
		return &bracha.ConfigError{Reason: "B must be >= 0"}
	}
	if 3*cfg.B >= cfg.N {
		return &bracha.ConfigError{Reason: "3*B must be < N, or fewer than N/3 participants may be Byzantine"}
	}
	if cfg.Leader < 0 || int(cfg.Leader) >= cfg.N {
		return &bracha.ConfigError{Reason: "leader must satisfy 0 <= leader < N"}
	}
	return nil
}

// New constructs a Fabric and starts every participant, per spec.md
// §4.2 "Construction". Identifiers 0..N-B-1 are Honest; the remaining
// B receive the requested Byzantine role.
func New(cfg Config) *Fabric {
	log := cfg.Log
	if log == nil {
		log = logging.NewNoop()
	}
	reg := cfg.Metrics
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	params := bracha.NewParams(cfg.N)
	f := &Fabric{
		params:      params,
		honestIDs:   make(map[bracha.Identifier]struct{}),
		byzantinIDs: make(map[bracha.Identifier]struct{}),
		inboxes:     make(map[bracha.Identifier]chan bracha.Envelope),
		handles:     make(map[bracha.Identifier]*node.Handle),
		live:        make(map[bracha.Identifier]bool),
		aggInbox:    make(chan bracha.Envelope, 64*cfg.N*cfg.N+64),
		invoker:     node.NewInvoker(),
		log:         log,
		metrics:     reg,
	}

	allIDs := make([]bracha.Identifier, cfg.N)
	for i := 0; i < cfg.N; i++ {
		allIDs[i] = bracha.Identifier(i)
	}

	strategy := protocol.NewStrategy(cfg.Kind)
	honestCount := cfg.N - cfg.B
	for i := 0; i < cfg.N; i++ {
		id := bracha.Identifier(i)
		f.inboxes[id] = make(chan bracha.Envelope, 32*cfg.N+32)
		f.live[id] = true

		peers := make([]bracha.Identifier, 0, cfg.N-1)
		for _, other := range allIDs {
			if other != id {
				peers = append(peers, other)
			}
		}

		role := bracha.Honest
		if i >= honestCount {
			role = bracha.Byzantine
			f.byzantinIDs[id] = struct{}{}
		} else {
			f.honestIDs[id] = struct{}{}
		}

		h := node.New(node.Config{
			ID:       id,
			Role:     role,
			Params:   params,
			Peers:    peers,
			Strategy: strategy,
			Seed:     cfg.Seed + int64(i),
			Inbox:    f.inboxes[id],
			Outbox:   f.aggInbox,
			Log:      log,
			Invoker:  f.invoker,
		})
		f.handles[id] = h
	}

	return f
}

// broadcast injects LEADER(v) into the leader's inbox and runs the
// relay loop to completion, per spec.md §4.2.
func (f *Fabric) broadcast(v bracha.Value, leader bracha.Identifier) (Result, error) {
	delivered := make(map[bracha.Identifier]bracha.Value)
	honestRemaining := len(f.honestIDs)

	f.deliver(bracha.Envelope{From: bracha.FabricID, To: leader, Msg: bracha.Leader(v)})

	var firstPanic error
	for honestRemaining > 0 {
		env, ok := <-f.aggInbox
		if !ok {
			// All senders closed before honest termination: report
			// non-termination, per spec.md §7.
			break
		}

		if ctrl, ok := env.Msg.(bracha.ControlMessage); ok {
			p := env.From
			delivered[p] = ctrl.V

			if _, isHonest := f.honestIDs[p]; isHonest {
				honestRemaining--
				f.metrics.HonestTerminations.Inc()
			}
			if err := f.retire(p); err != nil && firstPanic == nil {
				firstPanic = err
			}
			continue
		}

		to := env.To
		if f.live[to] {
			f.inboxes[to] <- env
			f.metrics.EnvelopesRelayed.Inc()
		} else {
			f.metrics.EnvelopesDropped.Inc()
			f.log.Warnf("dropped envelope to terminated participant %d: %v", to, env)
		}
	}

	if honestRemaining == 0 {
		f.log.Warnf("honest quorum terminated, shutting down %d remaining participants", len(f.live))
	}

	// Shutdown: order every still-live participant (the Byzantine
	// stragglers, ordinarily) to stop. A background drainer absorbs
	// whatever traffic they still emit while we join them, per
	// spec.md §4.2's "drain or drop" shutdown correctness clause.
	remaining := copyLiveIDs(f.live)
	for id := range remaining {
		f.inboxes[id] <- bracha.Envelope{From: bracha.FabricID, To: id, Msg: bracha.ControlMessage{}}
	}

	drainDone := make(chan struct{})
	stopDrain := make(chan struct{})
	go func() {
		defer close(drainDone)
		for {
			select {
			case _, ok := <-f.aggInbox:
				if !ok {
					return
				}
				f.metrics.EnvelopesDropped.Inc()
			case <-stopDrain:
				return
			}
		}
	}()

	for id := range remaining {
		if err := f.retire(id); err != nil && firstPanic == nil {
			firstPanic = err
		}
	}
	close(stopDrain)
	<-drainDone
	f.invoker.Wait()

	res := f.evaluate(delivered, v, leader)
	return res, firstPanic
}

// deliver places env directly into its recipient's inbox, used for the
// initial LEADER injection which bypasses the relay loop.
func (f *Fabric) deliver(env bracha.Envelope) {
	f.inboxes[env.To] <- env
}

// retire closes a participant's inbox, joins its execution unit, and
// removes it from the live set. Safe to call more than once for the
// same id.
func (f *Fabric) retire(id bracha.Identifier) error {
	if !f.live[id] {
		return nil
	}
	delete(f.live, id)
	close(f.inboxes[id])
	return f.handles[id].Join()
}

func copyLiveIDs(live map[bracha.Identifier]bool) map[bracha.Identifier]bool {
	out := make(map[bracha.Identifier]bool, len(live))
	for id := range live {
		out[id] = true
	}
	return out
}

// evaluate computes termination, agreement, and validity over the
// delivered map restricted to honest participants, per spec.md §4.2.
func (f *Fabric) evaluate(delivered map[bracha.Identifier]bracha.Value, leaderValue bracha.Value, leader bracha.Identifier) Result {
	honestDelivered := make(map[bracha.Identifier]bracha.Value)
	for id := range f.honestIDs {
		if v, ok := delivered[id]; ok {
			honestDelivered[id] = v
		}
	}

	termination := len(honestDelivered) == len(f.honestIDs)

	agreement := true
	var common bracha.Value
	first := true
	for _, v := range honestDelivered {
		if first {
			common = v
			first = false
			continue
		}
		if v != common {
			agreement = false
			break
		}
	}

	validity := true
	if _, leaderHonest := f.honestIDs[leader]; leaderHonest && !first {
		validity = common == leaderValue
	}

	return Result{
		Success:     termination && agreement && validity,
		Delivered:   delivered,
		Termination: termination,
		Agreement:   agreement,
		Validity:    validity,
	}
}
