// Package protocol holds the pure Bracha reliable-broadcast logic:
// the honest transition table and the adversarial Byzantine
// strategies. Nothing here touches a channel or a goroutine; it is
// invoked by internal/node's participant and is unit-testable in
// isolation, grounded on the Rust reference's handle_broadcast
// (original_source/src/protocols/bracha_broadcast.rs).
package protocol

import "github.com/jabolina/bracha-sim/internal/bracha"

// Outbound is a protocol message this node must send to every peer as
// a result of one of the Apply* transitions.
type Outbound struct {
	Msg bracha.ProtocolMessage
}

// Result is the outcome of applying one incoming message to the
// honest transition table.
type Result struct {
	// Outbound holds zero or more messages to broadcast to every peer.
	Outbound []Outbound

	// Delivered is set when this envelope caused delivery.
	Delivered bool
	Value     bracha.Value
}

// ApplyLeader implements the LEADER(v) transition: send INIT(v) then
// ECHO(v) to all peers, and latch EchoSent. Per spec.md §4.1 and §9's
// resolved open question #1 (mirroring
// original_source/src/node.rs's BC_LEADER handler), both INIT and
// ECHO are emitted unconditionally.
func ApplyLeader(st *bracha.State, v bracha.Value) Result {
	st.EchoSent = true
	return Result{Outbound: []Outbound{
		{Msg: bracha.Init(v)},
		{Msg: bracha.Echo(v)},
	}}
}

// ApplyInit implements the INIT(v) transition: if this node has not
// yet echoed, send ECHO(v) to all peers and latch EchoSent. Otherwise
// a no-op.
func ApplyInit(st *bracha.State, v bracha.Value) Result {
	if st.EchoSent {
		return Result{}
	}
	st.EchoSent = true
	return Result{Outbound: []Outbound{{Msg: bracha.Echo(v)}}}
}

// ApplyEcho implements the ECHO(v) transition: record the distinct
// sender, and if this node has not yet readied and has now seen at
// least honest_min-1 distinct echoes for v, send READY(v) and latch
// ReadySent. The -1 offset is because peers do not echo to themselves
// through the fabric (spec.md §4.1 "threshold offsets").
func ApplyEcho(st *bracha.State, params bracha.Params, from bracha.Identifier, v bracha.Value) Result {
	count := st.AddEchoSender(v, from)
	if st.ReadySent || count < params.HonestMin-1 {
		return Result{}
	}
	st.ReadySent = true
	return Result{Outbound: []Outbound{{Msg: bracha.Ready(v)}}}
}

// ApplyReady implements the READY(v) transition:
//
//  1. record the distinct sender;
//  2. amplify: if not yet readied and the distinct-ready count now
//     exceeds f_max, send READY(v) and latch ReadySent (at least one
//     ready came from an honest source);
//  3. deliver: if the distinct-ready count has reached honest_min-1,
//     report delivery of v in the Result (Delivered, Value); st is not
//     marked delivered here, so the caller must record st.Delivered,
//     send END(v) to the fabric, and stop processing further envelopes.
func ApplyReady(st *bracha.State, params bracha.Params, from bracha.Identifier, v bracha.Value) Result {
	count := st.AddReadySender(v, from)

	res := Result{}
	if !st.ReadySent && count > params.FMax {
		st.ReadySent = true
		res.Outbound = append(res.Outbound, Outbound{Msg: bracha.Ready(v)})
	}

	if count >= params.HonestMin-1 {
		res.Delivered = true
		res.Value = v
	}

	return res
}
