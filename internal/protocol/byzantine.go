package protocol

import (
	"math/rand"

	"github.com/jabolina/bracha-sim/internal/bracha"
)

// MaliciousValue is the fixed value a Byzantine strategy uses to try
// to corrupt the broadcast, distinct from any legitimate broadcast
// value by construction of the simulation's value space (spec.md
// §4.3), matching original_source's MALICIOUS_VALUE convention.
const MaliciousValue bracha.Value = -1

// Kind identifies a Byzantine strategy, selectable from the fabric's
// configuration.
type Kind int

const (
	// RandomCorrupt is the baseline strategy mandated by spec.md §4.3:
	// uniformly selects between ECHO(MaliciousValue) and
	// READY(MaliciousValue) on every received envelope.
	RandomCorrupt Kind = iota

	// ConflictingValue is this expansion's addition: attempts to split
	// the honest set by sending one of two distinct non-malicious
	// values, chosen by the parity of the recipient's identifier, so
	// different honest peers are fed different "legitimate-looking"
	// values.
	ConflictingValue
)

func (k Kind) String() string {
	switch k {
	case RandomCorrupt:
		return "random-corrupt"
	case ConflictingValue:
		return "conflicting-value"
	default:
		return "unknown-strategy"
	}
}

// Strategy produces the message a Byzantine participant sends to a
// given peer in response to receiving one protocol envelope. It is a
// pure function of the identifier of the peer currently being
// addressed and the supplied random source, so the emission can be
// reproduced under a seeded source for deterministic tests.
type Strategy func(rng *rand.Rand, self bracha.Identifier, peer bracha.Identifier) bracha.ProtocolMessage

// NewStrategy resolves a Kind to its Strategy implementation.
func NewStrategy(kind Kind) Strategy {
	switch kind {
	case ConflictingValue:
		return conflictingValue
	default:
		return randomCorrupt
	}
}

// randomCorrupt implements the RandomCorrupt strategy: uniformly
// selects between ECHO and READY carrying MaliciousValue, sent
// identically to every peer. Grounded on
// original_source/src/protocols/bracha_broadcast.rs's
// Distribution<BroadcastMessage> for Standard.
func randomCorrupt(rng *rand.Rand, _ bracha.Identifier, _ bracha.Identifier) bracha.ProtocolMessage {
	if rng.Intn(2) == 0 {
		return bracha.Echo(MaliciousValue)
	}
	return bracha.Ready(MaliciousValue)
}

// conflictingValue sends ECHO(0) to even-identified peers and ECHO(1)
// to odd-identified peers, attempting to partition the honest set on
// two plausible-looking values instead of one obviously malicious one.
func conflictingValue(_ *rand.Rand, _ bracha.Identifier, peer bracha.Identifier) bracha.ProtocolMessage {
	if peer%2 == 0 {
		return bracha.Echo(bracha.Value(0))
	}
	return bracha.Echo(bracha.Value(1))
}
