package fabric

import (
	"errors"
	"testing"

	"go.uber.org/goleak"

	"github.com/jabolina/bracha-sim/internal/bracha"
	"github.com/jabolina/bracha-sim/internal/protocol"
)

// S1: no Byzantine participants, every participant delivers the
// leader's value.
func TestBroadcastScenarioS1AllHonest(t *testing.T) {
	defer goleak.VerifyNone(t)

	res, err := Broadcast(Config{N: 4, B: 0, Value: 7, Leader: 0, Seed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	for id := bracha.Identifier(0); id < 4; id++ {
		if v, ok := res.Delivered[id]; !ok || v != 7 {
			t.Fatalf("expected participant %d to deliver 7, got %v (present=%v)", id, v, ok)
		}
	}
}

// S2: N=10, b=3, honest leader, RandomCorrupt Byzantine minority.
func TestBroadcastScenarioS2HonestMajority(t *testing.T) {
	defer goleak.VerifyNone(t)

	res, err := Broadcast(Config{N: 10, B: 3, Kind: protocol.RandomCorrupt, Value: 42, Leader: 0, Seed: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	honestCount := 0
	for id := bracha.Identifier(0); id < 7; id++ {
		if v, ok := res.Delivered[id]; !ok || v != 42 {
			t.Fatalf("expected honest participant %d to deliver 42, got %v (present=%v)", id, v, ok)
		}
		honestCount++
	}
	if honestCount != 7 {
		t.Fatalf("expected 7 honest participants, counted %d", honestCount)
	}
}

// S3: N=7, b=2.
func TestBroadcastScenarioS3(t *testing.T) {
	defer goleak.VerifyNone(t)

	res, err := Broadcast(Config{N: 7, B: 2, Kind: protocol.RandomCorrupt, Value: 1, Leader: 0, Seed: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	for id := bracha.Identifier(0); id < 5; id++ {
		if v, ok := res.Delivered[id]; !ok || v != 1 {
			t.Fatalf("expected honest participant %d to deliver 1, got %v (present=%v)", id, v, ok)
		}
	}
}

// S4: N=4, b=1, the smallest N that tolerates one Byzantine participant.
func TestBroadcastScenarioS4(t *testing.T) {
	defer goleak.VerifyNone(t)

	res, err := Broadcast(Config{N: 4, B: 1, Kind: protocol.RandomCorrupt, Value: 5, Leader: 0, Seed: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	for id := bracha.Identifier(0); id < 3; id++ {
		if v, ok := res.Delivered[id]; !ok || v != 5 {
			t.Fatalf("expected honest participant %d to deliver 5, got %v (present=%v)", id, v, ok)
		}
	}
}

// S5: N=3, b=1 violates 3b < N and must be rejected before any
// goroutine is spawned.
func TestBroadcastScenarioS5RejectsExcessiveByzantineFraction(t *testing.T) {
	_, err := Broadcast(Config{N: 3, B: 1, Value: 1, Leader: 0, Seed: 5})
	if err == nil {
		t.Fatalf("expected a configuration error")
	}
	var cfgErr *bracha.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected a *bracha.ConfigError, got %T: %v", err, err)
	}
}

// S6: N=10, b=3 run 100 times over distinct seeds; every run must
// succeed with unanimous honest delivery of that run's value.
func TestBroadcastScenarioS6RepeatedRuns(t *testing.T) {
	defer goleak.VerifyNone(t)

	for run := 0; run < 100; run++ {
		v := bracha.Value(run)
		res, err := Broadcast(Config{
			N: 10, B: 3, Kind: protocol.RandomCorrupt,
			Value: v, Leader: 0, Seed: int64(1000 + run),
		})
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		if !res.Success {
			t.Fatalf("run %d: expected success, got %+v", run, res)
		}
		for id := bracha.Identifier(0); id < 7; id++ {
			if got, ok := res.Delivered[id]; !ok || got != v {
				t.Fatalf("run %d: expected honest participant %d to deliver %d, got %v (present=%v)", run, id, v, got, ok)
			}
		}
	}
}

func TestBroadcastRejectsBadLeader(t *testing.T) {
	_, err := Broadcast(Config{N: 4, B: 0, Value: 1, Leader: 4, Seed: 1})
	if err == nil {
		t.Fatalf("expected a configuration error for an out-of-range leader")
	}
}
