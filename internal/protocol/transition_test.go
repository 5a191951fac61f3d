package protocol

import (
	"testing"

	"github.com/jabolina/bracha-sim/internal/bracha"
)

func testParams(n int) bracha.Params {
	return bracha.NewParams(n)
}

func TestApplyLeaderSendsInitThenEcho(t *testing.T) {
	st := bracha.NewState()
	res := ApplyLeader(st, bracha.Value(7))

	if !st.EchoSent {
		t.Fatalf("expected EchoSent latched after ApplyLeader")
	}
	if len(res.Outbound) != 2 {
		t.Fatalf("expected 2 outbound messages, got %d", len(res.Outbound))
	}
	if !res.Outbound[0].Msg.IsInit() || res.Outbound[0].Msg.Value() != 7 {
		t.Fatalf("expected first outbound to be INIT(7), got %v", res.Outbound[0].Msg)
	}
	if !res.Outbound[1].Msg.IsEcho() || res.Outbound[1].Msg.Value() != 7 {
		t.Fatalf("expected second outbound to be ECHO(7), got %v", res.Outbound[1].Msg)
	}
}

func TestApplyInitEchoesOnlyOnce(t *testing.T) {
	st := bracha.NewState()

	res := ApplyInit(st, bracha.Value(3))
	if len(res.Outbound) != 1 || !res.Outbound[0].Msg.IsEcho() {
		t.Fatalf("expected a single ECHO outbound, got %v", res.Outbound)
	}

	res = ApplyInit(st, bracha.Value(3))
	if len(res.Outbound) != 0 {
		t.Fatalf("expected no-op on second INIT, got %v", res.Outbound)
	}
}

func TestApplyEchoSendsReadyAtThreshold(t *testing.T) {
	params := testParams(10) // fMax=3, honestMin=7, echo quorum = honestMin-1 = 6
	st := bracha.NewState()

	for i := bracha.Identifier(0); i < 5; i++ {
		res := ApplyEcho(st, params, i, bracha.Value(1))
		if len(res.Outbound) != 0 {
			t.Fatalf("unexpected READY before threshold at sender %d: %v", i, res.Outbound)
		}
	}

	res := ApplyEcho(st, params, bracha.Identifier(5), bracha.Value(1))
	if len(res.Outbound) != 1 || !res.Outbound[0].Msg.IsReady() {
		t.Fatalf("expected READY(1) at threshold, got %v", res.Outbound)
	}
	if !st.ReadySent {
		t.Fatalf("expected ReadySent latched")
	}

	res = ApplyEcho(st, params, bracha.Identifier(6), bracha.Value(1))
	if len(res.Outbound) != 0 {
		t.Fatalf("expected no further READY once latched, got %v", res.Outbound)
	}
}

func TestApplyEchoDuplicateSenderIsIgnored(t *testing.T) {
	params := testParams(10)
	st := bracha.NewState()

	ApplyEcho(st, params, bracha.Identifier(0), bracha.Value(1))
	res := ApplyEcho(st, params, bracha.Identifier(0), bracha.Value(1))

	if len(res.Outbound) != 0 {
		t.Fatalf("expected duplicate sender to not advance the count: %v", res.Outbound)
	}
}

func TestApplyReadyAmplifiesPastFMax(t *testing.T) {
	params := testParams(10) // fMax=3
	st := bracha.NewState()

	for i := bracha.Identifier(0); i < 3; i++ {
		res := ApplyReady(st, params, i, bracha.Value(4))
		if len(res.Outbound) != 0 {
			t.Fatalf("unexpected amplification before f_max+1 at sender %d: %v", i, res.Outbound)
		}
		if res.Delivered {
			t.Fatalf("unexpected delivery before honest_min-1 at sender %d", i)
		}
	}

	res := ApplyReady(st, params, bracha.Identifier(3), bracha.Value(4))
	if len(res.Outbound) != 1 || !res.Outbound[0].Msg.IsReady() {
		t.Fatalf("expected amplifying READY(4) at f_max+1, got %v", res.Outbound)
	}
	if !st.ReadySent {
		t.Fatalf("expected ReadySent latched by amplification")
	}
}

func TestApplyReadyDeliversAtHonestMinMinusOne(t *testing.T) {
	params := testParams(10) // honestMin=7, delivery quorum = 6
	st := bracha.NewState()
	st.ReadySent = true // skip amplification path for this test

	var res Result
	for i := bracha.Identifier(0); i < 6; i++ {
		res = ApplyReady(st, params, i, bracha.Value(9))
		if res.Delivered && i < 5 {
			t.Fatalf("delivered too early at sender %d", i)
		}
	}

	if !res.Delivered || res.Value != 9 {
		t.Fatalf("expected delivery of 9 at threshold, got %+v", res)
	}
}
