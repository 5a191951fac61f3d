package metrics

import "testing"

func TestRegistryCountersAreIsolatedPerInstance(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()

	a.EnvelopesRelayed.Inc()
	a.EnvelopesRelayed.Inc()
	b.EnvelopesRelayed.Inc()

	families, err := a.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}

	var found bool
	for _, fam := range families {
		if fam.GetName() != "bracha_envelopes_relayed_total" {
			continue
		}
		found = true
		got := fam.GetMetric()[0].GetCounter().GetValue()
		if got != 2 {
			t.Fatalf("expected a's counter at 2 (unaffected by b), got %v", got)
		}
	}
	if !found {
		t.Fatalf("expected bracha_envelopes_relayed_total in gathered families")
	}
}
