// Command brachasim drives a single Bracha reliable-broadcast
// instance from the command line: N participants, b of them
// Byzantine, a chosen leader and value, and reports whether
// termination, agreement, and validity all held.
package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/jabolina/bracha-sim/internal/bracha"
	"github.com/jabolina/bracha-sim/internal/fabric"
	"github.com/jabolina/bracha-sim/internal/logging"
	"github.com/jabolina/bracha-sim/internal/metrics"
	"github.com/jabolina/bracha-sim/internal/protocol"
)

var (
	app = kingpin.New("brachasim", "Bracha reliable-broadcast simulation harness.")

	n       = app.Flag("n", "Total number of participants.").Short('n').Default("4").Int()
	b       = app.Flag("byzantine", "Number of Byzantine participants.").Short('b').Default("0").Int()
	value   = app.Flag("value", "Value the leader proposes.").Short('v').Default("1").Int()
	leader  = app.Flag("leader", "Identifier of the proposing participant.").Default("0").Int()
	kind    = app.Flag("strategy", "Byzantine strategy: random-corrupt or conflicting-value.").Default("random-corrupt").String()
	seed    = app.Flag("seed", "Seed for every participant's random source.").Default("1").Int64()
	verbose = app.Flag("verbose", "Enable debug-level logging.").Short('V').Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	strategyKind, err := parseKind(*kind)
	if err != nil {
		kingpin.Fatalf("%v", err)
	}

	log := logging.NewLogrusLogger()
	log.ToggleDebug(*verbose)
	reg := metrics.NewRegistry()

	res, err := fabric.Broadcast(fabric.Config{
		N:       *n,
		B:       *b,
		Kind:    strategyKind,
		Value:   bracha.Value(*value),
		Leader:  bracha.Identifier(*leader),
		Seed:    *seed,
		Log:     log,
		Metrics: reg,
	})
	if err != nil {
		log.Errorf("broadcast instance returned an error: %v", err)
		os.Exit(2)
	}

	report(res)
	if !res.Success {
		os.Exit(1)
	}
}

func parseKind(s string) (protocol.Kind, error) {
	switch s {
	case "random-corrupt":
		return protocol.RandomCorrupt, nil
	case "conflicting-value":
		return protocol.ConflictingValue, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", s)
	}
}

func report(res fabric.Result) {
	fmt.Printf("success=%v termination=%v agreement=%v validity=%v\n",
		res.Success, res.Termination, res.Agreement, res.Validity)

	ids := make([]bracha.Identifier, 0, len(res.Delivered))
	for id := range res.Delivered {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Printf("  participant %d delivered %d\n", id, res.Delivered[id])
	}
}
