package bracha

// Params holds the derived parameters computed once from the total
// participant count N, per spec.md §3 "Derived parameters".
type Params struct {
	N Identifier

	// FMax is the maximum tolerated number of Byzantine participants:
	// floor(N/3).
	FMax int

	// HonestMin is the lower bound on honest participants: N - FMax.
	HonestMin int
}

// NewParams computes Params for a run of n participants.
func NewParams(n int) Params {
	fMax := n / 3
	return Params{
		N:         Identifier(n),
		FMax:      fMax,
		HonestMin: n - fMax,
	}
}

// State is the per-participant protocol state described by spec.md §3.
// It is exclusively owned by the participant's goroutine; nothing else
// reads or mutates it.
type State struct {
	EchoSent  bool
	ReadySent bool

	// EchoSenders and ReadySenders track, for each value, the set of
	// distinct peers that sent ECHO(v)/READY(v) respectively.
	EchoSenders  map[Value]map[Identifier]struct{}
	ReadySenders map[Value]map[Identifier]struct{}

	// Delivered is set at most once; once set the participant is
	// terminal and applies no further protocol transitions.
	Delivered *Value
}

// NewState returns a fresh, pre-broadcast participant state.
func NewState() *State {
	return &State{
		EchoSenders:  make(map[Value]map[Identifier]struct{}),
		ReadySenders: make(map[Value]map[Identifier]struct{}),
	}
}

// AddEchoSender inserts sender into EchoSenders[v] and returns the new
// cardinality, maintaining set semantics (no duplicates).
func (s *State) AddEchoSender(v Value, sender Identifier) int {
	set, ok := s.EchoSenders[v]
	if !ok {
		set = make(map[Identifier]struct{})
		s.EchoSenders[v] = set
	}
	set[sender] = struct{}{}
	return len(set)
}

// AddReadySender inserts sender into ReadySenders[v] and returns the
// new cardinality.
func (s *State) AddReadySender(v Value, sender Identifier) int {
	set, ok := s.ReadySenders[v]
	if !ok {
		set = make(map[Identifier]struct{})
		s.ReadySenders[v] = set
	}
	set[sender] = struct{}{}
	return len(set)
}

// IsDelivered reports whether the participant has committed to a
// value.
func (s *State) IsDelivered() bool {
	return s.Delivered != nil
}
