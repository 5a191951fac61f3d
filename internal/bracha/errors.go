package bracha

import "fmt"

// ConfigError is returned synchronously by Broadcast when a
// precondition on the run configuration is violated, before any
// goroutine is spawned. Fatal to the call.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("bracha: invalid configuration: %s", e.Reason)
}

// PanicError wraps a recovered panic from a participant's goroutine,
// re-raised to the caller when the fabric joins that participant.
type PanicError struct {
	Participant Identifier
	Value       interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("bracha: participant %d panicked: %v", e.Participant, e.Value)
}
