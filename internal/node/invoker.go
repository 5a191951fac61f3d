package node

import "sync"

// Invoker spawns and tracks goroutines for a single broadcast instance.
// It mirrors the teacher's Invoker/InvokerInstance abstraction so the
// fabric can launch every participant through one shared spawn point
// instead of each participant starting its own bare goroutine.
type Invoker interface {
	// Spawn runs f on its own goroutine.
	Spawn(f func())

	// Wait blocks until every goroutine started by Spawn has returned.
	Wait()
}

// waitGroupInvoker is the default Invoker implementation.
type waitGroupInvoker struct {
	group sync.WaitGroup
}

// NewInvoker returns the default, WaitGroup-backed Invoker.
func NewInvoker() Invoker {
	return &waitGroupInvoker{}
}

func (i *waitGroupInvoker) Spawn(f func()) {
	i.group.Add(1)
	go func() {
		defer i.group.Done()
		f()
	}()
}

func (i *waitGroupInvoker) Wait() {
	i.group.Wait()
}
