// Package shutdown holds the process-wide cancellation token.
//
// Cancellation is cooperative: stopping the token never interrupts a task.
// Each periodic task polls Running at its iteration boundary, and blocking
// waits select on Done, so a task that never reaches a boundary keeps the
// process alive.
package shutdown

import (
	"sync"
	"sync/atomic"
)

// Reason records which trigger stopped the token.
type Reason int32

const (
	ReasonNone Reason = iota
	ReasonEmergency
	ReasonSignal
)

func (r Reason) String() string {
	switch r {
	case ReasonEmergency:
		return "emergency"
	case ReasonSignal:
		return "signal"
	default:
		return "none"
	}
}

// Token starts running and is stopped exactly once.
type Token struct {
	running atomic.Bool
	reason  atomic.Int32
	once    sync.Once
	done    chan struct{}
}

func NewToken() *Token {
	t := &Token{done: make(chan struct{})}
	t.running.Store(true)
	return t
}

// Running reports whether the token has not been stopped yet.
func (t *Token) Running() bool {
	return t.running.Load()
}

// Stop flips the token to stopped. Only the first call has any effect; it
// returns true for that call.
func (t *Token) Stop(reason Reason) bool {
	stopped := false
	t.once.Do(func() {
		t.reason.Store(int32(reason))
		t.running.Store(false)
		close(t.done)
		stopped = true
	})
	return stopped
}

// Done is closed once the token is stopped.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Reason returns the trigger passed to the winning Stop call.
func (t *Token) Reason() Reason {
	return Reason(t.reason.Load())
}
