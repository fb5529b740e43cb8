// Package sched applies fixed-priority and CPU affinity hints to task
// threads and samples their involuntary context switch counters.
package sched

import (
	"runtime"

	"codeberg.org/mutker/dronecore/internal/errors"
	"codeberg.org/mutker/dronecore/internal/logger"
)

// Priority is a SCHED_FIFO priority; higher runs first.
type Priority int

const (
	PriorityEmergency Priority = 90
	PriorityFlight    Priority = 50
	PriorityCommand   Priority = 30
	PriorityVision    Priority = 10
)

// Hints describe how one task's thread should be scheduled.
type Hints struct {
	Task     string
	Priority Priority
	Pin      bool
	CPU      int
}

// Provider applies hints to the calling OS thread.
type Provider interface {
	Apply(h Hints) error
}

// PreemptionCounter reads the involuntary context switch count of the
// calling OS thread.
type PreemptionCounter interface {
	Preemptions() int64
}

// Noop is the fallback for platforms without the underlying facility.
type Noop struct{}

func (Noop) Apply(Hints) error  { return nil }
func (Noop) Preemptions() int64 { return 0 }

// Start binds the calling goroutine to its OS thread and applies h once.
// The thread is never unlocked, so it is torn down with the goroutine and
// its scheduling class is not handed back to the runtime.
//
// Failures are logged as warnings; the task keeps default scheduling.
func Start(p Provider, h Hints, log logger.Logger) {
	runtime.LockOSThread()

	if err := p.Apply(h); err != nil {
		log.Warn().
			Err(err).
			Str("error_code", string(errors.CodeOf(err))).
			Str("task", h.Task).
			Msg("Scheduling hints not applied, using defaults")
		return
	}

	log.Debug().
		Str("task", h.Task).
		Int("priority", int(h.Priority)).
		Bool("pinned", h.Pin).
		Int("cpu", h.CPU).
		Msg("Scheduling hints applied")
}
