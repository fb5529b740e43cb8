//go:build linux

package sched

import (
	stderrors "errors"

	"codeberg.org/mutker/dronecore/internal/errors"
	"golang.org/x/sys/unix"
)

type linuxScheduler struct{}

// NewProvider returns the SCHED_FIFO and affinity provider.
func NewProvider() Provider {
	return linuxScheduler{}
}

// NewPreemptionCounter returns a counter backed by getrusage(RUSAGE_THREAD).
func NewPreemptionCounter() PreemptionCounter {
	return linuxScheduler{}
}

func (linuxScheduler) Apply(h Hints) error {
	errFactory := errors.New()
	var errs []error

	if h.Priority > 0 {
		attr := unix.SchedAttr{
			Size:     unix.SizeofSchedAttr,
			Policy:   unix.SCHED_FIFO,
			Priority: uint32(h.Priority),
		}
		if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
			errs = append(errs, errFactory.WithData(errors.ErrSchedPriority, struct {
				Task     string
				Priority int
				Error    string
			}{
				Task:     h.Task,
				Priority: int(h.Priority),
				Error:    err.Error(),
			}))
		}
	}

	if h.Pin {
		var set unix.CPUSet
		set.Zero()
		set.Set(h.CPU)
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			errs = append(errs, errFactory.WithData(errors.ErrSchedAffinity, struct {
				Task  string
				CPU   int
				Error string
			}{
				Task:  h.Task,
				CPU:   h.CPU,
				Error: err.Error(),
			}))
		}
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return stderrors.Join(errs...)
	}
}

func (linuxScheduler) Preemptions() int64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_THREAD, &ru); err != nil {
		return 0
	}
	return int64(ru.Nivcsw)
}
