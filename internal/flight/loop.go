package flight

import (
	"time"

	"codeberg.org/mutker/dronecore/internal/logger"
	"codeberg.org/mutker/dronecore/internal/metrics"
	"codeberg.org/mutker/dronecore/internal/sched"
	"codeberg.org/mutker/dronecore/internal/shutdown"
)

const DefaultPeriod = 10 * time.Millisecond

type LoopConfig struct {
	Period             time.Duration
	WorkloadIterations int
	Hints              sched.Hints
}

type LoopOption func(*Loop)

// WithClock replaces the wall clock and the sleeper. sleepUntil must return
// immediately for times already in the past.
func WithClock(now func() time.Time, sleepUntil func(time.Time)) LoopOption {
	return func(l *Loop) {
		l.now = now
		l.sleepUntil = sleepUntil
	}
}

func WithPreemptionCounter(c sched.PreemptionCounter) LoopOption {
	return func(l *Loop) {
		l.counter = c
	}
}

// Loop is the fixed-rate control task.
type Loop struct {
	state    *State
	store    *metrics.Store
	token    *shutdown.Token
	provider sched.Provider
	counter  sched.PreemptionCounter
	cfg      LoopConfig
	log      logger.Logger

	now        func() time.Time
	sleepUntil func(time.Time)

	sink float64
}

func NewLoop(
	state *State, store *metrics.Store, token *shutdown.Token,
	cfg LoopConfig, provider sched.Provider, log logger.Logger, opts ...LoopOption,
) *Loop {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}

	l := &Loop{
		state:    state,
		store:    store,
		token:    token,
		provider: provider,
		counter:  sched.Noop{},
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
	l.sleepUntil = l.sleepUntilOrStop

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run drives the loop until the token stops. Wake times accumulate from the
// first one, so a slow iteration does not shift the schedule.
func (l *Loop) Run() error {
	sched.Start(l.provider, l.cfg.Hints, l.log)

	l.log.Info().
		Dur("period", l.cfg.Period).
		Int("workload_iterations", l.cfg.WorkloadIterations).
		Msg("Flight loop started")

	nextWake := l.now()
	for l.token.Running() {
		nextWake = nextWake.Add(l.cfg.Period)
		l.Iterate(nextWake)
		l.sleepUntil(nextWake)
	}

	l.log.Info().Msg("Flight loop stopped")
	return nil
}

// Iterate runs one control tick scheduled for nextWake.
func (l *Loop) Iterate(nextWake time.Time) {
	start := l.now()
	if start.After(nextWake) {
		l.store.RecordDeadlineMiss()
	}

	l.state.Update(func(v *Vehicle) {
		if v.EmergencyTriggered {
			v.Throttle = 0
			v.Pitch = 0
			v.Roll = 0
		}

		l.sink = Workload(l.cfg.WorkloadIterations, v.Altitude)

		Step(v, Dt)
	})

	l.store.RecordFlightLoop(l.now().Sub(start), l.counter.Preemptions())
}

func (l *Loop) sleepUntilOrStop(t time.Time) {
	d := time.Until(t)
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-l.token.Done():
	}
}
