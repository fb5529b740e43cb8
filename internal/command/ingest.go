// Package command receives ground station commands and applies them to the
// flight state.
package command

import (
	"time"

	"codeberg.org/mutker/dronecore/internal/errors"
	"codeberg.org/mutker/dronecore/internal/flight"
	"codeberg.org/mutker/dronecore/internal/logger"
	"codeberg.org/mutker/dronecore/internal/metrics"
	"codeberg.org/mutker/dronecore/internal/sched"
	"codeberg.org/mutker/dronecore/internal/shutdown"
)

const DefaultPollInterval = 10 * time.Millisecond

type Config struct {
	PollInterval time.Duration
	Hints        sched.Hints
}

// Task is the command ingest task. Commands are fire-and-forget: nothing is
// sent back to the sender.
type Task struct {
	open     Opener
	state    *flight.State
	store    *metrics.Store
	token    *shutdown.Token
	provider sched.Provider
	counter  sched.PreemptionCounter
	cfg      Config
	log      logger.Logger
}

func NewTask(
	open Opener, state *flight.State, store *metrics.Store, token *shutdown.Token,
	cfg Config, provider sched.Provider, counter sched.PreemptionCounter, log logger.Logger,
) *Task {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Task{
		open:     open,
		state:    state,
		store:    store,
		token:    token,
		provider: provider,
		counter:  counter,
		cfg:      cfg,
		log:      log,
	}
}

// Run opens the transport and handles commands until the token stops.
// A transport that cannot be opened ends this task only; the error is
// logged and Run returns nil so the other tasks keep running.
func (t *Task) Run() error {
	sched.Start(t.provider, t.cfg.Hints, t.log)

	rx, err := t.open()
	if err != nil {
		var coded errors.Error
		if errors.As(err, &coded) {
			t.log.ErrorWithCode(coded).Msg("Command transport unavailable, ingest task exiting")
		} else {
			t.log.Error().Err(err).Msg("Command transport unavailable, ingest task exiting")
		}
		return nil
	}
	defer func() {
		if err := rx.Close(); err != nil {
			t.log.Warn().Err(err).Msg("Failed to close command transport")
		}
	}()

	t.log.Info().Dur("poll_interval", t.cfg.PollInterval).Msg("Command ingest started")

	for t.token.Running() {
		payload, ok, err := rx.Receive(t.cfg.PollInterval)
		if err != nil {
			t.log.Warn().Err(err).Str("error_code", string(errors.CodeOf(err))).Msg("Command receive failed")
			t.pause()
			continue
		}
		if !ok {
			continue
		}

		t.Handle(flight.ParseCommand(payload))
	}

	t.log.Info().Msg("Command ingest stopped")
	return nil
}

// Handle applies one command under the flight state lock, then counts the
// packet under the metrics lock. PANIC also moves the emergency status to
// Triggered while the state lock is still held, which keeps the lock order
// state before metrics.
func (t *Task) Handle(cmd flight.Command) {
	var (
		known bool
		after flight.Vehicle
	)
	t.state.Update(func(v *flight.Vehicle) {
		known = cmd.Apply(v)
		if known && cmd == flight.CmdPanic {
			t.store.SetEmergencyStatus(metrics.StatusTriggered)
		}
		after = *v
	})

	t.store.RecordPacket(t.counter.Preemptions())

	switch {
	case !known:
		t.log.Warn().Str("command", string(cmd)).Msg("Unknown command")
	case cmd == flight.CmdPanic:
		t.log.Error().Str("command", string(cmd)).Msg("Emergency requested")
	default:
		t.log.Info().
			Str("command", string(cmd)).
			Int("throttle", int(after.Throttle)).
			Float64("pitch", after.Pitch).
			Float64("roll", after.Roll).
			Msg("Command applied")
	}
}

// pause waits one poll interval after a failed receive, or less if the
// token stops first.
func (t *Task) pause() {
	timer := time.NewTimer(t.cfg.PollInterval)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-t.token.Done():
	}
}
