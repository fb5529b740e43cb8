// Package emergency turns the flight state's emergency flag into a
// process-wide shutdown.
package emergency

import (
	"codeberg.org/mutker/dronecore/internal/flight"
	"codeberg.org/mutker/dronecore/internal/logger"
	"codeberg.org/mutker/dronecore/internal/metrics"
	"codeberg.org/mutker/dronecore/internal/sched"
	"codeberg.org/mutker/dronecore/internal/shutdown"
)

// Phase of the watcher. Waiting -> Fired happens at most once.
type Phase int

const (
	Waiting Phase = iota
	Fired
)

func (p Phase) String() string {
	if p == Fired {
		return "fired"
	}
	return "waiting"
}

// Watcher waits for the emergency flag and then stops the token.
type Watcher struct {
	state    *flight.State
	store    *metrics.Store
	token    *shutdown.Token
	provider sched.Provider
	hints    sched.Hints
	log      logger.Logger

	phase Phase
}

func NewWatcher(
	state *flight.State, store *metrics.Store, token *shutdown.Token,
	provider sched.Provider, hints sched.Hints, log logger.Logger,
) *Watcher {
	return &Watcher{
		state:    state,
		store:    store,
		token:    token,
		provider: provider,
		hints:    hints,
		log:      log,
	}
}

// Run blocks until the emergency flag is observed or the token is stopped
// by someone else. In the first case it marks the emergency Active and stops
// the token; either way it returns and is never re-armed.
func (w *Watcher) Run() error {
	sched.Start(w.provider, w.hints, w.log)

	for {
		select {
		case <-w.state.Emergency():
		case <-w.token.Done():
		}

		// The wake is only a hint; the flag read under the state lock decides.
		if w.state.EmergencyTriggered() {
			w.fire()
			return nil
		}
		if !w.token.Running() {
			w.log.Debug().Msg("Emergency watcher released by shutdown")
			return nil
		}
	}
}

// Phase reports whether the watcher has fired. Only meaningful after Run
// returns.
func (w *Watcher) Phase() Phase {
	return w.phase
}

func (w *Watcher) fire() {
	w.phase = Fired
	w.store.SetEmergencyStatus(metrics.StatusActive)
	w.token.Stop(shutdown.ReasonEmergency)

	w.log.Error().Msg("EMERGENCY STOP ACTIVATED")
}
