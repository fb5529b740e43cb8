package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/dronecore/internal/logger"
	"codeberg.org/mutker/dronecore/internal/shutdown"
)

// Reporter is the periodic consumer of the Store. Each report resets the
// packet counter, logs one structured event and is handed to the history
// recorder.
type Reporter struct {
	store    *Store
	flight   FlightReader
	history  HistoryRecorder
	token    *shutdown.Token
	interval time.Duration
	log      logger.Logger
	now      func() time.Time
}

func NewReporter(
	store *Store, flight FlightReader, history HistoryRecorder,
	token *shutdown.Token, interval time.Duration, log logger.Logger,
) *Reporter {
	return &Reporter{
		store:    store,
		flight:   flight,
		history:  history,
		token:    token,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run reports every interval until the token stops.
func (r *Reporter) Run() error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for r.token.Running() {
		select {
		case <-r.token.Done():
			return nil
		case <-ticker.C:
			r.Report(context.Background())
		}
	}

	return nil
}

// Report takes one report. The metrics lock and the flight state lock are
// taken one after the other, never together.
func (r *Reporter) Report(ctx context.Context) *Report {
	snap := r.store.TakeReport()
	alt, thr := r.flight.Readout()

	report := &Report{
		Timestamp: r.now(),
		Metrics:   snap,
		Altitude:  alt,
		Throttle:  thr,
	}

	r.log.Info().
		Int64("flight_exec_avg_us", snap.FlightExecAvgUs).
		Int64("flight_deadline_misses", snap.FlightDeadlineMisses).
		Int64("flight_preempts", snap.FlightPreempts).
		Int64("net_packets", snap.NetPackets).
		Int64("net_preempts", snap.NetPreempts).
		Int64("vision_fps", snap.VisionFPS).
		Int64("vision_preempts", snap.VisionPreempts).
		Float64("altitude", alt).
		Int("throttle", int(thr)).
		Str("emergency", snap.EmergencyStatus.String()).
		Msg("status")

	if err := r.history.Record(ctx, report); err != nil {
		r.log.Warn().Err(err).Msg("Failed to record report history")
	}

	return report
}
