package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/dronecore/internal/command"
	"codeberg.org/mutker/dronecore/internal/config"
	"codeberg.org/mutker/dronecore/internal/emergency"
	"codeberg.org/mutker/dronecore/internal/errors"
	"codeberg.org/mutker/dronecore/internal/flight"
	"codeberg.org/mutker/dronecore/internal/logger"
	"codeberg.org/mutker/dronecore/internal/metrics"
	"codeberg.org/mutker/dronecore/internal/pid"
	"codeberg.org/mutker/dronecore/internal/sched"
	"codeberg.org/mutker/dronecore/internal/shutdown"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")

	pidPath := pid.Path(cfg.PIDFile)
	if err := pid.Write(pidPath); err != nil {
		var coded errors.Error
		if errors.As(err, &coded) {
			logger.FatalWithCode(coded).Msg("Failed to write PID file")
		}
		logger.Fatal().Err(err).Msg("Failed to write PID file")
	}

	a, err := newApp(cfg, sched.NewProvider(), sched.NewPreemptionCounter(), openerFor(cfg))
	if err != nil {
		_ = pid.Remove(pidPath)
		logger.Fatal().Err(err).Msg("Failed to initialize")
	}
	a.pidPath = pidPath

	go handleSignals(a.token)

	a.run()
	a.cleanup()
}

// openerFor picks the command transport named in the configuration.
func openerFor(cfg *config.Config) command.Opener {
	if cfg.Command.Transport == config.TransportCAN {
		return command.CANOpener(cfg.Command.CANInterface, cfg.Command.CANFrameID)
	}

	return command.UDPOpener(cfg.Command.Address)
}

// handleSignals stops the token on SIGINT or SIGTERM. The emergency
// status is left alone.
func handleSignals(token *shutdown.Token) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		token.Stop(shutdown.ReasonSignal)
	case <-token.Done():
	}
}

// app owns everything shared between the tasks. Nothing here is global.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	state    *flight.State
	store    *metrics.Store
	token    *shutdown.Token
	history  metrics.HistoryRecorder
	reporter *metrics.Reporter
	provider sched.Provider
	counter  sched.PreemptionCounter
	open     command.Opener
	pidPath  string
}

func newApp(
	cfg *config.Config, provider sched.Provider, counter sched.PreemptionCounter, open command.Opener,
) (*app, error) {
	history, err := metrics.NewHistory(metrics.Config{
		DBPath:       cfg.History.DBPath,
		BatchSize:    cfg.History.BatchSize,
		BatchTimeout: cfg.History.BatchTimeout,
		Enabled:      cfg.History.Enabled,
	}, logger.For("history"))
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      logger.For("main"),
		state:    flight.NewState(),
		store:    metrics.NewStore(),
		token:    shutdown.NewToken(),
		history:  history,
		provider: provider,
		counter:  counter,
		open:     open,
	}
	a.reporter = metrics.NewReporter(a.store, a.state, a.history, a.token, cfg.Report.Interval, logger.For("reporter"))

	return a, nil
}

func (a *app) hints(task string, priority sched.Priority) sched.Hints {
	return sched.Hints{
		Task:     task,
		Priority: priority,
		Pin:      a.cfg.Sched.Affinity,
		CPU:      a.cfg.Sched.CPU,
	}
}

// run starts every task and blocks until all of them have returned. There
// is no join timeout.
func (a *app) run() {
	watcher := emergency.NewWatcher(
		a.state, a.store, a.token, a.provider,
		a.hints("emergency", sched.PriorityEmergency), logger.For("emergency"),
	)
	loop := flight.NewLoop(
		a.state, a.store, a.token,
		flight.LoopConfig{
			Period:             a.cfg.Flight.Period,
			WorkloadIterations: a.cfg.Flight.WorkloadIterations,
			Hints:              a.hints("flight", sched.PriorityFlight),
		},
		a.provider, logger.For("flight"),
		flight.WithPreemptionCounter(a.counter),
	)
	ingest := command.NewTask(
		a.open, a.state, a.store, a.token,
		command.Config{
			PollInterval: a.cfg.Command.PollInterval,
			Hints:        a.hints("command", sched.PriorityCommand),
		},
		a.provider, a.counter, logger.For("command"),
	)

	a.log.Info().
		Str("transport", a.cfg.Command.Transport.String()).
		Bool("affinity", a.cfg.Sched.Affinity).
		Dur("period", a.cfg.Flight.Period).
		Msg("Flight controller starting")

	var g errgroup.Group
	g.Go(watcher.Run)
	g.Go(loop.Run)
	g.Go(ingest.Run)
	g.Go(a.reporter.Run)

	if err := g.Wait(); err != nil {
		a.log.Error().Err(err).Msg("Task failed")
	}
}

// cleanup runs once every task has joined.
func (a *app) cleanup() {
	a.state.StopMotors()
	a.log.Info().Msg("Motors stopped")

	snap := a.store.Snapshot()
	a.log.Info().
		Str("reason", a.token.Reason().String()).
		Str("emergency", snap.EmergencyStatus.String()).
		Int64("flight_loops", snap.FlightLoops).
		Int64("flight_exec_avg_us", snap.FlightExecAvgUs).
		Int64("flight_deadline_misses", snap.FlightDeadlineMisses).
		Int64("net_packets", snap.NetPackets).
		Msg("Final stats")

	a.reporter.Report(context.Background())

	if err := a.history.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close history")
	}

	if a.pidPath != "" {
		if err := pid.Remove(a.pidPath); err != nil {
			a.log.Error().Err(err).Msg("Failed to remove PID file")
		}
	}

	a.log.Info().Msg("Exiting...")
}
