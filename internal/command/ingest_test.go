package command_test

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/dronecore/internal/command"
	"codeberg.org/mutker/dronecore/internal/errors"
	"codeberg.org/mutker/dronecore/internal/flight"
	"codeberg.org/mutker/dronecore/internal/logger"
	"codeberg.org/mutker/dronecore/internal/metrics"
	"codeberg.org/mutker/dronecore/internal/sched"
	"codeberg.org/mutker/dronecore/internal/shutdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanReceiver struct {
	ch     chan []byte
	mu     sync.Mutex
	closed bool
}

func newChanReceiver() *chanReceiver {
	return &chanReceiver{ch: make(chan []byte, 32)}
}

func (r *chanReceiver) Receive(timeout time.Duration) ([]byte, bool, error) {
	select {
	case p := <-r.ch:
		return p, true, nil
	case <-time.After(timeout):
		return nil, false, nil
	}
}

func (r *chanReceiver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *chanReceiver) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type fixedPreempts int64

func (f fixedPreempts) Preemptions() int64 { return int64(f) }

type fixture struct {
	state *flight.State
	store *metrics.Store
	token *shutdown.Token
	task  *command.Task
}

func newFixture(open command.Opener) *fixture {
	f := &fixture{
		state: flight.NewState(),
		store: metrics.NewStore(),
		token: shutdown.NewToken(),
	}
	f.task = command.NewTask(open, f.state, f.store, f.token,
		command.Config{
			PollInterval: 2 * time.Millisecond,
			Hints:        sched.Hints{Task: "command", Priority: sched.PriorityCommand},
		},
		sched.Noop{}, fixedPreempts(7), logger.For("command"))
	return f
}

func (f *fixture) handle(cmds ...flight.Command) {
	for _, c := range cmds {
		f.task.Handle(c)
	}
}

func TestThrottleScenario(t *testing.T) {
	f := newFixture(nil)

	f.handle(flight.CmdUp, flight.CmdUp, flight.CmdUp)
	assert.Equal(t, 30.0, f.state.Read().Throttle)

	f.handle(flight.CmdDown, flight.CmdDown, flight.CmdDown, flight.CmdDown, flight.CmdDown)
	assert.Equal(t, 0.0, f.state.Read().Throttle)

	s := f.store.Snapshot()
	assert.Equal(t, int64(8), s.NetPackets)
	assert.Equal(t, int64(7), s.NetPreempts)
}

func TestTiltScenario(t *testing.T) {
	f := newFixture(nil)

	f.handle(flight.CmdFront, flight.CmdRight, flight.CmdStop)

	v := f.state.Read()
	assert.Zero(t, v.Pitch)
	assert.Zero(t, v.Roll)
}

func TestPanicMarksTriggered(t *testing.T) {
	f := newFixture(nil)

	f.handle(flight.CmdPanic)

	assert.True(t, f.state.EmergencyTriggered())
	assert.Equal(t, metrics.StatusTriggered, f.store.Snapshot().EmergencyStatus)
	<-f.state.Emergency()
}

func TestUnknownCommandCountsPacket(t *testing.T) {
	f := newFixture(nil)

	f.handle(flight.Command("JUMP"))

	assert.Equal(t, flight.Vehicle{}, f.state.Read())
	assert.Equal(t, int64(1), f.store.Snapshot().NetPackets)
	assert.Equal(t, metrics.StatusStandby, f.store.Snapshot().EmergencyStatus)
}

func TestRunAppliesReceivedPayloads(t *testing.T) {
	rx := newChanReceiver()
	f := newFixture(func() (command.Receiver, error) { return rx, nil })

	done := make(chan error, 1)
	go func() { done <- f.task.Run() }()

	rx.ch <- []byte("UP\n")
	rx.ch <- []byte("UP")
	rx.ch <- []byte("FRONT")

	require.Eventually(t, func() bool { return f.store.Snapshot().NetPackets == 3 }, time.Second, time.Millisecond)
	v := f.state.Read()
	assert.Equal(t, 20.0, v.Throttle)
	assert.Equal(t, 15.0, v.Pitch)

	f.token.Stop(shutdown.ReasonSignal)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ingest task did not stop")
	}
	assert.True(t, rx.isClosed())
}

func TestBindFailureEndsOnlyThisTask(t *testing.T) {
	f := newFixture(func() (command.Receiver, error) {
		return nil, errors.New().Wrap(errors.ErrTransportBind, stderrors.New("address already in use"))
	})

	require.NoError(t, f.task.Run())
	assert.True(t, f.token.Running(), "a transport failure must not stop the process")
}

type failingReceiver struct {
	calls int
	mu    sync.Mutex
}

func (r *failingReceiver) Receive(time.Duration) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls%2 == 1 {
		return nil, false, stderrors.New("connection refused")
	}
	return []byte("UP"), true, nil
}

func (r *failingReceiver) Close() error { return nil }

func TestReceiveErrorsDoNotStopTask(t *testing.T) {
	rx := &failingReceiver{}
	f := newFixture(func() (command.Receiver, error) { return rx, nil })

	done := make(chan error, 1)
	go func() { done <- f.task.Run() }()

	require.Eventually(t, func() bool { return f.store.Snapshot().NetPackets >= 2 }, time.Second, time.Millisecond)
	f.token.Stop(shutdown.ReasonSignal)
	require.NoError(t, <-done)
}
