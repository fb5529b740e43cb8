package metrics_test

import (
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/dronecore/internal/metrics"
	"github.com/stretchr/testify/assert"
)

func TestExecAverageRecurrence(t *testing.T) {
	store := metrics.NewStore()

	want := []int64{50, 125, 212}
	for i, us := range []int64{100, 200, 300} {
		store.RecordFlightLoop(time.Duration(us)*time.Microsecond, 0)
		assert.Equal(t, want[i], store.Snapshot().FlightExecAvgUs, "sample %d", i)
	}
	assert.Equal(t, int64(3), store.Snapshot().FlightLoops)
}

func TestPreemptsAreSnapshots(t *testing.T) {
	store := metrics.NewStore()

	store.RecordFlightLoop(time.Microsecond, 40)
	store.RecordFlightLoop(time.Microsecond, 7)
	store.RecordPacket(12)
	store.RecordPacket(3)

	s := store.Snapshot()
	assert.Equal(t, int64(7), s.FlightPreempts)
	assert.Equal(t, int64(3), s.NetPreempts)
	assert.Equal(t, int64(2), s.NetPackets)
}

func TestEmergencyStatusMonotonic(t *testing.T) {
	store := metrics.NewStore()
	assert.Equal(t, metrics.StatusStandby, store.Snapshot().EmergencyStatus)

	assert.True(t, store.SetEmergencyStatus(metrics.StatusTriggered))
	assert.True(t, store.SetEmergencyStatus(metrics.StatusActive))
	assert.False(t, store.SetEmergencyStatus(metrics.StatusTriggered))
	assert.False(t, store.SetEmergencyStatus(metrics.StatusStandby))

	assert.Equal(t, metrics.StatusActive, store.Snapshot().EmergencyStatus)
	assert.Equal(t, "ACTIVE", metrics.StatusActive.String())
}

func TestTakeReportResetsPackets(t *testing.T) {
	store := metrics.NewStore()
	store.RecordPacket(1)
	store.RecordPacket(1)
	store.RecordDeadlineMiss()

	report := store.TakeReport()
	assert.Equal(t, int64(2), report.NetPackets)
	assert.Equal(t, int64(1), report.FlightDeadlineMisses)

	after := store.Snapshot()
	assert.Zero(t, after.NetPackets)
	assert.Equal(t, int64(1), after.FlightDeadlineMisses)
}

func TestSetVision(t *testing.T) {
	store := metrics.NewStore()
	store.SetVision(30, true, 9)

	s := store.Snapshot()
	assert.Equal(t, int64(30), s.VisionFPS)
	assert.True(t, s.VisionActive)
	assert.Equal(t, int64(9), s.VisionPreempts)
}

func TestCountersNeverDecreaseUnderContention(t *testing.T) {
	store := metrics.NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				store.RecordFlightLoop(time.Microsecond, 0)
				store.RecordDeadlineMiss()
			}
		}()
	}

	var last metrics.Snapshot
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			s := store.Snapshot()
			assert.GreaterOrEqual(t, s.FlightLoops, last.FlightLoops)
			assert.GreaterOrEqual(t, s.FlightDeadlineMisses, last.FlightDeadlineMisses)
			last = s
		}
	}()

	wg.Wait()
	<-done

	s := store.Snapshot()
	assert.Equal(t, int64(1000), s.FlightLoops)
	assert.Equal(t, int64(1000), s.FlightDeadlineMisses)
}
