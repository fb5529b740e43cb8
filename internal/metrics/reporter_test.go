package metrics_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/dronecore/internal/logger"
	"codeberg.org/mutker/dronecore/internal/metrics"
	"codeberg.org/mutker/dronecore/internal/shutdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedReadout struct{ alt, thr float64 }

func (f fixedReadout) Readout() (float64, float64) { return f.alt, f.thr }

type captureHistory struct {
	mu      sync.Mutex
	reports []*metrics.Report
}

func (c *captureHistory) Record(_ context.Context, r *metrics.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
	return nil
}

func (c *captureHistory) Close() error { return nil }

func (c *captureHistory) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reports)
}

func TestReporterReportResetsPackets(t *testing.T) {
	store := metrics.NewStore()
	store.RecordPacket(4)
	store.RecordPacket(5)

	history := &captureHistory{}
	r := metrics.NewReporter(store, fixedReadout{alt: 2.5, thr: 40}, history,
		shutdown.NewToken(), time.Second, logger.For("reporter"))

	report := r.Report(context.Background())
	assert.Equal(t, int64(2), report.Metrics.NetPackets)
	assert.Equal(t, 2.5, report.Altitude)
	assert.Equal(t, 40.0, report.Throttle)
	assert.Zero(t, store.Snapshot().NetPackets)

	second := r.Report(context.Background())
	assert.Zero(t, second.Metrics.NetPackets)
	assert.Equal(t, 2, history.len())
}

func TestReporterRunStopsWithToken(t *testing.T) {
	history := &captureHistory{}
	token := shutdown.NewToken()
	r := metrics.NewReporter(metrics.NewStore(), fixedReadout{}, history,
		token, 5*time.Millisecond, logger.For("reporter"))

	done := make(chan error, 1)
	go func() { done <- r.Run() }()

	require.Eventually(t, func() bool { return history.len() >= 2 }, time.Second, time.Millisecond)

	token.Stop(shutdown.ReasonSignal)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reporter did not stop")
	}
}
