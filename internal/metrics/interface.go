package metrics

import (
	"context"
	"time"
)

// HistoryRecorder persists reports produced by the Reporter.
type HistoryRecorder interface {
	Record(ctx context.Context, report *Report) error
	Close() error
}

// HistoryRepository defines the interface for report storage
type HistoryRepository interface {
	Record(report *Report) error
	Close() error
}

// FlightReader exposes the two flight values shown next to each report.
type FlightReader interface {
	Readout() (altitude, throttle float64)
}

// Report is one periodic reading of the metrics store plus the flight
// readout taken right after it.
type Report struct {
	Timestamp time.Time
	Metrics   Snapshot
	Altitude  float64
	Throttle  float64
}
