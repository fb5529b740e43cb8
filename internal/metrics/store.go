package metrics

import (
	"sync"
	"time"
)

// EmergencyStatus only ever advances Standby -> Triggered -> Active.
type EmergencyStatus int

const (
	StatusStandby EmergencyStatus = iota
	StatusTriggered
	StatusActive
)

func (s EmergencyStatus) String() string {
	switch s {
	case StatusTriggered:
		return "TRIGGERED"
	case StatusActive:
		return "ACTIVE"
	default:
		return "STANDBY"
	}
}

// Snapshot is a copy of every counter held by a Store.
//
// The *Preempts fields are the involuntary context switch counter of the
// owning thread as of its last sample. They are not deltas and they are not
// summed across tasks.
type Snapshot struct {
	FlightLoops          int64
	FlightExecAvgUs      int64
	FlightDeadlineMisses int64
	FlightPreempts       int64
	NetPackets           int64
	NetPreempts          int64
	VisionFPS            int64
	VisionPreempts       int64
	VisionActive         bool
	EmergencyStatus      EmergencyStatus
}

// Store is the shared, internally locked metrics aggregate. It has no task
// of its own.
type Store struct {
	mu sync.Mutex
	s  Snapshot
}

func NewStore() *Store {
	return &Store{}
}

// RecordFlightLoop folds one control iteration into the store.
// The average is the fixed-weight filter avg = (avg + d) / 2 on whole
// microseconds.
func (m *Store) RecordFlightLoop(d time.Duration, preempts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.s.FlightExecAvgUs = (m.s.FlightExecAvgUs + d.Microseconds()) / 2
	m.s.FlightPreempts = preempts
	m.s.FlightLoops++
}

func (m *Store) RecordDeadlineMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.s.FlightDeadlineMisses++
}

// RecordPacket counts one received command and stores the ingest thread's
// preemption sample.
func (m *Store) RecordPacket(preempts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.s.NetPackets++
	m.s.NetPreempts = preempts
}

// SetVision stores the values reported by the video pipeline.
func (m *Store) SetVision(fps int64, active bool, preempts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.s.VisionFPS = fps
	m.s.VisionActive = active
	m.s.VisionPreempts = preempts
}

// SetEmergencyStatus advances the status. Moving backwards is ignored and
// reported as false.
func (m *Store) SetEmergencyStatus(status EmergencyStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status <= m.s.EmergencyStatus {
		return false
	}
	m.s.EmergencyStatus = status
	return true
}

func (m *Store) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.s
}

// TakeReport returns a snapshot and zeroes NetPackets, so the packet count
// in each report covers only the time since the previous one.
func (m *Store) TakeReport() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.s
	m.s.NetPackets = 0
	return s
}
