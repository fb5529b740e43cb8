// Package flight owns the vehicle state, the command model and the fixed-rate
// control loop that integrates it.
package flight

import "sync"

// Vehicle is the flight record. It is only reachable through State, under
// State's lock.
type Vehicle struct {
	Throttle           float64 // [0,100]
	Pitch              float64 // -15, 0 or 15
	Roll               float64 // -15, 0 or 15
	Yaw                float64 // unused
	Altitude           float64 // >= 0
	Velocity           float64 // vertical
	EmergencyTriggered bool
}

// State is the shared, internally locked flight state.
//
// The emergency primitive is a channel closed the first time an update
// leaves EmergencyTriggered set. Once set the flag is sticky: an update that
// clears it is reverted before the lock is released.
type State struct {
	mu        sync.Mutex
	v         Vehicle
	emergency chan struct{}
}

func NewState() *State {
	return &State{emergency: make(chan struct{})}
}

// Update runs fn with the lock held. fn must not block.
func (s *State) Update(fn func(v *Vehicle)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	was := s.v.EmergencyTriggered
	fn(&s.v)

	if was {
		s.v.EmergencyTriggered = true
		return
	}
	if s.v.EmergencyTriggered {
		close(s.emergency)
	}
}

// Read returns a copy of the record.
func (s *State) Read() Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.v
}

// Readout returns altitude and throttle for status reports.
func (s *State) Readout() (altitude, throttle float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.v.Altitude, s.v.Throttle
}

// EmergencyTriggered reads the flag under the lock.
func (s *State) EmergencyTriggered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.v.EmergencyTriggered
}

// Emergency is closed once the emergency flag has been set.
func (s *State) Emergency() <-chan struct{} {
	return s.emergency
}

// StopMotors zeroes every control axis.
func (s *State) StopMotors() {
	s.Update(func(v *Vehicle) {
		v.Throttle = 0
		v.Pitch = 0
		v.Roll = 0
		v.Yaw = 0
	})
}
