package flight_test

import (
	"testing"

	"codeberg.org/mutker/dronecore/internal/flight"
	"github.com/stretchr/testify/assert"
)

func TestStepGroundClamp(t *testing.T) {
	v := flight.Vehicle{}
	flight.Step(&v, flight.Dt)

	assert.Zero(t, v.Altitude)
	assert.Zero(t, v.Velocity)
}

func TestStepFullThrottle(t *testing.T) {
	v := flight.Vehicle{Throttle: 100}
	flight.Step(&v, flight.Dt)

	// accel = 100*0.25 - 9.81
	assert.InDelta(t, 0.1519, v.Velocity, 1e-9)
	assert.InDelta(t, 0.001519, v.Altitude, 1e-9)
}

func TestStepTiltReducesLift(t *testing.T) {
	level := flight.Vehicle{Throttle: 100}
	tilted := flight.Vehicle{Throttle: 100, Pitch: 15, Roll: -15}

	flight.Step(&level, flight.Dt)
	flight.Step(&tilted, flight.Dt)

	// tilt factor 1 - 0.005*30 = 0.85
	assert.InDelta(t, (25*0.85-9.81)*0.01, tilted.Velocity, 1e-9)
	assert.Less(t, tilted.Altitude, level.Altitude)
}

func TestStepFallClampsVelocity(t *testing.T) {
	v := flight.Vehicle{Altitude: 0.0001, Velocity: -1}
	flight.Step(&v, flight.Dt)

	assert.Zero(t, v.Altitude)
	assert.Zero(t, v.Velocity)
}

func TestStepClimbsOverTime(t *testing.T) {
	v := flight.Vehicle{Throttle: 60}
	for i := 0; i < 100; i++ {
		flight.Step(&v, flight.Dt)
		assert.GreaterOrEqual(t, v.Altitude, 0.0)
	}
	assert.Greater(t, v.Altitude, 0.0)
}

func TestWorkloadIsDeterministic(t *testing.T) {
	assert.Equal(t, 3.0, flight.Workload(0, 3))
	assert.Equal(t, flight.Workload(2000, 1), flight.Workload(2000, 1))
	assert.NotEqual(t, 1.0, flight.Workload(2000, 1))
}
