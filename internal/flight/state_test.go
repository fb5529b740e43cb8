package flight_test

import (
	"sync"
	"testing"

	"codeberg.org/mutker/dronecore/internal/flight"
	"github.com/stretchr/testify/assert"
)

func TestEmergencyIsSticky(t *testing.T) {
	s := flight.NewState()

	select {
	case <-s.Emergency():
		t.Fatal("emergency closed before trigger")
	default:
	}

	s.Update(func(v *flight.Vehicle) { flight.CmdPanic.Apply(v) })
	<-s.Emergency()
	assert.True(t, s.EmergencyTriggered())

	s.Update(func(v *flight.Vehicle) { v.EmergencyTriggered = false })
	assert.True(t, s.EmergencyTriggered())

	// A second trigger must not close the channel again.
	s.Update(func(v *flight.Vehicle) { flight.CmdPanic.Apply(v) })
}

func TestStopMotors(t *testing.T) {
	s := flight.NewState()
	s.Update(func(v *flight.Vehicle) {
		v.Throttle = 70
		v.Pitch = 15
		v.Roll = -15
		v.Altitude = 12
	})

	s.StopMotors()

	v := s.Read()
	assert.Zero(t, v.Throttle)
	assert.Zero(t, v.Pitch)
	assert.Zero(t, v.Roll)
	assert.Zero(t, v.Yaw)
	assert.Equal(t, 12.0, v.Altitude)

	alt, thr := s.Readout()
	assert.Equal(t, 12.0, alt)
	assert.Zero(t, thr)
}

func TestConcurrentCommandsKeepInvariants(t *testing.T) {
	s := flight.NewState()
	cmds := []flight.Command{flight.CmdUp, flight.CmdDown, flight.CmdFront, flight.CmdRight, flight.CmdStop}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := cmds[(i+j)%len(cmds)]
				s.Update(func(v *flight.Vehicle) {
					c.Apply(v)
					flight.Step(v, flight.Dt)
				})
			}
		}(i)
	}
	wg.Wait()

	v := s.Read()
	assert.GreaterOrEqual(t, v.Throttle, 0.0)
	assert.LessOrEqual(t, v.Throttle, 100.0)
	assert.GreaterOrEqual(t, v.Altitude, 0.0)
}
