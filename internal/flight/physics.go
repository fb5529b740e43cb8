package flight

import "math"

const (
	Dt              = 0.01
	LiftPerThrottle = 0.25
	Gravity         = 9.81
	TiltLoss        = 0.005
)

// Step integrates one tick of the vertical model. The ground clamps
// altitude at zero and kills any vertical velocity.
func Step(v *Vehicle, dt float64) {
	lift := v.Throttle * LiftPerThrottle
	tilt := 1 - TiltLoss*(math.Abs(v.Pitch)+math.Abs(v.Roll))
	accel := lift*tilt - Gravity

	v.Velocity += accel * dt
	v.Altitude += v.Velocity * dt

	if v.Altitude < 0 {
		v.Altitude = 0
		v.Velocity = 0
	}
}

// Workload burns a fixed amount of floating point work in place of sensor
// fusion and attitude control. Its result is discarded by the caller.
func Workload(iterations int, seed float64) float64 {
	x := seed
	for i := 0; i < iterations; i++ {
		x += 0.0001 * math.Sin(float64(i)*0.001)
	}
	return x
}
