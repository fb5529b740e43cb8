package flight

import "strings"

// Command is one ASCII token received from the ground station.
type Command string

const (
	CmdPanic Command = "PANIC"
	CmdUp    Command = "UP"
	CmdDown  Command = "DOWN"
	CmdFront Command = "FRONT"
	CmdBack  Command = "BACK"
	CmdLeft  Command = "LEFT"
	CmdRight Command = "RIGHT"
	CmdStop  Command = "STOP"
)

const (
	MaxThrottle  = 100.0
	ThrottleStep = 10.0
	TiltAngle    = 15.0
)

// ParseCommand turns a received payload into a Command. Surrounding
// whitespace and NUL padding are dropped; matching is case-sensitive.
func ParseCommand(payload []byte) Command {
	return Command(strings.Trim(string(payload), " \t\r\n\x00"))
}

// Known reports whether c is one of the recognized commands.
func (c Command) Known() bool {
	switch c {
	case CmdPanic, CmdUp, CmdDown, CmdFront, CmdBack, CmdLeft, CmdRight, CmdStop:
		return true
	default:
		return false
	}
}

// Apply mutates v according to c and reports whether c was recognized.
// Unknown commands leave v untouched.
func (c Command) Apply(v *Vehicle) bool {
	switch c {
	case CmdPanic:
		v.EmergencyTriggered = true
	case CmdUp:
		v.Throttle = min(MaxThrottle, v.Throttle+ThrottleStep)
	case CmdDown:
		v.Throttle = max(0, v.Throttle-ThrottleStep)
	case CmdFront:
		v.Pitch = TiltAngle
	case CmdBack:
		v.Pitch = -TiltAngle
	case CmdLeft:
		v.Roll = -TiltAngle
	case CmdRight:
		v.Roll = TiltAngle
	case CmdStop:
		v.Pitch = 0
		v.Roll = 0
	default:
		return false
	}
	return true
}
