package command

import (
	"time"
)

// Receiver delivers raw command payloads. Receive waits at most timeout and
// reports ok=false with a nil error when nothing arrived.
type Receiver interface {
	Receive(timeout time.Duration) (payload []byte, ok bool, err error)
	Close() error
}

// Opener sets up a Receiver. It runs on the ingest task's own thread, so a
// failure only takes down that task.
type Opener func() (Receiver, error)
