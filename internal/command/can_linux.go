//go:build linux

package command

import (
	"context"
	"net"
	"sync"
	"time"

	"codeberg.org/mutker/dronecore/internal/errors"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

type canReceiver struct {
	conn    net.Conn
	frameID uint32
	frames  chan can.Frame
	errs    chan error
	done    chan struct{}
	once    sync.Once
}

// CANOpener listens on a SocketCAN interface. Each frame with ID frameID
// carries one ASCII command in its data bytes; other frames are ignored.
func CANOpener(iface string, frameID uint32) Opener {
	return func() (Receiver, error) {
		conn, err := socketcan.DialContext(context.Background(), "can", iface)
		if err != nil {
			return nil, errors.New().WithData(errors.ErrTransportBind, struct {
				Transport string
				Interface string
				Error     string
			}{
				Transport: "can",
				Interface: iface,
				Error:     err.Error(),
			})
		}

		r := &canReceiver{
			conn:    conn,
			frameID: frameID,
			frames:  make(chan can.Frame, 16),
			errs:    make(chan error, 1),
			done:    make(chan struct{}),
		}
		go r.pump(socketcan.NewReceiver(conn))
		return r, nil
	}
}

// pump owns the blocking socket read; Receive only waits on its channels.
func (r *canReceiver) pump(recv *socketcan.Receiver) {
	defer close(r.frames)

	for recv.Receive() {
		select {
		case r.frames <- recv.Frame():
		case <-r.done:
			return
		}
	}
	if err := recv.Err(); err != nil {
		r.errs <- err
	}
}

func (r *canReceiver) Receive(timeout time.Duration) ([]byte, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case frame, open := <-r.frames:
			if !open {
				select {
				case err := <-r.errs:
					return nil, false, errors.New().Wrap(errors.ErrTransportReceive, err)
				default:
					return nil, false, errors.New().New(errors.ErrTransportClosed)
				}
			}
			if frame.ID != r.frameID || frame.IsRemote {
				continue
			}
			payload := make([]byte, frame.Length)
			copy(payload, frame.Data[:frame.Length])
			return payload, true, nil
		case <-timer.C:
			return nil, false, nil
		}
	}
}

func (r *canReceiver) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		err = r.conn.Close()
	})
	return err
}
