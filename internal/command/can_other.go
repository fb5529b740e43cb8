//go:build !linux

package command

import "codeberg.org/mutker/dronecore/internal/errors"

// CANOpener always fails: SocketCAN is only available on Linux.
func CANOpener(iface string, _ uint32) Opener {
	return func() (Receiver, error) {
		return nil, errors.New().WithData(errors.ErrTransportBind, struct {
			Transport string
			Interface string
			Error     string
		}{
			Transport: "can",
			Interface: iface,
			Error:     "SocketCAN requires linux",
		})
	}
}
