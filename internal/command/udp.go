package command

import (
	"net"
	"time"

	"codeberg.org/mutker/dronecore/internal/errors"
)

const maxDatagram = 1024

type udpReceiver struct {
	conn net.PacketConn
	buf  []byte
}

// UDPOpener listens for one command per datagram on addr.
func UDPOpener(addr string) Opener {
	return func() (Receiver, error) {
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return nil, errors.New().WithData(errors.ErrTransportBind, struct {
				Transport string
				Address   string
				Error     string
			}{
				Transport: "udp",
				Address:   addr,
				Error:     err.Error(),
			})
		}
		return &udpReceiver{conn: conn, buf: make([]byte, maxDatagram)}, nil
	}
}

func (r *udpReceiver) Receive(timeout time.Duration) ([]byte, bool, error) {
	if err := r.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, false, errors.New().Wrap(errors.ErrTransportReceive, err)
	}

	n, _, err := r.conn.ReadFrom(r.buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, false, nil
		}
		return nil, false, errors.New().Wrap(errors.ErrTransportReceive, err)
	}

	payload := make([]byte, n)
	copy(payload, r.buf[:n])
	return payload, true, nil
}

func (r *udpReceiver) Close() error {
	return r.conn.Close()
}

// LocalAddr is the bound address, useful when listening on port 0.
func (r *udpReceiver) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}
