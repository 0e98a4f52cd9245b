// Package transport owns the datagram socket lifecycle: binding,
// per-packet receive, and reply send. It has no knowledge of command
// syntax (wire) or tree semantics (engine); it moves bytes.
package transport

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

const maxDatagram = 1024

// Socket is a bound UDP endpoint tuned the way the mount helpers in the
// FUSE stack tune their kernel-facing file descriptors: explicit
// SO_REUSEADDR before bind so a restarted server doesn't wait out
// TIME_WAIT on its old socket.
type Socket struct {
	conn *net.UDPConn
}

// Listen binds addr ("host:port", or ":port" for all interfaces).
func Listen(addr string) (*Socket, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	pc, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	return &Socket{conn: pc.(*net.UDPConn)}, nil
}

// LocalAddr reports the bound address, useful when addr was ":0".
func (s *Socket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Receive blocks for the next datagram. The returned byte count and
// sender address mirror net.PacketConn.ReadFrom.
func (s *Socket) Receive(buf []byte) (int, net.Addr, error) {
	return s.conn.ReadFrom(buf)
}

// Reply sends a response datagram back to the given sender.
func (s *Socket) Reply(b []byte, to net.Addr) error {
	_, err := s.conn.WriteTo(b, to)
	return err
}

// Close releases the socket.
func (s *Socket) Close() error { return s.conn.Close() }

// MaxDatagramSize is the receive buffer size callers should allocate;
// it comfortably holds the longest wire command (two max-length paths
// plus opcode and separators).
func MaxDatagramSize() int { return maxDatagram }
