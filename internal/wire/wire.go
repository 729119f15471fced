// Package wire carries cliprelay frames over UDP.
//
// One frame is one datagram; the package does no framing of its own. A Conn
// either has a fixed destination (sender side, created with Dial) or answers
// whoever wrote to it (receiver side, created with Listen).
package wire

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	// MaxDatagramSize is the receive buffer size. Anything larger is truncated
	// by the kernel.
	MaxDatagramSize = 64 * 1024

	// Broadcast is the destination literal that selects the limited broadcast
	// address.
	Broadcast = "broadcast"

	writeDeadline = 5 * time.Second
)

// ErrTimeout is returned by ReceiveWithTimeout when nothing arrives in time.
var ErrTimeout = errors.New("receive timed out")

// Datagram is one received frame and the address it came from.
type Datagram struct {
	Data []byte
	Addr net.Addr
}

// Conn wraps a UDP socket.
type Conn struct {
	conn *net.UDPConn
	dest *net.UDPAddr // nil on the receiving side
	buf  []byte
}

// ResolveTarget turns a CLI destination ("<ip>" or "broadcast") and a port
// into a host:port string.
func ResolveTarget(target string, port int) string {
	if target == Broadcast {
		target = net.IPv4bcast.String()
	}
	return net.JoinHostPort(target, strconv.Itoa(port))
}

// Dial opens an unconnected socket on an ephemeral port that sends to dest.
// It is not connected so that acks from any host, including replies to a
// broadcast, are accepted.
func Dial(dest string) (*Conn, error) {
	raddr, err := net.ResolveUDPAddr("udp4", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dest, err)
	}
	uc, err := net.ListenUDP("udp4", &net.UDPAddr{})
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	return newConn(uc, raddr), nil
}

// Listen binds addr (host:port; an empty host means all interfaces).
func Listen(addr string) (*Conn, error) {
	laddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	uc, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	return newConn(uc, nil), nil
}

func newConn(uc *net.UDPConn, dest *net.UDPAddr) *Conn {
	return &Conn{
		conn: uc,
		dest: dest,
		buf:  make([]byte, MaxDatagramSize),
	}
}

// LocalAddr returns the bound local address.
func (c *Conn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// Destination returns the fixed destination, or nil on a listening Conn.
func (c *Conn) Destination() net.Addr {
	if c.dest == nil {
		return nil
	}
	return c.dest
}

// Close closes the socket. A blocked Receive returns net.ErrClosed.
func (c *Conn) Close() error { return c.conn.Close() }

// Send writes b to the destination given to Dial.
func (c *Conn) Send(b []byte) error {
	if c.dest == nil {
		return errors.New("send: no destination")
	}
	return c.SendTo(b, c.dest)
}

// SendTo writes b as one datagram to addr.
func (c *Conn) SendTo(b []byte, addr net.Addr) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	_, err := c.conn.WriteTo(b, addr)
	_ = c.conn.SetWriteDeadline(time.Time{})
	if err != nil {
		return fmt.Errorf("send to %s: %w", addr, err)
	}
	return nil
}

// Receive blocks until a datagram arrives or the Conn is closed.
func (c *Conn) Receive() (Datagram, error) {
	_ = c.conn.SetReadDeadline(time.Time{})
	return c.read()
}

// ReceiveWithTimeout waits at most d for one datagram and returns ErrTimeout
// if none arrives.
func (c *Conn) ReceiveWithTimeout(d time.Duration) (Datagram, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(d))
	dg, err := c.read()
	_ = c.conn.SetReadDeadline(time.Time{})
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return Datagram{}, ErrTimeout
	}
	return dg, err
}

func (c *Conn) read() (Datagram, error) {
	n, addr, err := c.conn.ReadFromUDP(c.buf)
	if err != nil {
		return Datagram{}, err
	}
	data := make([]byte, n)
	copy(data, c.buf[:n])
	return Datagram{Data: data, Addr: addr}, nil
}
