package listener

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"go.klb.dev/cliprelay/internal/clip"
	"go.klb.dev/cliprelay/internal/wire"
)

type sentFrame struct {
	data string
	addr net.Addr
}

// fakeConn feeds datagrams from in and records every reply.
type fakeConn struct {
	in      chan wire.Datagram
	closed  chan struct{}
	once    sync.Once
	sendErr error

	mu   sync.Mutex
	sent []sentFrame
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan wire.Datagram, 8),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Receive() (wire.Datagram, error) {
	select {
	case dg := <-c.in:
		return dg, nil
	case <-c.closed:
		return wire.Datagram{}, net.ErrClosed
	}
}

func (c *fakeConn) SendTo(b []byte, addr net.Addr) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	c.sent = append(c.sent, sentFrame{data: string(b), addr: addr})
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) replies() []sentFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentFrame(nil), c.sent...)
}

var sender = &net.UDPAddr{IP: net.IPv4(192, 168, 1, 10), Port: 40123}

func dgram(s string) wire.Datagram {
	return wire.Datagram{Data: []byte(s), Addr: sender}
}

func TestHandleWellFormedFrame(t *testing.T) {
	conn := newFakeConn()
	m := clip.NewMemory("")
	l := New(conn, m)

	if !l.Handle(dgram("7:hello")) {
		t.Fatal("expected frame to be acknowledged")
	}
	if m.Text() != "hello" {
		t.Fatalf("expected clipboard hello, got %q", m.Text())
	}
	replies := conn.replies()
	if len(replies) != 1 {
		t.Fatalf("expected exactly one ack, got %d", len(replies))
	}
	if replies[0].data != "ACK:7" || replies[0].addr != sender {
		t.Fatalf("expected ACK:7 to %v, got %q to %v", sender, replies[0].data, replies[0].addr)
	}
}

func TestHandlePayloadWithColons(t *testing.T) {
	conn := newFakeConn()
	m := clip.NewMemory("")
	New(conn, m).Handle(dgram("12:https://example.com:8080/x"))

	if m.Text() != "https://example.com:8080/x" {
		t.Fatalf("payload split on the wrong colon: %q", m.Text())
	}
	if r := conn.replies(); len(r) != 1 || r[0].data != "ACK:12" {
		t.Fatalf("expected ACK:12, got %+v", r)
	}
}

func TestHandleMalformed(t *testing.T) {
	for _, in := range []string{"garbage", "abc:hello", ":hello", ""} {
		conn := newFakeConn()
		m := clip.NewMemory("untouched")
		l := New(conn, m)

		if l.Handle(dgram(in)) {
			t.Errorf("%q: malformed frame was acknowledged", in)
		}
		if len(conn.replies()) != 0 {
			t.Errorf("%q: expected no ack, got %+v", in, conn.replies())
		}
		if m.Text() != "untouched" || m.Writes() != 0 {
			t.Errorf("%q: clipboard changed to %q", in, m.Text())
		}
	}
}

func TestHandleDuplicateFrame(t *testing.T) {
	conn := newFakeConn()
	m := clip.NewMemory("")
	l := New(conn, m)

	l.Handle(dgram("3:same"))
	l.Handle(dgram("3:same"))

	if m.Text() != "same" {
		t.Fatalf("expected same, got %q", m.Text())
	}
	replies := conn.replies()
	if len(replies) != 2 {
		t.Fatalf("expected two acks, got %d", len(replies))
	}
	for _, r := range replies {
		if r.data != "ACK:3" {
			t.Fatalf("expected ACK:3, got %q", r.data)
		}
	}
}

func TestHandleAcksWhenClipboardWriteFails(t *testing.T) {
	conn := newFakeConn()
	m := clip.NewMemory("old")
	m.FailWrites(errors.New("clipboard locked"))
	l := New(conn, m)

	if !l.Handle(dgram("5:new")) {
		t.Fatal("ack must be sent even when the clipboard write fails")
	}
	if m.Text() != "old" {
		t.Fatalf("expected clipboard unchanged, got %q", m.Text())
	}
	if r := conn.replies(); len(r) != 1 || r[0].data != "ACK:5" {
		t.Fatalf("expected ACK:5, got %+v", r)
	}
}

func TestHandleAckSendFailure(t *testing.T) {
	conn := newFakeConn()
	conn.sendErr = errors.New("host unreachable")
	m := clip.NewMemory("")

	if New(conn, m).Handle(dgram("1:x")) {
		t.Fatal("expected false when the ack cannot be sent")
	}
	if m.Text() != "x" {
		t.Fatalf("clipboard should still be updated, got %q", m.Text())
	}
}

func TestRunProcessesUntilCancel(t *testing.T) {
	conn := newFakeConn()
	m := clip.NewMemory("")
	l := New(conn, m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	conn.in <- dgram("garbage")
	conn.in <- dgram("1:first")
	conn.in <- dgram("2:second")

	deadline := time.Now().Add(2 * time.Second)
	for len(conn.replies()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if m.Text() != "second" {
		t.Fatalf("expected second, got %q", m.Text())
	}
	if r := conn.replies(); len(r) != 2 || r[0].data != "ACK:1" || r[1].data != "ACK:2" {
		t.Fatalf("expected ACK:1, ACK:2, got %+v", r)
	}
}

func TestRunReturnsWhenClosed(t *testing.T) {
	conn := newFakeConn()
	l := New(conn, clip.NewMemory(""))

	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	_ = conn.Close()

	select {
	case err := <-done:
		if !errors.Is(err, net.ErrClosed) {
			t.Fatalf("expected net.ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
