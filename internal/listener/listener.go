// Package listener implements the receiving side of the relay: it applies
// every well-formed frame to the local clipboard and acknowledges it.
package listener

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"go.klb.dev/cliprelay/internal/clip"
	"go.klb.dev/cliprelay/internal/logging"
	"go.klb.dev/cliprelay/internal/message"
	"go.klb.dev/cliprelay/internal/wire"
)

// PacketConn is the socket the listener reads from and acks on. *wire.Conn
// satisfies it.
type PacketConn interface {
	Receive() (wire.Datagram, error)
	SendTo(b []byte, addr net.Addr) error
	Close() error
}

// Listener processes one datagram at a time: parse, apply, ack.
type Listener struct {
	conn PacketConn
	clip clip.Provider
}

// New returns a Listener on conn writing to p.
func New(conn PacketConn, p clip.Provider) *Listener {
	return &Listener{conn: conn, clip: p}
}

// Run receives until ctx is done or the connection is closed. Cancelling ctx
// closes conn. Per-datagram receive errors are logged and skipped.
func (l *Listener) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = l.conn.Close() })
	defer stop()

	slog.Info("listening for frames", "provider", l.clip.Name())
	for {
		dg, err := l.conn.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			slog.Warn("receive failed", "err", err)
			continue
		}
		l.Handle(dg)
	}
}

// Handle processes one datagram and reports whether it was acknowledged.
// Malformed frames are dropped without a reply. Duplicates are applied and
// acknowledged again.
func (l *Listener) Handle(dg wire.Datagram) bool {
	msg, err := message.Decode(dg.Data)
	if err != nil {
		slog.Debug("dropping datagram", "from", dg.Addr, "bytes", len(dg.Data), "err", err)
		return false
	}

	log := slog.With("seq", msg.Seq, "from", dg.Addr)
	log.Info("frame received", "bytes", len(msg.Payload))

	// The ack confirms receipt, not a successful clipboard write.
	if err := l.clip.WriteText(msg.Payload); err != nil {
		log.Error("clipboard update failed", "err", err)
	} else {
		log.Debug("clipboard updated", "preview", logging.Preview(msg.Payload))
	}

	if err := l.conn.SendTo(message.EncodeAck(msg.Seq), dg.Addr); err != nil {
		log.Warn("ack failed", "err", err)
		return false
	}
	return true
}
