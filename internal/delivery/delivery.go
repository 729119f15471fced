// Package delivery implements the sender side of the relay protocol: one
// outstanding message at a time, resent on a fixed timeout until a matching
// acknowledgment arrives or the attempt budget runs out.
//
// Sequence numbers start at 1 and every Deliver call that reaches the network
// takes a fresh one, whether it ends acknowledged or not. A late ack for a
// failed message therefore can never confirm a later one.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/cliprelay/internal/message"
	"go.klb.dev/cliprelay/internal/wire"
)

const (
	DefaultAckTimeout = 700 * time.Millisecond
	DefaultMaxRetries = 5

	// DefaultMaxPayload keeps an encoded frame below the IPv4 UDP limit of
	// 65507 bytes.
	DefaultMaxPayload = 65000
)

var (
	// ErrNotAcknowledged is returned when every attempt went unanswered.
	ErrNotAcknowledged = errors.New("not acknowledged")

	// ErrPayloadTooLarge is returned, without sending, for frames larger than
	// Config.MaxPayload.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Transport is the datagram socket the engine drives. *wire.Conn satisfies it.
type Transport interface {
	Send(b []byte) error
	ReceiveWithTimeout(d time.Duration) (wire.Datagram, error)
}

// Config holds the protocol parameters. Zero fields take the defaults.
type Config struct {
	AckTimeout time.Duration // wait per attempt
	MaxRetries int           // total sends per message
	MaxPayload int           // largest encoded frame in bytes
}

// Validate rejects negative values.
func (c Config) Validate() error {
	switch {
	case c.AckTimeout < 0:
		return fmt.Errorf("ack timeout must not be negative, got %s", c.AckTimeout)
	case c.MaxRetries < 0:
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	case c.MaxPayload < 0:
		return fmt.Errorf("max payload must not be negative, got %d", c.MaxPayload)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.AckTimeout == 0 {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.MaxPayload == 0 {
		c.MaxPayload = DefaultMaxPayload
	}
	return c
}

// Result describes how one Deliver call resolved.
type Result struct {
	Seq       uint64
	Attempts  int // frames actually sent
	Delivered bool
}

// Engine assigns sequence numbers and runs the send/wait/retry loop. It is
// not safe for concurrent use; the watcher calls it from a single goroutine.
type Engine struct {
	t    Transport
	cfg  Config
	next uint64
}

// New returns an Engine sending over t.
func New(t Transport, cfg Config) *Engine {
	return &Engine{
		t:    t,
		cfg:  cfg.withDefaults(),
		next: 1,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// NextSeq returns the sequence the next Deliver call will use.
func (e *Engine) NextSeq() uint64 { return e.next }

// Deliver sends payload and blocks until it is acknowledged, the attempts run
// out, a send fails, or ctx is done. A nil error means Delivered is true.
func (e *Engine) Deliver(ctx context.Context, payload string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	msg := message.Message{Seq: e.next, Payload: payload}
	frame := msg.Encode()
	if len(frame) > e.cfg.MaxPayload {
		return Result{}, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(frame), e.cfg.MaxPayload)
	}
	e.next++

	res := Result{Seq: msg.Seq}
	log := slog.With("seq", msg.Seq)

	for res.Attempts < e.cfg.MaxRetries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		res.Attempts++
		if err := e.t.Send(frame); err != nil {
			return res, fmt.Errorf("seq %d: %w", msg.Seq, err)
		}

		// One receive per send: anything that is not our ack costs the attempt.
		dg, err := e.t.ReceiveWithTimeout(e.cfg.AckTimeout)
		switch {
		case err == nil:
			seq, ackErr := message.DecodeAck(dg.Data)
			if ackErr == nil && seq == msg.Seq {
				res.Delivered = true
				return res, nil
			}
			log.Debug("ignoring datagram", "from", dg.Addr, "attempt", res.Attempts, "ack_err", ackErr, "ack_seq", seq)
		case errors.Is(err, wire.ErrTimeout):
			log.Info("no ack", "attempt", res.Attempts, "max", e.cfg.MaxRetries)
		default:
			log.Warn("receive failed", "attempt", res.Attempts, "err", err)
		}
	}

	return res, fmt.Errorf("seq %d after %d attempts: %w", msg.Seq, res.Attempts, ErrNotAcknowledged)
}
