// Package watcher polls the local clipboard and hands changed text to the
// delivery engine.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/cliprelay/internal/clip"
	"go.klb.dev/cliprelay/internal/delivery"
	"go.klb.dev/cliprelay/internal/logging"
)

const DefaultPollInterval = 600 * time.Millisecond

// Deliverer is the part of *delivery.Engine the watcher needs.
type Deliverer interface {
	Deliver(ctx context.Context, payload string) (delivery.Result, error)
}

// Config holds the watcher parameters. A zero PollInterval takes the default.
type Config struct {
	PollInterval time.Duration
}

// Validate rejects a negative interval.
func (c Config) Validate() error {
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative, got %s", c.PollInterval)
	}
	return nil
}

// Watcher owns the polling cadence and the last successfully delivered text.
type Watcher struct {
	clip     clip.Provider
	d        Deliverer
	interval time.Duration
	lastSent string
	tooLarge string // refused by the engine; not retried until it changes
}

// New returns a Watcher reading from p and submitting to d.
func New(p clip.Provider, d Deliverer, cfg Config) *Watcher {
	interval := cfg.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{clip: p, d: d, interval: interval}
}

// LastSent returns the most recently acknowledged payload.
func (w *Watcher) LastSent() string { return w.lastSent }

// Run polls until ctx is done, sleeping the poll interval after each cycle
// (including one that spent time delivering). It always returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("watching clipboard", "provider", w.clip.Name(), "interval", w.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		w.Poll(ctx)
		timer.Reset(w.interval)
	}
}

// Poll runs one cycle: read, compare with the last delivered text, deliver
// if it changed. It reports whether the text was submitted.
func (w *Watcher) Poll(ctx context.Context) bool {
	text, err := w.clip.ReadText()
	if err != nil {
		slog.Debug("clipboard read failed", "err", err)
		return false
	}
	if text == "" || text == w.lastSent || text == w.tooLarge {
		return false
	}

	slog.Debug("clipboard changed", "preview", logging.Preview(text))
	res, err := w.d.Deliver(ctx, text)
	if err != nil {
		if errors.Is(err, delivery.ErrPayloadTooLarge) {
			w.tooLarge = text
		}
		slog.Warn("delivery failed", "seq", res.Seq, "attempts", res.Attempts, "err", err)
		return true
	}
	w.lastSent = text
	slog.Info("clipboard delivered", "seq", res.Seq, "attempts", res.Attempts, "bytes", len(text))
	return true
}
