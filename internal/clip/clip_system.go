//go:build darwin || windows || linux

package clip

import (
	"errors"
	"log/slog"
	"sync"

	"golang.design/x/clipboard"
)

type systemProvider struct {
	// mu scopes each read or write; the library opens and closes the
	// platform clipboard inside every call, including on failure.
	mu sync.Mutex
}

// New returns the system clipboard provider, or a headless provider if the
// display environment is unavailable. clipboard.Init is called here rather
// than in init() so that the version sub-command does not touch the display.
func New() Provider {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return headless{}
	}
	return &systemProvider{}
}

func (p *systemProvider) Name() string { return "system clipboard" }

func (p *systemProvider) ReadText() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (p *systemProvider) WriteText(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Write returns a nil channel when the platform write failed.
	if changed := clipboard.Write(clipboard.FmtText, []byte(text)); changed == nil {
		return errors.New("clipboard write failed")
	}
	return nil
}
