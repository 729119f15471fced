// Package clip provides text access to the system clipboard. Build
// constraints select the implementation:
//
//	clip_system.go   — linux, darwin, windows via golang.design/x/clipboard
//	clip_other.go    — everything else, headless only
//
// A headless provider is returned when the display environment is not
// available (no X11/Wayland, CGO disabled, containers).
package clip

import "errors"

// ErrUnavailable is returned by the headless provider for every operation.
var ErrUnavailable = errors.New("clipboard unavailable")

// Provider is the clipboard capability the relay consumes. Both calls may
// fail; callers report the failure and carry on.
type Provider interface {
	// Name returns a human-readable name for the provider.
	Name() string

	// ReadText returns the current clipboard text. An empty clipboard, or one
	// holding only non-text data, yields "", nil.
	ReadText() (string, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error
}

// headless never has content and refuses every write.
type headless struct{}

func (headless) Name() string              { return "headless (no-op)" }
func (headless) ReadText() (string, error) { return "", ErrUnavailable }
func (headless) WriteText(_ string) error  { return ErrUnavailable }
