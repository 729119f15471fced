//go:build !darwin && !windows && !linux

package clip

// New returns the headless provider; no system clipboard is supported here.
func New() Provider {
	return headless{}
}
