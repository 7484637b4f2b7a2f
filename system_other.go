//go:build !windows

package overlay

// NewWindowSystem returns ErrUnsupported: the tray overlay only has a
// native binding on Windows. Callers fall back to a HeadlessSystem.
func NewWindowSystem() (WindowSystem, error) {
	return nil, ErrUnsupported
}
