//go:build !windows && !(darwin && cgo) && !(linux && cgo && hotkey_x11)

package hotkey

// System has no global hotkey backend in this build. Linux builds get the
// X11 backend with -tags hotkey_x11; it is opt-in because the X11 library
// aborts the process at startup when no display is reachable.
type System = Unavailable

func NewSystem() *System { return NewUnavailable() }
