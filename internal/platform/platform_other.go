//go:build !windows && !linux && !darwin

package platform

// New returns the no-op injector and foreground provider; this platform has
// no supported input synthesis.
func New() (Injector, Foreground) {
	return Noop{}, Noop{}
}
