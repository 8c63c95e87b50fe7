// Package ipc provides the local control channel between the magclip daemon
// and its CLI commands: a Unix domain socket on Linux and macOS, a named pipe
// on Windows. Messages on it are framed by package wire.
package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// ErrRunning is returned by Listen when another daemon already owns the socket.
var ErrRunning = errors.New("ipc: a daemon is already listening")

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/magclip.sock, else $TMPDIR/magclip.sock
//   - macOS:   $TMPDIR/magclip.sock
//   - Windows: \\.\pipe\magclip
//
// $MAGCLIP_SOCKET overrides all of them.
func SocketPath() string {
	if s := os.Getenv("MAGCLIP_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on the IPC
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := dialIPC(SocketPath(), time.Second)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on the IPC socket. A stale socket left by a
// crashed run is replaced; a live one yields ErrRunning.
func Listen() (net.Listener, error) {
	if IsRunning() {
		return nil, ErrRunning
	}
	path := SocketPath()
	ln, err := listenIPC(path)
	if err != nil {
		return nil, fmt.Errorf("ipc listen %s: %w", path, err)
	}
	return ln, nil
}

// Dial connects to the daemon.
func Dial(timeout time.Duration) (net.Conn, error) {
	path := SocketPath()
	c, err := dialIPC(path, timeout)
	if err != nil {
		return nil, fmt.Errorf("ipc dial %s: %w (is the daemon running?)", path, err)
	}
	return c, nil
}
