//go:build linux

package platform

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// xdotool drives an X11 (or XWayland) session.
type xdotool struct {
	bin string
}

// New returns the xdotool-backed injector and foreground provider, or the
// no-op pair when xdotool is not installed.
func New() (Injector, Foreground) {
	bin, err := exec.LookPath("xdotool")
	if err != nil {
		slog.Warn("xdotool not found, keystroke injection disabled", "err", err)
		return Noop{}, Noop{}
	}
	x := &xdotool{bin: bin}
	return x, x
}

func (x *xdotool) run(args ...string) (string, error) {
	out, err := exec.Command(x.bin, args...).Output()
	if err != nil {
		return "", fmt.Errorf("xdotool %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (x *xdotool) PasteCombo() error {
	_, err := x.run("key", "--clearmodifiers", "ctrl+v")
	return err
}

func (x *xdotool) Key(k Key, up bool) error {
	name := "Return"
	if k == KeyTab {
		name = "Tab"
	}
	verb := "keydown"
	if up {
		verb = "keyup"
	}
	_, err := x.run(verb, name)
	return err
}

func (x *xdotool) TypeRune(r rune) error {
	_, err := x.run("type", "--delay", "0", "--", string(r))
	return err
}

func (x *xdotool) Active() (App, error) {
	var app App
	title, err := x.run("getactivewindow", "getwindowname")
	if err != nil {
		return app, err
	}
	app.Title = title
	if pid, err := x.run("getactivewindow", "getwindowpid"); err == nil && pid != "" {
		if exe, err := os.Readlink(filepath.Join("/proc", pid, "exe")); err == nil {
			app.Exe = filepath.Base(exe)
		} else if comm, err := os.ReadFile(filepath.Join("/proc", pid, "comm")); err == nil {
			app.Exe = strings.TrimSpace(string(comm))
		}
	}
	return app, nil
}
