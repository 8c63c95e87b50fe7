//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// osascript drives System Events. It needs the Accessibility permission.
type osascript struct{}

// New returns the System Events injector and foreground provider.
func New() (Injector, Foreground) {
	return osascript{}, osascript{}
}

func runScript(script string) (string, error) {
	out, err := exec.Command("osascript", "-e", script).Output()
	if err != nil {
		return "", fmt.Errorf("osascript: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (osascript) PasteCombo() error {
	_, err := runScript(`tell application "System Events" to keystroke "v" using command down`)
	return err
}

// Key sends the whole press on the down transition; System Events has no
// separate key-up for ordinary keys.
func (osascript) Key(k Key, up bool) error {
	if up {
		return nil
	}
	code := 36
	if k == KeyTab {
		code = 48
	}
	_, err := runScript(fmt.Sprintf(`tell application "System Events" to key code %d`, code))
	return err
}

func (osascript) TypeRune(r rune) error {
	if r == '\n' {
		_, err := runScript(`tell application "System Events" to key code 36`)
		return err
	}
	_, err := runScript(`tell application "System Events" to keystroke ` + strconv.Quote(string(r)))
	return err
}

func (osascript) Active() (App, error) {
	name, err := runScript(`tell application "System Events" to get name of first application process whose frontmost is true`)
	if err != nil {
		return App{}, err
	}
	app := App{Exe: name}
	if title, err := runScript(`tell application "System Events" to get name of front window of (first application process whose frontmost is true)`); err == nil {
		app.Title = title
	}
	return app, nil
}
