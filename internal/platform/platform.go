// Package platform provides the keystroke-injection and foreground-window
// capabilities the paste orchestrator and the detector consume. Build
// constraints select the implementation:
//
//	platform_windows.go: SendInput with scan codes, Win32 foreground window
//	platform_linux.go: xdotool
//	platform_darwin.go: osascript / System Events
//	platform_other.go: no-op
package platform

import "strings"

// Key is a logical key the orchestrator can press after a paste.
type Key int

const (
	KeyEnter Key = iota + 1
	KeyTab
)

func (k Key) String() string {
	switch k {
	case KeyEnter:
		return "enter"
	case KeyTab:
		return "tab"
	}
	return "unknown"
}

// Injector simulates keyboard input into whatever window has focus.
type Injector interface {
	// PasteCombo sends the platform paste shortcut (Ctrl+V or Cmd+V).
	PasteCombo() error
	// Key sends a single key transition.
	Key(k Key, up bool) error
	// TypeRune types one character as if from the keyboard.
	TypeRune(r rune) error
}

// App identifies the foreground application.
type App struct {
	Exe   string // executable base name, may be empty
	Title string // window title, may be empty
}

// Name is the executable name, falling back to the window title.
func (a App) Name() string {
	if a.Exe != "" {
		return a.Exe
	}
	return a.Title
}

// Matches reports whether any of the patterns is a case-insensitive
// substring of the executable name or window title.
func (a App) Matches(patterns []string) bool {
	hay := strings.ToLower(a.Exe + " " + a.Title)
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(hay, p) {
			return true
		}
	}
	return false
}

// Foreground reports the application that currently has focus.
type Foreground interface {
	Active() (App, error)
}

// Noop is an Injector and Foreground that does nothing. It backs headless
// runs where no desktop session is available.
type Noop struct{}

func (Noop) PasteCombo() error    { return nil }
func (Noop) Key(Key, bool) error  { return nil }
func (Noop) TypeRune(rune) error  { return nil }
func (Noop) Active() (App, error) { return App{}, nil }
