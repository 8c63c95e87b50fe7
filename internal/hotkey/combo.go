// Package hotkey binds named actions to global key combinations and delivers
// an action event whenever one fires, whichever window has focus.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCombo means a combo string does not name exactly one key
	// plus known modifiers.
	ErrInvalidCombo = errors.New("invalid hotkey combo")
	// ErrUnavailable means the OS refused the registration, usually because
	// another process already owns the combo.
	ErrUnavailable = errors.New("hotkey unavailable")
)

// Modifiers is a set of modifier keys.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModShift
	ModAlt
	ModSuper // Win on Windows, Cmd on macOS, Mod4 on X11
)

var modifierNames = map[string]Modifiers{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"SHIFT":   ModShift,
	"ALT":     ModAlt,
	"OPTION":  ModAlt,
	"WIN":     ModSuper,
	"SUPER":   ModSuper,
	"CMD":     ModSuper,
	"META":    ModSuper,
}

var keyAliases = map[string]string{
	"RETURN": "ENTER",
	"ESC":    "ESCAPE",
	"DEL":    "DELETE",
}

// keyNames is every key a combo may end with.
var keyNames = func() map[string]bool {
	m := map[string]bool{
		"SPACE": true, "ENTER": true, "TAB": true, "ESCAPE": true, "DELETE": true,
		"LEFT": true, "RIGHT": true, "UP": true, "DOWN": true,
	}
	for c := 'A'; c <= 'Z'; c++ {
		m[string(c)] = true
	}
	for c := '0'; c <= '9'; c++ {
		m[string(c)] = true
	}
	for i := 1; i <= 12; i++ {
		m[fmt.Sprintf("F%d", i)] = true
	}
	return m
}()

// Combo is a parsed key combination.
type Combo struct {
	Mods Modifiers
	Key  string // canonical upper-case key name, e.g. "V", "F5", "ENTER"
}

// ParseCombo parses strings like "Ctrl+Shift+V". Tokens are
// case-insensitive. Exactly one token must be a key; every other token must
// be a modifier.
func ParseCombo(s string) (Combo, error) {
	var c Combo
	for _, tok := range strings.Split(s, "+") {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if m, ok := modifierNames[tok]; ok {
			c.Mods |= m
			continue
		}
		if a, ok := keyAliases[tok]; ok {
			tok = a
		}
		switch {
		case !keyNames[tok]:
			return Combo{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidCombo, tok, s)
		case c.Key != "":
			return Combo{}, fmt.Errorf("%w: %q names two keys", ErrInvalidCombo, s)
		}
		c.Key = tok
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("%w: %q", ErrInvalidCombo, s)
	}
	return c, nil
}

func (c Combo) String() string {
	var parts []string
	if c.Mods&ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if c.Mods&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if c.Mods&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if c.Mods&ModSuper != 0 {
		parts = append(parts, "Win")
	}
	key := c.Key
	if len(key) > 1 && key[0] != 'F' {
		key = key[:1] + strings.ToLower(key[1:])
	}
	return strings.Join(append(parts, key), "+")
}
