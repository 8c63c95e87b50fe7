//go:build linux && cgo && hotkey_x11

package hotkey

import "golang.design/x/hotkey"

// X11 maps Alt to Mod1 and Super to Mod4 on practically every keymap.
func sysModifiers(m Modifiers) []hotkey.Modifier {
	var out []hotkey.Modifier
	if m&ModCtrl != 0 {
		out = append(out, hotkey.ModCtrl)
	}
	if m&ModShift != 0 {
		out = append(out, hotkey.ModShift)
	}
	if m&ModAlt != 0 {
		out = append(out, hotkey.Mod1)
	}
	if m&ModSuper != 0 {
		out = append(out, hotkey.Mod4)
	}
	return out
}
