//go:build windows || (darwin && cgo) || (linux && cgo && hotkey_x11)

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

var sysKeys = func() map[string]hotkey.Key {
	m := map[string]hotkey.Key{
		"SPACE":  hotkey.KeySpace,
		"ENTER":  hotkey.KeyReturn,
		"TAB":    hotkey.KeyTab,
		"ESCAPE": hotkey.KeyEscape,
		"DELETE": hotkey.KeyDelete,
		"LEFT":   hotkey.KeyLeft,
		"RIGHT":  hotkey.KeyRight,
		"UP":     hotkey.KeyUp,
		"DOWN":   hotkey.KeyDown,
		"F1":     hotkey.KeyF1,
		"F2":     hotkey.KeyF2,
		"F3":     hotkey.KeyF3,
		"F4":     hotkey.KeyF4,
		"F5":     hotkey.KeyF5,
		"F6":     hotkey.KeyF6,
		"F7":     hotkey.KeyF7,
		"F8":     hotkey.KeyF8,
		"F9":     hotkey.KeyF9,
		"F10":    hotkey.KeyF10,
		"F11":    hotkey.KeyF11,
		"F12":    hotkey.KeyF12,
	}
	letters := []hotkey.Key{
		hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
		hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
		hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
		hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
		hotkey.KeyY, hotkey.KeyZ,
	}
	for i, k := range letters {
		m[string(rune('A'+i))] = k
	}
	digits := []hotkey.Key{
		hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
		hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
	}
	for i, k := range digits {
		m[string(rune('0'+i))] = k
	}
	return m
}()

// System registers combos with the OS through golang.design/x/hotkey.
// On macOS the process must run its main function under mainthread.Init.
type System struct {
	mu      sync.Mutex
	next    Handle
	keys    map[Handle]*registration
	trigger chan Handle
}

type registration struct {
	hk   *hotkey.Hotkey
	done chan struct{}
}

// NewSystem returns the OS registrar.
func NewSystem() *System {
	return &System{
		keys:    make(map[Handle]*registration),
		trigger: make(chan Handle, 8),
	}
}

func (s *System) Triggered() <-chan Handle { return s.trigger }

func (s *System) Register(c Combo) (Handle, error) {
	key, ok := sysKeys[c.Key]
	if !ok {
		return 0, fmt.Errorf("%w: no key code for %s", ErrInvalidCombo, c.Key)
	}
	hk := hotkey.New(sysModifiers(c.Mods), key)
	if err := hk.Register(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.next++
	h := s.next
	r := &registration{hk: hk, done: make(chan struct{})}
	s.keys[h] = r
	s.mu.Unlock()

	go s.forward(h, r)
	return h, nil
}

func (s *System) forward(h Handle, r *registration) {
	for {
		select {
		case <-r.done:
			return
		case _, ok := <-r.hk.Keydown():
			if !ok {
				return
			}
			select {
			case s.trigger <- h:
			case <-r.done:
				return
			}
		}
	}
}

func (s *System) Unregister(h Handle) error {
	s.mu.Lock()
	r, ok := s.keys[h]
	delete(s.keys, h)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	close(r.done)
	return r.hk.Unregister()
}
