package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Action is a fixed, named operation a hotkey can trigger.
type Action string

const (
	SequentialPaste Action = "sequential_paste"
	PasteAll        Action = "paste_all"
	ToggleWindow    Action = "toggle_window"
	SkipItem        Action = "skip_item"
	GhostMode       Action = "ghost_mode"
)

// Actions lists every bindable action.
var Actions = []Action{SequentialPaste, PasteAll, ToggleWindow, SkipItem, GhostMode}

// DefaultBindings are the combos used when the config names none.
var DefaultBindings = map[Action]string{
	SequentialPaste: "Ctrl+Shift+V",
	PasteAll:        "Ctrl+Shift+A",
	ToggleWindow:    "Ctrl+Shift+C",
	SkipItem:        "Ctrl+Shift+S",
	GhostMode:       "Ctrl+Shift+G",
}

func validAction(a Action) bool {
	for _, x := range Actions {
		if x == a {
			return true
		}
	}
	return false
}

// Handle identifies one OS registration.
type Handle int

// Registrar is the OS global-hotkey capability.
type Registrar interface {
	Register(c Combo) (Handle, error)
	Unregister(h Handle) error
	// Triggered delivers the handle of each registration that fires.
	Triggered() <-chan Handle
}

type binding struct {
	combo  Combo
	handle Handle
}

// Dispatcher keeps at most one registration per action and turns OS
// triggers into Action events. It carries no business logic.
type Dispatcher struct {
	reg    Registrar
	events chan Action

	mu       sync.Mutex
	bindings map[Action]binding
	actions  map[Handle]Action
}

// NewDispatcher returns a Dispatcher over reg.
func NewDispatcher(reg Registrar) *Dispatcher {
	return &Dispatcher{
		reg:      reg,
		events:   make(chan Action, 8),
		bindings: make(map[Action]binding),
		actions:  make(map[Handle]Action),
	}
}

// Events delivers triggered actions.
func (d *Dispatcher) Events() <-chan Action { return d.events }

// Register binds action to combo. An unparsable combo fails without touching
// the existing binding. Otherwise any previous registration for the action
// is released first, so a refused combo leaves the action unbound.
func (d *Dispatcher) Register(action Action, combo string) error {
	if !validAction(action) {
		return fmt.Errorf("unknown hotkey action %q", action)
	}
	c, err := ParseCombo(combo)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.releaseLocked(action); err != nil {
		slog.Debug("hotkey release failed", "action", action, "err", err)
	}
	h, err := d.reg.Register(c)
	if err != nil {
		return fmt.Errorf("%w: %s for %s: %v", ErrUnavailable, c, action, err)
	}
	d.bindings[action] = binding{combo: c, handle: h}
	d.actions[h] = action
	return nil
}

// Unregister releases the action's registration, if any.
func (d *Dispatcher) Unregister(action Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.releaseLocked(action)
}

func (d *Dispatcher) releaseLocked(action Action) error {
	b, ok := d.bindings[action]
	if !ok {
		return nil
	}
	delete(d.bindings, action)
	delete(d.actions, b.handle)
	return d.reg.Unregister(b.handle)
}

// UnregisterAll releases every registration.
func (d *Dispatcher) UnregisterAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for a := range d.bindings {
		if err := d.releaseLocked(a); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a, err))
		}
	}
	return errors.Join(errs...)
}

// Bindings returns the active combo per action.
func (d *Dispatcher) Bindings() map[Action]Combo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[Action]Combo, len(d.bindings))
	for a, b := range d.bindings {
		out[a] = b.combo
	}
	return out
}

// RegisterAll binds every action in m and returns the failures keyed by
// action. Actions missing from m keep their current binding.
func (d *Dispatcher) RegisterAll(m map[Action]string) map[Action]error {
	failed := make(map[Action]error)
	for _, a := range Actions {
		combo, ok := m[a]
		if !ok || combo == "" {
			continue
		}
		if err := d.Register(a, combo); err != nil {
			failed[a] = err
		}
	}
	return failed
}

// Run forwards OS triggers as actions until ctx is cancelled. Triggers for
// handles that were released in the meantime are dropped.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case h, ok := <-d.reg.Triggered():
			if !ok {
				return
			}
			d.mu.Lock()
			a, known := d.actions[h]
			d.mu.Unlock()
			if !known {
				continue
			}
			select {
			case d.events <- a:
			case <-ctx.Done():
				return
			}
		}
	}
}
