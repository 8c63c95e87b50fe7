// Package ghost types text into the focused window one character at a time,
// for targets that block clipboard paste.
package ghost

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/magclip/internal/platform"
)

// ErrBusy is returned by Type while a previous run is still typing.
var ErrBusy = errors.New("already typing")

// Result describes a finished run.
type Result struct {
	Typed   int
	Total   int
	Aborted bool
	Err     error
}

// Hooks receive run notifications on the typing goroutine.
type Hooks struct {
	Progress func(done, total int)
	Finished func(Result)
}

// Typer runs at most one typing job at a time.
type Typer struct {
	inj   platform.Injector
	hooks Hooks

	mu      sync.Mutex
	running bool
	abort   atomic.Bool
}

// New returns a Typer that sends keystrokes through inj.
func New(inj platform.Injector, hooks Hooks) *Typer {
	return &Typer{inj: inj, hooks: hooks}
}

// Typing reports whether a run is in progress.
func (t *Typer) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Abort asks the current run to stop before its next character.
func (t *Typer) Abort() { t.abort.Store(true) }

// Type starts typing text with delay between characters and returns
// immediately. Newlines are sent as Enter; carriage returns are skipped.
func (t *Typer) Type(text string, delay time.Duration) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrBusy
	}
	t.running = true
	t.abort.Store(false)
	t.mu.Unlock()

	go t.run([]rune(text), delay)
	return nil
}

func (t *Typer) run(runes []rune, delay time.Duration) {
	res := Result{Total: len(runes)}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("ghost typing panicked: %v", r)
		}
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		if t.hooks.Finished != nil {
			t.hooks.Finished(res)
		}
	}()

	for i, r := range runes {
		if t.abort.Load() {
			res.Aborted = true
			return
		}
		if err := t.typeRune(r); err != nil {
			res.Err = fmt.Errorf("type character %d: %w", i, err)
			return
		}
		res.Typed = i + 1
		if t.hooks.Progress != nil {
			t.hooks.Progress(res.Typed, res.Total)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
}

func (t *Typer) typeRune(r rune) error {
	switch r {
	case '\r':
		return nil
	case '\n':
		if err := t.inj.Key(platform.KeyEnter, false); err != nil {
			return err
		}
		return t.inj.Key(platform.KeyEnter, true)
	}
	return t.inj.TypeRune(r)
}
