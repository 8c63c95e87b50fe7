package hotkey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	mu       sync.Mutex
	next     Handle
	active   map[Handle]Combo
	refuse   map[Combo]bool
	released []Handle
	trigger  chan Handle
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{
		active:  make(map[Handle]Combo),
		refuse:  make(map[Combo]bool),
		trigger: make(chan Handle, 4),
	}
}

func (f *fakeRegistrar) Register(c Combo) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse[c] {
		return 0, errors.New("already grabbed")
	}
	f.next++
	f.active[f.next] = c
	return f.next, nil
}

func (f *fakeRegistrar) Unregister(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, h)
	f.released = append(f.released, h)
	return nil
}

func (f *fakeRegistrar) Triggered() <-chan Handle { return f.trigger }

func (f *fakeRegistrar) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in   string
		want Combo
	}{
		{"Ctrl+Shift+V", Combo{ModCtrl | ModShift, "V"}},
		{"control + alt + f5", Combo{ModCtrl | ModAlt, "F5"}},
		{"Win+Return", Combo{ModSuper, "ENTER"}},
		{"cmd+shift+esc", Combo{ModSuper | ModShift, "ESCAPE"}},
		{"9", Combo{0, "9"}},
	}
	for _, tt := range tests {
		got, err := ParseCombo(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{
		"", "Ctrl+Shift", "Ctrl+Foo", "+++",
		"Ctrl+Shfit+V",     // misspelt modifier
		"Ctrl+A+B",         // two keys
		"Ctrl+Shift+Foo+V", // unknown token before the key
		"V+Ctrl+Esc",
	} {
		_, err := ParseCombo(bad)
		assert.ErrorIs(t, err, ErrInvalidCombo, bad)
	}
}

func TestComboString(t *testing.T) {
	c, err := ParseCombo("shift+ctrl+enter")
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Shift+Enter", c.String())
	c, _ = ParseCombo("alt+f12")
	assert.Equal(t, "Alt+F12", c.String())
}

func TestDefaultBindingsParse(t *testing.T) {
	for _, a := range Actions {
		_, err := ParseCombo(DefaultBindings[a])
		assert.NoError(t, err, a)
	}
}

func TestRegisterRebindsReleasingPrevious(t *testing.T) {
	reg := newFakeRegistrar()
	d := NewDispatcher(reg)

	require.NoError(t, d.Register(SequentialPaste, "Ctrl+Shift+V"))
	require.NoError(t, d.Register(SequentialPaste, "Ctrl+Alt+V"))

	assert.Equal(t, 1, reg.count(), "at most one registration per action")
	assert.Equal(t, []Handle{1}, reg.released)
	assert.Equal(t, Combo{ModCtrl | ModAlt, "V"}, d.Bindings()[SequentialPaste])
}

func TestRegisterInvalidComboHasNoSideEffects(t *testing.T) {
	reg := newFakeRegistrar()
	d := NewDispatcher(reg)
	require.NoError(t, d.Register(SkipItem, "Ctrl+Shift+S"))

	err := d.Register(SkipItem, "Ctrl+Nope")
	require.ErrorIs(t, err, ErrInvalidCombo)
	assert.Empty(t, reg.released)
	assert.Contains(t, d.Bindings(), SkipItem)
}

func TestRegisterRefusedByOS(t *testing.T) {
	reg := newFakeRegistrar()
	reg.refuse[Combo{ModCtrl | ModShift, "A"}] = true
	d := NewDispatcher(reg)

	err := d.Register(PasteAll, "Ctrl+Shift+A")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.NotContains(t, d.Bindings(), PasteAll)

	assert.Error(t, d.Register(Action("bogus"), "Ctrl+B"))
}

func TestRegisterAllAndUnregisterAll(t *testing.T) {
	reg := newFakeRegistrar()
	reg.refuse[Combo{ModCtrl | ModShift, "G"}] = true
	d := NewDispatcher(reg)

	failed := d.RegisterAll(DefaultBindings)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[GhostMode], ErrUnavailable)
	assert.Equal(t, 4, reg.count())

	require.NoError(t, d.UnregisterAll())
	assert.Zero(t, reg.count())
	assert.Empty(t, d.Bindings())
}

func TestRunDispatchesActions(t *testing.T) {
	reg := newFakeRegistrar()
	d := NewDispatcher(reg)
	require.NoError(t, d.Register(SequentialPaste, "Ctrl+Shift+V"))
	require.NoError(t, d.Register(SkipItem, "Ctrl+Shift+S"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	reg.trigger <- 99 // unknown handle is dropped
	reg.trigger <- 2
	reg.trigger <- 1

	want := []Action{SkipItem, SequentialPaste}
	for _, w := range want {
		select {
		case got := <-d.Events():
			assert.Equal(t, w, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("no event for %s", w)
		}
	}
}

func TestRunKeepsEveryTriggerInABurst(t *testing.T) {
	reg := newFakeRegistrar()
	d := NewDispatcher(reg)
	require.NoError(t, d.Register(SequentialPaste, "Ctrl+Shift+V"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	const presses = 40
	go func() {
		for i := 0; i < presses; i++ {
			reg.trigger <- 1
		}
	}()

	for i := 0; i < presses; i++ {
		if i%10 == 0 {
			time.Sleep(20 * time.Millisecond) // slow consumer
		}
		select {
		case got := <-d.Events():
			assert.Equal(t, SequentialPaste, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("press %d lost", i)
		}
	}
}

func TestUnavailableRefusesEverything(t *testing.T) {
	d := NewDispatcher(NewUnavailable())
	failed := d.RegisterAll(DefaultBindings)
	assert.Len(t, failed, len(Actions))
	for _, err := range failed {
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Empty(t, d.Bindings())
	require.NoError(t, d.UnregisterAll())
}
