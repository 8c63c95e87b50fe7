package ghost

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/magclip/internal/platform"
)

type recorder struct {
	mu    sync.Mutex
	out   []string
	gate  chan struct{}
	fail  error
	typed chan struct{}
}

func (r *recorder) PasteCombo() error { return nil }

func (r *recorder) Key(k platform.Key, up bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if up {
		r.out = append(r.out, k.String()+"↑")
	} else {
		r.out = append(r.out, k.String()+"↓")
	}
	return nil
}

func (r *recorder) TypeRune(c rune) error {
	if r.typed != nil {
		r.typed <- struct{}{}
	}
	if r.gate != nil {
		<-r.gate
	}
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, string(c))
	return nil
}

func (r *recorder) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.out...)
}

func runAndWait(t *testing.T, inj platform.Injector, text string) (Result, [][2]int) {
	t.Helper()
	done := make(chan Result, 1)
	var progress [][2]int
	typer := New(inj, Hooks{
		Progress: func(d, n int) { progress = append(progress, [2]int{d, n}) },
		Finished: func(r Result) { done <- r },
	})
	require.NoError(t, typer.Type(text, 0))
	select {
	case r := <-done:
		return r, progress
	case <-time.After(2 * time.Second):
		t.Fatal("typing never finished")
	}
	return Result{}, nil
}

func TestTypeSendsEnterForNewline(t *testing.T) {
	rec := &recorder{}
	res, progress := runAndWait(t, rec, "a\r\nb")

	assert.Equal(t, []string{"a", "enter↓", "enter↑", "b"}, rec.keys())
	assert.Equal(t, Result{Typed: 4, Total: 4}, res)
	assert.Len(t, progress, 4)
	assert.Equal(t, [2]int{4, 4}, progress[3])
}

func TestTypeReportsInjectorError(t *testing.T) {
	rec := &recorder{fail: errors.New("blocked")}
	res, _ := runAndWait(t, rec, "xyz")
	require.Error(t, res.Err)
	assert.Zero(t, res.Typed)
}

func TestBusyAndAbort(t *testing.T) {
	rec := &recorder{gate: make(chan struct{}), typed: make(chan struct{}, 8)}
	done := make(chan Result, 1)
	typer := New(rec, Hooks{Finished: func(r Result) { done <- r }})

	require.NoError(t, typer.Type("hello", 0))
	<-rec.typed
	assert.True(t, typer.Typing())
	assert.ErrorIs(t, typer.Type("again", 0), ErrBusy)

	typer.Abort()
	rec.gate <- struct{}{} // let the first character finish

	select {
	case r := <-done:
		assert.True(t, r.Aborted)
		assert.Equal(t, 1, r.Typed)
		assert.Equal(t, 5, r.Total)
	case <-time.After(2 * time.Second):
		t.Fatal("abort not honoured")
	}
	require.Eventually(t, func() bool { return !typer.Typing() }, time.Second, 5*time.Millisecond)

	close(rec.gate)
	require.NoError(t, typer.Type("ok", 0), "typer is reusable after a run")
}
