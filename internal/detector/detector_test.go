package detector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/magclip/internal/classify"
	"go.klb.dev/magclip/internal/clip"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/platform"
)

type fakeForeground struct {
	app platform.App
	err error
}

func (f *fakeForeground) Active() (platform.App, error) { return f.app, f.err }

func newDetector(t *testing.T) (*Detector, *clip.Memory, *fakeForeground) {
	t.Helper()
	mem := clip.NewMemory()
	fg := &fakeForeground{app: platform.App{Exe: "editor", Title: "notes"}}
	c := &classify.Classifier{Stat: func(string) bool { return false }}
	return New(mem, c, fg, 5*time.Millisecond), mem, fg
}

func TestStartupContentIgnored(t *testing.T) {
	mem := clip.NewMemory()
	mem.Set(clip.Content{Text: "already there"})
	d := New(mem, classify.New(), nil, time.Millisecond)
	assert.Nil(t, d.Poll())
}

func TestOneEventPerRevision(t *testing.T) {
	d, mem, _ := newDetector(t)

	assert.Nil(t, d.Poll(), "no change yet")

	mem.Set(clip.Content{Text: "hello"})
	items := d.Poll()
	require.Len(t, items, 1)
	assert.Equal(t, item.KindText, items[0].Kind)
	assert.Equal(t, "hello", items[0].Payload)
	assert.Equal(t, "editor", items[0].SourceApp)
	assert.False(t, items[0].CreatedAt.IsZero())

	for i := 0; i < 5; i++ {
		assert.Nil(t, d.Poll(), "same revision must not emit again")
	}

	mem.Bump()
	items = d.Poll()
	require.Len(t, items, 1, "identical content with an advanced counter is a new copy")
	assert.Equal(t, "hello", items[0].Payload)
}

func TestPauseAdvancesCounterSilently(t *testing.T) {
	d, mem, _ := newDetector(t)

	d.Pause()
	d.Pause()
	assert.True(t, d.Paused())
	require.NoError(t, mem.WriteText("own write"))
	assert.Nil(t, d.Poll())

	d.Resume()
	assert.True(t, d.Paused(), "pauses nest")
	d.Resume()
	d.Resume()
	assert.False(t, d.Paused())

	assert.Nil(t, d.Poll(), "write seen while paused is not replayed")

	mem.Set(clip.Content{Text: "external"})
	require.Len(t, d.Poll(), 1)
}

func TestGhostMode(t *testing.T) {
	d, mem, _ := newDetector(t)
	d.SetGhost(true)
	assert.True(t, d.Ghost())

	mem.Set(clip.Content{Text: "secret"})
	assert.Nil(t, d.Poll())

	d.SetGhost(false)
	assert.Nil(t, d.Poll())
	mem.Set(clip.Content{Text: "visible"})
	require.Len(t, d.Poll(), 1)
}

func TestDenylist(t *testing.T) {
	d, mem, fg := newDetector(t)
	d.SetDenylist([]string{"KeePass"})

	fg.app = platform.App{Exe: "keepassxc", Title: "Database"}
	mem.Set(clip.Content{Text: "hunter2"})
	assert.Nil(t, d.Poll())

	fg.app = platform.App{Exe: "browser"}
	mem.Set(clip.Content{Text: "fine"})
	require.Len(t, d.Poll(), 1)
}

func TestFailuresAreSwallowed(t *testing.T) {
	d, mem, fg := newDetector(t)

	mem.FailReads(errors.New("clipboard locked"))
	mem.Set(clip.Content{Text: "lost"})
	assert.Nil(t, d.Poll())
	mem.FailReads(nil)

	fg.err = errors.New("no window")
	fg.app = platform.App{}
	mem.Set(clip.Content{Text: "kept"})
	items := d.Poll()
	require.Len(t, items, 1)
	assert.Empty(t, items[0].SourceApp)
}

func TestMultipleFiles(t *testing.T) {
	d, mem, _ := newDetector(t)
	mem.Set(clip.Content{Files: []string{"/a.txt", "/b.txt"}, Text: "/a.txt\n/b.txt"})
	items := d.Poll()
	require.Len(t, items, 2)
	assert.Equal(t, item.KindFile, items[0].Kind)
	assert.Equal(t, "/b.txt", items[1].Payload)
}

func TestRunEmits(t *testing.T) {
	d, mem, _ := newDetector(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	mem.Set(clip.Content{Text: "#fff"})
	select {
	case it := <-d.Events():
		assert.Equal(t, item.KindColor, it.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no capture event")
	}

	cancel()
	<-done
	_, open := <-d.Events()
	assert.False(t, open)
}
