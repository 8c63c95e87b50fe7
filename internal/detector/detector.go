// Package detector watches the clipboard revision counter and turns each
// genuine change into typed capture items.
package detector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/magclip/internal/classify"
	"go.klb.dev/magclip/internal/clip"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/platform"
)

// Source is the read half of a clipboard backend.
type Source interface {
	Revision() (uint64, error)
	Read() (clip.Content, error)
}

// Detector polls a Source. A change is recognised only when the revision
// counter differs from the last value seen; while paused or in ghost mode
// the counter is still tracked but nothing is emitted, so no backlog builds
// up. Every per-poll failure is logged at debug and treated as no capture.
type Detector struct {
	src        Source
	classifier *classify.Classifier
	fg         platform.Foreground
	interval   time.Duration
	out        chan item.Item
	now        func() time.Time

	mu       sync.Mutex
	last     uint64
	paused   int
	ghost    bool
	denylist []string
}

// New returns a Detector whose baseline is the current revision, so content
// already on the clipboard at startup is not captured.
func New(src Source, c *classify.Classifier, fg platform.Foreground, interval time.Duration) *Detector {
	if fg == nil {
		fg = platform.Noop{}
	}
	d := &Detector{
		src:        src,
		classifier: c,
		fg:         fg,
		interval:   interval,
		out:        make(chan item.Item, 16),
		now:        time.Now,
	}
	if rev, err := src.Revision(); err == nil {
		d.last = rev
	}
	return d
}

// Events delivers captured items. Run closes it on return.
func (d *Detector) Events() <-chan item.Item { return d.out }

// Pause suppresses captures until the matching Resume. Calls nest.
func (d *Detector) Pause() {
	d.mu.Lock()
	d.paused++
	d.mu.Unlock()
}

// Resume undoes one Pause.
func (d *Detector) Resume() {
	d.mu.Lock()
	if d.paused > 0 {
		d.paused--
	}
	d.mu.Unlock()
}

// Paused reports whether at least one Pause is outstanding.
func (d *Detector) Paused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused > 0
}

// SetGhost turns capture suspension on or off.
func (d *Detector) SetGhost(on bool) {
	d.mu.Lock()
	d.ghost = on
	d.mu.Unlock()
}

// Ghost reports whether capture is suspended.
func (d *Detector) Ghost() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ghost
}

// SetDenylist replaces the application patterns whose copies are ignored.
func (d *Detector) SetDenylist(patterns []string) {
	d.mu.Lock()
	d.denylist = append([]string(nil), patterns...)
	d.mu.Unlock()
}

// Poll checks the clipboard once and returns the items of a new capture,
// or nil when nothing should be captured.
func (d *Detector) Poll() []item.Item {
	rev, err := d.src.Revision()
	if err != nil {
		slog.Debug("clipboard revision unavailable", "err", err)
		return nil
	}

	d.mu.Lock()
	if rev == d.last {
		d.mu.Unlock()
		return nil
	}
	d.last = rev
	suppressed := d.paused > 0 || d.ghost
	deny := d.denylist
	d.mu.Unlock()

	if suppressed {
		return nil
	}

	content, err := d.src.Read()
	if err != nil {
		slog.Debug("clipboard read failed", "rev", rev, "err", err)
		return nil
	}
	if content.Empty() {
		return nil
	}

	app, err := d.fg.Active()
	if err != nil {
		slog.Debug("foreground lookup failed", "err", err)
		app = platform.App{}
	}
	if app.Matches(deny) {
		slog.Debug("capture suppressed by denylist", "app", app.Name())
		return nil
	}

	items := d.classifier.Classify(content)
	now := d.now()
	for i := range items {
		items[i].SourceApp = app.Name()
		items[i].CreatedAt = now
	}
	return items
}

// Run polls until ctx is cancelled.
func (d *Detector) Run(ctx context.Context) {
	defer close(d.out)

	t := time.NewTicker(d.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		for _, it := range d.poll() {
			select {
			case d.out <- it:
			case <-ctx.Done():
				return
			}
		}
	}
}

// poll wraps Poll so a panic in a capability never stops the loop.
func (d *Detector) poll() (items []item.Item) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("clipboard poll panicked", "panic", r)
			items = nil
		}
	}()
	return d.Poll()
}
