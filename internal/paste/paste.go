// Package paste drives sequential paste: it takes the magazine's current
// item, writes it to the clipboard with the detector paused, and injects a
// paste keystroke into the focused window.
//
// A single goroutine (Run) owns the busy flag, the queued-request counter,
// and the batch flag. Callers only ever send it messages, so a trigger never
// blocks on a cycle in flight and two cycles never overlap.
package paste

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.klb.dev/magclip/internal/clip"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/platform"
	"go.klb.dev/magclip/internal/safetynet"
	"go.klb.dev/magclip/internal/textclean"
)

// Queue is the replay order the orchestrator consumes.
type Queue interface {
	Fire() (*item.Item, bool)
	Remaining() int
}

// Pauser hides the orchestrator's own clipboard writes from the detector.
// Every Pause is matched by exactly one Resume.
type Pauser interface {
	Pause()
	Resume()
}

// Clipboard is the part of a backend the orchestrator needs.
type Clipboard interface {
	clip.Writer
	Read() (clip.Content, error)
}

// Timings are the empirically tuned delays of the pause/write/inject
// protocol.
type Timings struct {
	Settle        time.Duration // clipboard write -> paste keystroke
	AfterInject   time.Duration // paste keystroke -> cycle complete
	Resume        time.Duration // cycle complete -> detector resumes
	DirectResume  time.Duration // direct clipboard write -> detector resumes
	BatchInterval time.Duration // between paste-all items
	KeyGap        time.Duration // around the auto Enter/Tab key press
}

// DefaultTimings returns the delays used when the config sets none.
func DefaultTimings() Timings {
	return Timings{
		Settle:        30 * time.Millisecond,
		AfterInject:   60 * time.Millisecond,
		Resume:        200 * time.Millisecond,
		DirectResume:  500 * time.Millisecond,
		BatchInterval: 100 * time.Millisecond,
		KeyGap:        10 * time.Millisecond,
	}
}

// Options are the user-facing paste toggles.
type Options struct {
	StripFormatting bool
	AutoEnter       bool // takes precedence over AutoTab
	AutoTab         bool
}

// State is a snapshot of the state machine.
type State struct {
	Busy   bool `json:"busy"`
	Queued int  `json:"queued"`
	Batch  bool `json:"batch"`
}

// EventType names an orchestrator notification.
type EventType string

const (
	EventPasted       EventType = "pasted"
	EventFailed       EventType = "paste_failed"
	EventEmpty        EventType = "queue_empty"
	EventBatchStarted EventType = "batch_started"
	EventBatchStopped EventType = "batch_stopped"
)

// Event is delivered to Config.OnEvent from the orchestrator goroutine.
// Handlers must not block.
type Event struct {
	Type EventType
	Item *item.Item
	Err  error
}

// Config wires an Orchestrator to its collaborators. Net may be nil.
type Config struct {
	Queue     Queue
	Clipboard Clipboard
	Injector  platform.Injector
	Pauser    Pauser
	Net       *safetynet.Net
	Timings   Timings
	Options   Options
	OnEvent   func(Event)
}

type msgKind int

const (
	msgTrigger msgKind = iota
	msgPasteAll
	msgStop
	msgDone
	msgBatchNext
)

type message struct {
	kind msgKind
	item *item.Item
	err  error
}

// Orchestrator is the paste state machine.
type Orchestrator struct {
	cfg     Config
	in      chan message
	stopped chan struct{}

	// owned by Run
	busy       bool
	queued     int
	batch      bool
	batchTimer *time.Timer

	mu    sync.Mutex
	opts  Options
	state State
}

// New returns an Orchestrator. Nothing happens until Run is started.
func New(cfg Config) *Orchestrator {
	if cfg.Injector == nil {
		cfg.Injector = platform.Noop{}
	}
	if cfg.OnEvent == nil {
		cfg.OnEvent = func(Event) {}
	}
	return &Orchestrator{
		cfg:     cfg,
		in:      make(chan message, 64),
		stopped: make(chan struct{}),
		opts:    cfg.Options,
	}
}

// Trigger requests one sequential-paste cycle. While a cycle is in flight
// the request is counted and served when the cycle completes.
func (o *Orchestrator) Trigger() { o.send(message{kind: msgTrigger}) }

// PasteAll starts a batch, or stops the running one.
func (o *Orchestrator) PasteAll() { o.send(message{kind: msgPasteAll}) }

// Stop ends a running batch. A cycle already dispatched still completes.
func (o *Orchestrator) Stop() { o.send(message{kind: msgStop}) }

// Skip advances the queue without touching the clipboard.
func (o *Orchestrator) Skip() (*item.Item, bool) { return o.cfg.Queue.Fire() }

// State returns the most recent state snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Options returns the current paste toggles.
func (o *Orchestrator) Options() Options {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opts
}

// SetOptions replaces the paste toggles; the next cycle uses them.
func (o *Orchestrator) SetOptions(opts Options) {
	o.mu.Lock()
	o.opts = opts
	o.mu.Unlock()
}

// PasteToClipboard writes it to the clipboard for the user to paste by hand.
// It follows the same pause discipline as a cycle but injects nothing.
func (o *Orchestrator) PasteToClipboard(it *item.Item) error {
	o.cfg.Pauser.Pause()
	defer time.AfterFunc(o.cfg.Timings.DirectResume, o.cfg.Pauser.Resume)
	o.arm()
	return o.write(it, o.Options())
}

// Restore writes back the clipboard value saved before the first paste.
// It reports false when nothing was saved.
func (o *Orchestrator) Restore() (bool, error) {
	if o.cfg.Net == nil {
		return false, nil
	}
	o.cfg.Pauser.Pause()
	defer time.AfterFunc(o.cfg.Timings.DirectResume, o.cfg.Pauser.Resume)
	return o.cfg.Net.Restore(o.cfg.Clipboard)
}

// Run processes requests until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.stopped)
	for {
		select {
		case <-ctx.Done():
			if o.batchTimer != nil {
				o.batchTimer.Stop()
			}
			return
		case m := <-o.in:
			o.handle(m)
			o.publish()
		}
	}
}

func (o *Orchestrator) send(m message) {
	select {
	case o.in <- m:
	case <-o.stopped:
	}
}

func (o *Orchestrator) publish() {
	o.mu.Lock()
	o.state = State{Busy: o.busy, Queued: o.queued, Batch: o.batch}
	o.mu.Unlock()
}

func (o *Orchestrator) handle(m message) {
	switch m.kind {
	case msgTrigger:
		if o.busy {
			o.queued++
			return
		}
		o.start()

	case msgPasteAll:
		if o.batch {
			o.stopBatch()
			return
		}
		if o.cfg.Queue.Remaining() == 0 {
			o.cfg.OnEvent(Event{Type: EventEmpty})
			return
		}
		o.batch = true
		o.cfg.OnEvent(Event{Type: EventBatchStarted})
		if !o.busy {
			o.start()
		}

	case msgStop:
		if o.batch {
			o.stopBatch()
		}

	case msgBatchNext:
		if o.batch && !o.busy {
			o.start()
		}

	case msgDone:
		o.busy = false
		time.AfterFunc(o.cfg.Timings.Resume, o.cfg.Pauser.Resume)
		if m.err != nil {
			slog.Warn("paste cycle failed", "id", m.item.ID, "err", m.err)
			o.cfg.OnEvent(Event{Type: EventFailed, Item: m.item, Err: m.err})
		} else {
			slog.Debug("pasted", "id", m.item.ID, "kind", m.item.Kind)
			o.cfg.OnEvent(Event{Type: EventPasted, Item: m.item})
		}
		o.next()
	}
}

// next decides what follows a completed cycle: a queued request first,
// then the next batch item after the batch interval.
func (o *Orchestrator) next() {
	if o.queued > 0 {
		o.queued--
		o.start()
		return
	}
	if !o.batch {
		return
	}
	if o.cfg.Queue.Remaining() == 0 {
		o.stopBatch()
		return
	}
	o.batchTimer = time.AfterFunc(o.cfg.Timings.BatchInterval, func() {
		o.send(message{kind: msgBatchNext})
	})
}

func (o *Orchestrator) stopBatch() {
	o.batch = false
	if o.batchTimer != nil {
		o.batchTimer.Stop()
		o.batchTimer = nil
	}
	o.cfg.OnEvent(Event{Type: EventBatchStopped})
}

// start fires the queue and launches one cycle for the yielded item.
func (o *Orchestrator) start() {
	it, ok := o.cfg.Queue.Fire()
	if !ok {
		o.queued = 0
		if o.batch {
			o.stopBatch()
		}
		o.cfg.OnEvent(Event{Type: EventEmpty})
		return
	}
	o.busy = true
	o.cfg.Pauser.Pause()
	go o.cycle(it, o.Options())
}

// cycle runs on its own goroutine and always reports back, panics included.
func (o *Orchestrator) cycle(it *item.Item, opts Options) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("paste cycle panicked: %v", r)
		}
		o.send(message{kind: msgDone, item: it, err: err})
	}()
	err = o.inject(it, opts)
}

func (o *Orchestrator) inject(it *item.Item, opts Options) error {
	t := o.cfg.Timings
	o.arm()
	if err := o.write(it, opts); err != nil {
		return err
	}
	time.Sleep(t.Settle)

	if err := o.cfg.Injector.PasteCombo(); err != nil {
		return fmt.Errorf("inject paste: %w", err)
	}

	var key platform.Key
	switch {
	case opts.AutoEnter:
		key = platform.KeyEnter
	case opts.AutoTab:
		key = platform.KeyTab
	}
	if key != 0 {
		time.Sleep(t.KeyGap)
		if err := o.cfg.Injector.Key(key, false); err != nil {
			return fmt.Errorf("inject %s: %w", key, err)
		}
		time.Sleep(t.KeyGap)
		if err := o.cfg.Injector.Key(key, true); err != nil {
			return fmt.Errorf("inject %s: %w", key, err)
		}
	}

	time.Sleep(t.AfterInject)
	return nil
}

// arm saves the externally owned clipboard before the first overwrite.
func (o *Orchestrator) arm() {
	if o.cfg.Net == nil {
		return
	}
	if err := o.cfg.Net.Backup(o.cfg.Clipboard); err != nil {
		slog.Debug("clipboard backup failed", "err", err)
	}
}

func (o *Orchestrator) write(it *item.Item, opts Options) error {
	if it.Kind == item.KindImage {
		data := it.Image
		if len(data) == 0 {
			var err error
			if data, err = os.ReadFile(it.Payload); err != nil {
				return fmt.Errorf("read image %s: %w", it.Payload, err)
			}
		}
		if err := o.cfg.Clipboard.WriteImage(data); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		return nil
	}

	text := it.Payload
	if opts.StripFormatting {
		text = textclean.ToPlain(text)
	}
	if err := o.cfg.Clipboard.WriteText(text); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}
