// Package daemon wires the capture pipeline, the magazine, the paste
// orchestrator, global hotkeys and the control surfaces into one process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"go.klb.dev/magclip/internal/classify"
	"go.klb.dev/magclip/internal/clip"
	"go.klb.dev/magclip/internal/config"
	"go.klb.dev/magclip/internal/detector"
	"go.klb.dev/magclip/internal/ghost"
	"go.klb.dev/magclip/internal/hotkey"
	"go.klb.dev/magclip/internal/hub"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/magazine"
	"go.klb.dev/magclip/internal/paste"
	"go.klb.dev/magclip/internal/platform"
	"go.klb.dev/magclip/internal/safetynet"
	"go.klb.dev/magclip/internal/store"
	"go.klb.dev/magclip/internal/web"
)

// Keys of runtime toggles persisted in the store's state table.
const (
	stateMode            = "picking_style"
	stateGhost           = "ghost_mode"
	stateTab             = "tab"
	stateStripFormatting = "strip_formatting"
	stateAutoEnter       = "auto_enter"
	stateAutoTab         = "auto_tab"
)

// Deps are the OS capabilities the daemon drives. Foreground may be nil.
type Deps struct {
	Clipboard  clip.Backend
	Injector   platform.Injector
	Foreground platform.Foreground
	Registrar  hotkey.Registrar
}

// HeadlessDeps runs without a display: an in-memory clipboard, no keystroke
// injection and no global hotkeys. Everything else works over IPC.
func HeadlessDeps() Deps {
	return Deps{
		Clipboard: clip.NewMemory(),
		Injector:  platform.Noop{},
		Registrar: hotkey.NewUnavailable(),
	}
}

// Daemon is one running magclip instance.
type Daemon struct {
	cfg     *config.Config
	version string

	store *store.Store
	clip  clip.Backend
	hub   *hub.Hub
	det   *detector.Detector
	mag   *magazine.Magazine
	orch  *paste.Orchestrator
	net   *safetynet.Net
	typer *ghost.Typer
	keys  *hotkey.Dispatcher

	// tabMu serialises captures with tab switches and clears so an item
	// is never added to the magazine of a tab it does not belong to.
	tabMu sync.Mutex
	tab   string

	mu         sync.Mutex
	hotkeyErrs map[hotkey.Action]error

	conns sync.WaitGroup
}

// New builds a daemon from cfg and restores the persisted runtime toggles.
func New(ctx context.Context, cfg *config.Config, st *store.Store, deps Deps, version string) (*Daemon, error) {
	if deps.Clipboard == nil || deps.Injector == nil || deps.Registrar == nil {
		return nil, errors.New("daemon: clipboard, injector and registrar are required")
	}
	d := &Daemon{
		cfg:        cfg,
		version:    version,
		store:      st,
		clip:       deps.Clipboard,
		hub:        hub.New(),
		net:        &safetynet.Net{},
		hotkeyErrs: make(map[hotkey.Action]error),
	}

	mode, err := magazine.ParseMode(d.stateString(ctx, stateMode, cfg.PickingStyle))
	if err != nil {
		mode = cfg.Mode()
	}
	d.tab = d.stateString(ctx, stateTab, cfg.Tab)
	ghostOn := d.stateBool(ctx, stateGhost, cfg.GhostMode)
	opts := paste.Options{
		StripFormatting: d.stateBool(ctx, stateStripFormatting, cfg.StripFormatting),
		AutoEnter:       d.stateBool(ctx, stateAutoEnter, cfg.AutoEnter),
		AutoTab:         d.stateBool(ctx, stateAutoTab, cfg.AutoTab),
	}

	d.mag = magazine.New(mode, queueEvents{d.hub})
	if err := d.loadTab(ctx, d.tab); err != nil {
		return nil, err
	}
	st.OnEvict(func(it *item.Item) { d.mag.Remove(it.ID) })

	d.det = detector.New(d.clip, classify.New(), deps.Foreground, cfg.PollInterval)
	d.det.SetDenylist(cfg.Denylist)
	d.det.SetGhost(ghostOn)

	d.orch = paste.New(paste.Config{
		Queue:     d.mag,
		Clipboard: d.clip,
		Injector:  deps.Injector,
		Pauser:    d.det,
		Net:       d.net,
		Timings:   cfg.PasteTimings(),
		Options:   opts,
		OnEvent:   d.onPasteEvent,
	})
	d.typer = ghost.New(deps.Injector, ghost.Hooks{
		Progress: func(done, total int) {
			d.hub.Publish(hub.TypeTyping, typingEvent{Done: done, Total: total})
		},
		Finished: d.onTypingFinished,
	})
	d.keys = hotkey.NewDispatcher(deps.Registrar)

	d.hub.Publish(hub.TypeGhostMode, ghostEvent{On: ghostOn})
	d.hub.Publish(hub.TypeTab, tabEvent{Tab: d.tab})
	return d, nil
}

// Hub exposes the event broker.
func (d *Daemon) Hub() *hub.Hub { return d.hub }

// Run registers hotkeys, starts every worker and serves ln (which may be
// nil) until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.registerHotkeys()

	var workers sync.WaitGroup
	workers.Add(3)
	go func() { defer workers.Done(); d.det.Run(ctx) }()
	go func() { defer workers.Done(); d.orch.Run(ctx) }()
	go func() { defer workers.Done(); d.keys.Run(ctx) }()

	if ln != nil {
		go d.serveIPC(ctx, ln)
	}

	webErr := make(chan error, 1)
	if d.cfg.WebAddr != "" {
		srv := web.New(d, d.hub)
		go func() { webErr <- srv.Serve(ctx, d.cfg.WebAddr) }()
	}

	slog.Info("magclip daemon running",
		"backend", d.clip.Name(),
		"mode", d.mag.Mode(),
		"tab", d.Tab(),
		"queued", d.mag.Total(),
	)

	captures := d.det.Events()
	for {
		select {
		case <-ctx.Done():
			d.shutdown(ln)
			workers.Wait()
			return nil

		case err := <-webErr:
			if err != nil {
				slog.Warn("web server stopped", "err", err)
			}

		case it, ok := <-captures:
			if !ok {
				captures = nil
				continue
			}
			d.capture(ctx, it)

		case a := <-d.keys.Events():
			d.onAction(a)
		}
	}
}

func (d *Daemon) shutdown(ln net.Listener) {
	slog.Info("magclip daemon stopping")
	if err := d.keys.UnregisterAll(); err != nil {
		slog.Debug("hotkey release failed", "err", err)
	}
	d.typer.Abort()
	if ln != nil {
		_ = ln.Close()
	}
	d.conns.Wait()
}

func (d *Daemon) registerHotkeys() {
	errs := d.keys.RegisterAll(d.cfg.Bindings())
	d.mu.Lock()
	defer d.mu.Unlock()
	for action, err := range errs {
		d.hotkeyErrs[action] = err
		slog.Warn("hotkey registration failed", "action", action, "err", err)
		d.hub.Publish(hub.TypeHotkeyFailed, hotkeyEvent{Action: string(action), Error: err.Error()})
	}
}

// Bind changes one hotkey at runtime. The binding lasts until the daemon
// exits.
func (d *Daemon) Bind(action hotkey.Action, combo string) error {
	err := d.keys.Register(action, combo)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		if errors.Is(err, hotkey.ErrUnavailable) {
			d.hotkeyErrs[action] = err
			d.hub.Publish(hub.TypeHotkeyFailed, hotkeyEvent{Action: string(action), Error: err.Error()})
		}
		return err
	}
	delete(d.hotkeyErrs, action)
	return nil
}

// capture files one detected item under the active tab.
func (d *Daemon) capture(ctx context.Context, it item.Item) {
	d.tabMu.Lock()
	defer d.tabMu.Unlock()

	it.Tab = d.tab
	if it.Kind != item.KindImage {
		latest, err := d.store.Latest(ctx, it.Tab)
		if err == nil && latest.Kind == it.Kind && latest.Payload == it.Payload {
			slog.Debug("duplicate capture ignored", "tab", it.Tab, "kind", it.Kind)
			return
		}
	}
	if _, err := d.store.AddItem(ctx, &it); err != nil {
		// AddItem may fail after the row was written (retention); the item
		// still belongs in the queue when it got an id.
		if it.ID == 0 {
			slog.Warn("capture not stored", "kind", it.Kind, "err", err)
			return
		}
		slog.Warn("retention cleanup failed", "tab", it.Tab, "err", err)
	}
	it.Image = nil

	// A new external value owns the clipboard now; the saved one is stale.
	d.net.Clear()
	d.mag.Add(&it)

	hub.LogItem("captured", &it)
	d.hub.Publish(hub.TypeCaptured, itemEvent(&it))
}

func (d *Daemon) onAction(a hotkey.Action) {
	slog.Debug("hotkey", "action", a)
	switch a {
	case hotkey.SequentialPaste:
		d.orch.Trigger()
	case hotkey.PasteAll:
		d.orch.PasteAll()
	case hotkey.SkipItem:
		if it, ok := d.orch.Skip(); ok {
			slog.Debug("skipped", "id", it.ID)
		}
	case hotkey.GhostMode:
		d.SetGhost(context.Background(), !d.det.Ghost())
	case hotkey.ToggleWindow:
		d.hub.Publish(hub.TypeToggleWindow, nil)
	}
}

func (d *Daemon) onPasteEvent(e paste.Event) {
	switch e.Type {
	case paste.EventPasted:
		hub.LogItem("pasted", e.Item)
		d.hub.Publish(hub.TypePasted, itemEvent(e.Item))
	case paste.EventFailed:
		d.hub.Publish(hub.TypePasteFailed, failedEvent{Item: itemEvent(e.Item), Error: e.Err.Error()})
	case paste.EventBatchStarted:
		d.hub.Publish(hub.TypeBatchStarted, nil)
	case paste.EventBatchStopped:
		d.hub.Publish(hub.TypeBatchStopped, nil)
	case paste.EventEmpty:
		// The magazine already reported exhaustion when it had items.
		slog.Debug("nothing to paste")
	}
}

func (d *Daemon) onTypingFinished(r ghost.Result) {
	ev := typingEvent{Done: r.Typed, Total: r.Total, Finished: true, Aborted: r.Aborted}
	if r.Err != nil {
		ev.Error = r.Err.Error()
		slog.Warn("ghost typing failed", "typed", r.Typed, "total", r.Total, "err", r.Err)
	}
	d.hub.Publish(hub.TypeTyping, ev)
}

// Tab returns the active tab.
func (d *Daemon) Tab() string {
	d.tabMu.Lock()
	defer d.tabMu.Unlock()
	return d.tab
}

// SetTab switches the active tab and reloads the magazine from it.
func (d *Daemon) SetTab(ctx context.Context, tab string) error {
	d.tabMu.Lock()
	defer d.tabMu.Unlock()
	if err := d.loadTab(ctx, tab); err != nil {
		return err
	}
	d.tab = tab
	d.saveState(ctx, stateTab, tab)
	d.hub.Publish(hub.TypeTab, tabEvent{Tab: tab})
	return nil
}

func (d *Daemon) loadTab(ctx context.Context, tab string) error {
	items, err := d.store.ListItemsInsertionOrder(ctx, tab)
	if err != nil {
		return fmt.Errorf("load tab %s: %w", tab, err)
	}
	d.mag.Load(items)
	return nil
}

// SetMode changes the picking style.
func (d *Daemon) SetMode(ctx context.Context, mode magazine.Mode) {
	d.mag.SetMode(mode)
	d.saveState(ctx, stateMode, string(mode))
}

// SetGhost suspends or resumes capture.
func (d *Daemon) SetGhost(ctx context.Context, on bool) {
	d.det.SetGhost(on)
	d.saveState(ctx, stateGhost, strconv.FormatBool(on))
	slog.Info("ghost mode", "on", on)
	d.hub.Publish(hub.TypeGhostMode, ghostEvent{On: on})
}

// SetOptions replaces the paste toggles.
func (d *Daemon) SetOptions(ctx context.Context, opts paste.Options) {
	d.orch.SetOptions(opts)
	d.saveState(ctx, stateStripFormatting, strconv.FormatBool(opts.StripFormatting))
	d.saveState(ctx, stateAutoEnter, strconv.FormatBool(opts.AutoEnter))
	d.saveState(ctx, stateAutoTab, strconv.FormatBool(opts.AutoTab))
}

func (d *Daemon) stateString(ctx context.Context, key, def string) string {
	v, err := d.store.GetState(ctx, key, def)
	if err != nil {
		slog.Warn("state read failed", "key", key, "err", err)
		return def
	}
	return v
}

func (d *Daemon) stateBool(ctx context.Context, key string, def bool) bool {
	b, err := strconv.ParseBool(d.stateString(ctx, key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return b
}

func (d *Daemon) saveState(ctx context.Context, key, value string) {
	if err := d.store.SetState(ctx, key, value); err != nil {
		slog.Warn("state write failed", "key", key, "err", err)
	}
}

// queueEvents forwards magazine notifications to the hub.
type queueEvents struct{ h *hub.Hub }

func (q queueEvents) QueueChanged(st magazine.Status) {
	q.h.Publish(hub.TypeQueueChanged, queueEvent{Index: st.Index, Total: st.Total, Remaining: st.Remaining()})
}

func (q queueEvents) QueueEmpty() { q.h.Publish(hub.TypeQueueEmpty, nil) }
