package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.klb.dev/magclip/internal/hotkey"
	"go.klb.dev/magclip/internal/hub"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/magazine"
	"go.klb.dev/magclip/internal/message"
	"go.klb.dev/magclip/internal/paste"
	"go.klb.dev/magclip/internal/store"
	"go.klb.dev/magclip/internal/textclean"
	"go.klb.dev/magclip/internal/wire"
)

const (
	requestTimeout = 5 * time.Second
	watchBuffer    = 256
)

var watchSeq atomic.Int64

func (d *Daemon) serveIPC(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, net.ErrClosed) {
				slog.Warn("ipc accept failed", "err", err)
			}
			return
		}
		d.conns.Add(1)
		go func() {
			defer d.conns.Done()
			d.handleIPCConn(ctx, conn)
		}()
	}
}

func (d *Daemon) handleIPCConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	wc := wire.New(conn)

	wc.SetReadDeadline(requestTimeout)
	req, err := wc.ReadMsg()
	if err != nil {
		slog.Debug("ipc: read failed", "err", err)
		return
	}
	wc.SetReadDeadline(0)

	if req.Type != message.TypeRequest {
		_ = wc.WriteMsg(message.Errorf("expected %s, got %s", message.TypeRequest, req.Type))
		return
	}
	if req.Op == message.OpWatch {
		d.watch(ctx, wc, req)
		return
	}

	resp := d.Handle(ctx, req)
	if err := wc.WriteMsg(resp); err != nil {
		slog.Debug("ipc: write failed", "op", req.Op, "err", err)
	}
}

// watch streams hub events to the client until it disconnects or the daemon
// stops. The client may restrict event types through Args.
func (d *Daemon) watch(ctx context.Context, wc *wire.Conn, req *message.Message) {
	peer := hub.NewChanPeer("ipc:watch#"+strconv.FormatInt(watchSeq.Add(1), 10), watchBuffer, req.Args...)
	if err := wc.WriteMsg(message.OK()); err != nil {
		return
	}
	d.hub.Register(peer)
	defer d.hub.Unregister(peer)

	// The client sends nothing more; a read returning means it hung up.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, err := wc.ReadMsg(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			wc.Close()
			return
		case <-gone:
			return
		case e := <-peer.C():
			msg, err := message.NewEvent(e.Type, e.Time, e.Data)
			if err != nil {
				slog.Warn("ipc: event encode failed", "event", e.Type, "err", err)
				continue
			}
			if err := wc.WriteMsg(msg); err != nil {
				return
			}
		}
	}
}

// Handle executes one control request and returns the reply.
func (d *Daemon) Handle(ctx context.Context, req *message.Message) *message.Message {
	resp, err := d.handle(ctx, req)
	if err != nil {
		slog.Debug("ipc: request failed", "op", req.Op, "err", err)
		return message.Errorf("%v", err)
	}
	if resp == nil {
		resp = message.OK()
	}
	return resp
}

func (d *Daemon) handle(ctx context.Context, req *message.Message) (*message.Message, error) {
	switch req.Op {
	case message.OpPaste:
		d.orch.Trigger()
	case message.OpPasteAll:
		d.orch.PasteAll()
	case message.OpStop:
		d.orch.Stop()
	case message.OpSkip:
		it, ok := d.orch.Skip()
		if !ok {
			return nil, errors.New("queue is empty")
		}
		resp := message.OK()
		wi := message.FromItem(it)
		resp.Item = &wi
		return resp, nil
	case message.OpReset:
		d.mag.Reset()

	case message.OpMode:
		mode, err := magazine.ParseMode(req.Arg(0))
		if err != nil {
			return nil, err
		}
		d.SetMode(ctx, mode)
	case message.OpStart:
		if !d.mag.SetStart(req.ID) {
			return nil, fmt.Errorf("item %d is not in the queue", req.ID)
		}
	case message.OpReorder:
		if len(req.IDs) == 0 {
			return nil, errors.New("reorder needs at least one id")
		}
		d.mag.Reorder(req.IDs)

	case message.OpCopy:
		it, err := d.store.Get(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		if err := d.orch.PasteToClipboard(it); err != nil {
			return nil, err
		}
	case message.OpType:
		return nil, d.typeItem(ctx, req.ID)
	case message.OpAbort:
		if !d.typer.Typing() {
			return nil, errors.New("not typing")
		}
		d.typer.Abort()
	case message.OpRestore:
		ok, err := d.orch.Restore()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("nothing to restore")
		}

	case message.OpGhost:
		on := !d.det.Ghost()
		if arg := req.Arg(0); arg != "" {
			v, err := parseSwitch(arg)
			if err != nil {
				return nil, err
			}
			on = v
		}
		d.SetGhost(ctx, on)
	case message.OpTab:
		tab := strings.TrimSpace(req.Arg(0))
		if tab == "" {
			return nil, errors.New("tab name required")
		}
		if err := d.SetTab(ctx, tab); err != nil {
			return nil, err
		}
	case message.OpTabs:
		tabs, err := d.store.Tabs(ctx)
		if err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeResponse, Tabs: tabs}, nil
	case message.OpList:
		tab := req.Tab
		if tab == "" {
			tab = d.Tab()
		}
		items, err := d.Items(ctx, tab, store.Filter{Query: req.Query, PinnedOnly: req.Pinned, Limit: req.Limit})
		if err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeResponse, Items: message.FromItems(items)}, nil
	case message.OpPin:
		pinned, err := d.store.TogglePin(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeResponse, Pinned: pinned}, nil
	case message.OpDelete:
		if err := d.store.DeleteItem(ctx, req.ID); err != nil {
			return nil, err
		}
		d.mag.Remove(req.ID)
	case message.OpClear:
		n, err := d.clearTab(ctx)
		if err != nil {
			return nil, err
		}
		return &message.Message{Type: message.TypeResponse, Count: n}, nil

	case message.OpOptions:
		if req.Options != nil {
			d.SetOptions(ctx, applyOptions(d.orch.Options(), req.Options))
		}
	case message.OpBind:
		if err := d.Bind(hotkey.Action(req.Arg(0)), req.Arg(1)); err != nil {
			return nil, err
		}
	case message.OpStatus:
		st := d.Status()
		return &message.Message{Type: message.TypeResponse, Status: &st}, nil

	default:
		return nil, fmt.Errorf("unknown op %q", req.Op)
	}
	return nil, nil
}

func (d *Daemon) typeItem(ctx context.Context, id int64) error {
	it, err := d.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !it.IsText() {
		return fmt.Errorf("item %d is an image and cannot be typed", id)
	}
	text := it.Payload
	if d.orch.Options().StripFormatting {
		text = textclean.ToPlain(text)
	}
	return d.typer.Type(text, d.cfg.GhostTypeDelay)
}

// clearTab removes the unpinned items of the active tab and reloads the
// magazine with what is left.
func (d *Daemon) clearTab(ctx context.Context) (int, error) {
	d.tabMu.Lock()
	defer d.tabMu.Unlock()
	n, err := d.store.ClearTab(ctx, d.tab)
	if err != nil {
		return 0, err
	}
	return n, d.loadTab(ctx, d.tab)
}

// Items lists stored items of a tab, newest first.
func (d *Daemon) Items(ctx context.Context, tab string, f store.Filter) ([]*item.Item, error) {
	return d.store.ListItems(ctx, tab, f)
}

// Status snapshots the daemon.
func (d *Daemon) Status() message.Status {
	qs := d.mag.Status()
	ps := d.orch.State()
	opts := d.orch.Options()

	st := message.Status{
		Version:   d.version,
		Backend:   d.clip.Name(),
		Mode:      string(d.mag.Mode()),
		Tab:       d.Tab(),
		Index:     qs.Index,
		Total:     qs.Total,
		Remaining: qs.Remaining(),
		Busy:      ps.Busy,
		Queued:    ps.Queued,
		Batch:     ps.Batch,
		Ghost:     d.det.Ghost(),
		Typing:    d.typer.Typing(),
		SafetyNet: d.net.Held(),
		Options: message.Options{
			StripFormatting: &opts.StripFormatting,
			AutoEnter:       &opts.AutoEnter,
			AutoTab:         &opts.AutoTab,
		},
		Hotkeys:  make(map[string]string),
		Watchers: len(d.hub.Peers()),
	}
	for action, combo := range d.keys.Bindings() {
		st.Hotkeys[string(action)] = combo.String()
	}
	d.mu.Lock()
	if len(d.hotkeyErrs) > 0 {
		st.HotkeyErrors = make(map[string]string, len(d.hotkeyErrs))
		for action, err := range d.hotkeyErrs {
			st.HotkeyErrors[string(action)] = err.Error()
		}
	}
	d.mu.Unlock()
	return st
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

// applyOptions overlays the fields set in o onto cur.
func applyOptions(cur paste.Options, o *message.Options) paste.Options {
	if o.StripFormatting != nil {
		cur.StripFormatting = *o.StripFormatting
	}
	if o.AutoEnter != nil {
		cur.AutoEnter = *o.AutoEnter
	}
	if o.AutoTab != nil {
		cur.AutoTab = *o.AutoTab
	}
	return cur
}
