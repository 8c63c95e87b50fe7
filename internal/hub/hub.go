// Package hub is the daemon's event broker. Watchers (IPC watch streams,
// websocket clients) register as peers and receive every published event
// they accept. Publishing never blocks on a slow peer.
package hub

import (
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Event types published by the daemon.
const (
	TypeQueueChanged = "queue_changed"
	TypeQueueEmpty   = "queue_empty"
	TypeCaptured     = "captured"
	TypePasted       = "pasted"
	TypePasteFailed  = "paste_failed"
	TypeBatchStarted = "batch_started"
	TypeBatchStopped = "batch_stopped"
	TypeGhostMode    = "ghost_mode"
	TypeTab          = "tab"
	TypeToggleWindow = "toggle_window"
	TypeHotkeyFailed = "hotkey_failed"
	TypeTyping       = "typing"
)

// sticky events describe current state; a newly registered peer is sent the
// latest of each so it does not start blind.
var sticky = []string{TypeQueueChanged, TypeGhostMode, TypeTab}

// Event is one daemon notification. Data must be JSON-encodable.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

// Peer is anything that can receive events from the hub.
type Peer interface {
	ID() string
	// Send delivers an event to the peer. Must be non-blocking.
	Send(Event)
}

// FilteredPeer is an optional interface a Peer may implement to receive only
// some event types. An empty Accepts means everything.
type FilteredPeer interface {
	Peer
	Accepts() []string
}

// Hub routes events to all registered peers.
type Hub struct {
	mu     sync.RWMutex
	peers  map[string]Peer
	latest map[string]Event // event type → most recent
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{
		peers:  make(map[string]Peer),
		latest: make(map[string]Event),
	}
}

// Register adds a peer and immediately delivers the latest state events.
func (h *Hub) Register(p Peer) {
	h.mu.Lock()
	h.peers[p.ID()] = p
	var replay []Event
	for _, typ := range sticky {
		if e, ok := h.latest[typ]; ok {
			replay = append(replay, e)
		}
	}
	total := len(h.peers)
	h.mu.Unlock()

	slog.Debug("peer registered", "peer", p.ID(), "total", total)

	slices.SortFunc(replay, func(a, b Event) int { return a.Time.Compare(b.Time) })
	for _, e := range replay {
		if accepts(p, e.Type) {
			p.Send(e)
		}
	}
}

// Unregister removes a peer from the hub.
func (h *Hub) Unregister(p Peer) {
	h.mu.Lock()
	delete(h.peers, p.ID())
	total := len(h.peers)
	h.mu.Unlock()

	slog.Debug("peer unregistered", "peer", p.ID(), "total", total)
}

// Publish stores e as the latest of its type and fans it out.
func (h *Hub) Publish(typ string, data any) {
	e := Event{Type: typ, Time: time.Now(), Data: data}

	h.mu.Lock()
	h.latest[typ] = e
	targets := make([]Peer, 0, len(h.peers))
	for _, p := range h.peers {
		if accepts(p, typ) {
			targets = append(targets, p)
		}
	}
	h.mu.Unlock()

	for _, p := range targets {
		p.Send(e)
	}
}

// Latest returns the most recent event of the given type.
func (h *Hub) Latest(typ string) (Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.latest[typ]
	return e, ok
}

// Peers returns the IDs of all registered peers, sorted.
func (h *Hub) Peers() []string {
	h.mu.RLock()
	out := make([]string, 0, len(h.peers))
	for id := range h.peers {
		out = append(out, id)
	}
	h.mu.RUnlock()
	slices.Sort(out)
	return out
}

func accepts(p Peer, typ string) bool {
	f, ok := p.(FilteredPeer)
	if !ok {
		return true
	}
	types := f.Accepts()
	return len(types) == 0 || slices.Contains(types, typ)
}
