package hub

import (
	"log/slog"
	"sync/atomic"
)

// ChanPeer buffers events on a channel for a consumer goroutine. When the
// buffer is full new events are dropped and counted.
type ChanPeer struct {
	id      string
	types   []string
	ch      chan Event
	dropped atomic.Int64
}

// NewChanPeer returns a peer with the given buffer size. types restricts the
// accepted event types; none means all.
func NewChanPeer(id string, size int, types ...string) *ChanPeer {
	return &ChanPeer{id: id, types: types, ch: make(chan Event, size)}
}

func (p *ChanPeer) ID() string        { return p.id }
func (p *ChanPeer) Accepts() []string { return p.types }

// C is the receive side of the buffer. It is never closed.
func (p *ChanPeer) C() <-chan Event { return p.ch }

// Dropped reports how many events were discarded because the buffer was full.
func (p *ChanPeer) Dropped() int64 { return p.dropped.Load() }

// Send implements Peer.
func (p *ChanPeer) Send(e Event) {
	select {
	case p.ch <- e:
	default:
		if p.dropped.Add(1) == 1 {
			slog.Warn("peer buffer full, dropping events", "peer", p.id)
		}
	}
}
