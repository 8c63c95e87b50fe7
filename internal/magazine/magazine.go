// Package magazine implements the ordered replay queue behind sequential
// paste: a cursor over the captured backlog in FIFO or LIFO order.
//
// Two sequences are kept. raw is always capture order (oldest first); view is
// raw or raw reversed depending on the mode, possibly rearranged by Reorder.
// The read pointer indexes view and satisfies 0 <= index <= len(view).
package magazine

import (
	"fmt"
	"strings"
	"sync"

	"go.klb.dev/magclip/internal/item"
)

// Mode selects the replay order.
type Mode string

const (
	FIFO Mode = "fifo"
	LIFO Mode = "lifo"
)

// ParseMode converts "fifo"/"lifo" (any case) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case FIFO:
		return FIFO, nil
	case LIFO:
		return LIFO, nil
	}
	return "", fmt.Errorf("unknown picking style %q (want fifo or lifo)", s)
}

// Status is the pointer/length pair carried by change notifications.
type Status struct {
	Index int `json:"index"`
	Total int `json:"total"`
}

// Remaining is the number of entries not yet fired.
func (s Status) Remaining() int { return max(0, s.Total-s.Index) }

// Listener receives notifications after every mutation. Calls are made
// without the magazine lock held, so a listener may call back into it.
type Listener interface {
	QueueChanged(Status)
	QueueEmpty()
}

// Magazine is safe for concurrent use.
type Magazine struct {
	mu    sync.Mutex
	mode  Mode
	raw   []*item.Item
	view  []*item.Item
	index int

	listener Listener
}

// New returns an empty magazine in the given mode. l may be nil.
func New(mode Mode, l Listener) *Magazine {
	if mode != LIFO {
		mode = FIFO
	}
	return &Magazine{mode: mode, listener: l}
}

// Mode returns the current replay order.
func (m *Magazine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Load replaces the backlog. items must be oldest first.
func (m *Magazine) Load(items []*item.Item) {
	m.mu.Lock()
	m.raw = append([]*item.Item(nil), items...)
	m.rebuildLocked()
	st := m.statusLocked()
	m.mu.Unlock()
	m.changed(st)
}

// SetMode switches between FIFO and LIFO. A real change rebuilds the view
// from raw and restarts the cursor; setting the current mode is a no-op.
func (m *Magazine) SetMode(mode Mode) {
	m.mu.Lock()
	if mode == m.mode {
		m.mu.Unlock()
		return
	}
	m.mode = mode
	m.rebuildLocked()
	st := m.statusLocked()
	m.mu.Unlock()
	m.changed(st)
}

// Add appends a freshly captured item. Under FIFO it joins the tail of the
// view. Under LIFO it is inserted at the pointer, so it is the next item to
// fire and the item that was next moves one slot back.
func (m *Magazine) Add(it *item.Item) {
	m.mu.Lock()
	m.raw = append(m.raw, it)
	if m.mode == FIFO {
		m.view = append(m.view, it)
	} else {
		m.view = append(m.view, nil)
		copy(m.view[m.index+1:], m.view[m.index:])
		m.view[m.index] = it
	}
	st := m.statusLocked()
	m.mu.Unlock()
	m.changed(st)
}

// Peek returns the item under the pointer without advancing.
func (m *Magazine) Peek() (*item.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index < len(m.view) {
		return m.view[m.index], true
	}
	return nil, false
}

// Fire returns the item under the pointer and advances past it. The second
// result is false when the queue was already exhausted.
func (m *Magazine) Fire() (*item.Item, bool) {
	m.mu.Lock()
	if m.index >= len(m.view) {
		m.mu.Unlock()
		m.empty()
		return nil, false
	}
	it := m.view[m.index]
	m.index++
	st := m.statusLocked()
	exhausted := m.index >= len(m.view)
	m.mu.Unlock()

	m.changed(st)
	if exhausted {
		m.empty()
	}
	return it, true
}

// Reset rebuilds the view under the current mode and rewinds the pointer.
// Any manual reordering is discarded.
func (m *Magazine) Reset() {
	m.mu.Lock()
	m.rebuildLocked()
	st := m.statusLocked()
	m.mu.Unlock()
	m.changed(st)
}

// SetStart moves the pointer to the item with the given id.
func (m *Magazine) SetStart(id int64) bool {
	m.mu.Lock()
	idx := indexOf(m.view, id)
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	m.index = idx
	st := m.statusLocked()
	m.mu.Unlock()
	m.changed(st)
	return true
}

// Reorder rewrites the view to follow ids. Existing items missing from ids
// keep their relative order after the listed ones; unknown ids are ignored.
// The new order is mirrored into raw so that Reset reproduces it. The item
// that was under the pointer stays under the pointer.
func (m *Magazine) Reorder(ids []int64) {
	m.mu.Lock()
	var current *item.Item
	if m.index < len(m.view) {
		current = m.view[m.index]
	}

	byID := make(map[int64]*item.Item, len(m.view))
	for _, it := range m.view {
		byID[it.ID] = it
	}
	next := make([]*item.Item, 0, len(m.view))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			next = append(next, it)
			delete(byID, id)
		}
	}
	for _, it := range m.view {
		if _, ok := byID[it.ID]; ok {
			next = append(next, it)
			delete(byID, it.ID)
		}
	}
	m.view = next

	if m.mode == FIFO {
		m.raw = append(m.raw[:0:0], next...)
	} else {
		m.raw = reversed(next)
	}

	if current != nil {
		if idx := indexOf(m.view, current.ID); idx >= 0 {
			m.index = idx
		}
	}
	st := m.statusLocked()
	m.mu.Unlock()
	m.changed(st)
}

// Remove drops an item (deleted from the store) from both sequences.
// The pointer keeps addressing the same next item.
func (m *Magazine) Remove(id int64) bool {
	m.mu.Lock()
	idx := indexOf(m.view, id)
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	m.view = append(m.view[:idx], m.view[idx+1:]...)
	if idx < m.index {
		m.index--
	}
	if r := indexOf(m.raw, id); r >= 0 {
		m.raw = append(m.raw[:r], m.raw[r+1:]...)
	}
	st := m.statusLocked()
	m.mu.Unlock()
	m.changed(st)
	return true
}

// Clear empties the magazine.
func (m *Magazine) Clear() {
	m.mu.Lock()
	m.raw = nil
	m.view = nil
	m.index = 0
	st := m.statusLocked()
	m.mu.Unlock()
	m.changed(st)
}

// Status returns the current pointer and length.
func (m *Magazine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Remaining is max(0, Total-CurrentIndex).
func (m *Magazine) Remaining() int { return m.Status().Remaining() }

// Total is the number of items in the view.
func (m *Magazine) Total() int { return m.Status().Total }

// CurrentIndex is the read pointer.
func (m *Magazine) CurrentIndex() int { return m.Status().Index }

// Items returns a copy of the view in replay order.
func (m *Magazine) Items() []*item.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*item.Item(nil), m.view...)
}

func (m *Magazine) rebuildLocked() {
	if m.mode == LIFO {
		m.view = reversed(m.raw)
	} else {
		m.view = append([]*item.Item(nil), m.raw...)
	}
	m.index = 0
}

func (m *Magazine) statusLocked() Status {
	return Status{Index: m.index, Total: len(m.view)}
}

func (m *Magazine) changed(st Status) {
	if m.listener != nil {
		m.listener.QueueChanged(st)
	}
}

func (m *Magazine) empty() {
	if m.listener != nil {
		m.listener.QueueEmpty()
	}
}

func reversed(in []*item.Item) []*item.Item {
	out := make([]*item.Item, len(in))
	for i, it := range in {
		out[len(in)-1-i] = it
	}
	return out
}

func indexOf(items []*item.Item, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
