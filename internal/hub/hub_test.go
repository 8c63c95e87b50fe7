package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(p *ChanPeer) []string {
	var out []string
	for {
		select {
		case e := <-p.C():
			out = append(out, e.Type)
		default:
			return out
		}
	}
}

func TestPublishFansOut(t *testing.T) {
	h := New()
	a := NewChanPeer("a", 8)
	b := NewChanPeer("b", 8)
	h.Register(a)
	h.Register(b)

	h.Publish(TypeCaptured, map[string]int{"id": 1})

	assert.Equal(t, []string{TypeCaptured}, drain(a))
	assert.Equal(t, []string{TypeCaptured}, drain(b))
	assert.Equal(t, []string{"a", "b"}, h.Peers())

	h.Unregister(a)
	h.Publish(TypePasted, nil)
	assert.Empty(t, drain(a))
	assert.Equal(t, []string{TypePasted}, drain(b))
}

func TestRegisterReplaysStickyState(t *testing.T) {
	h := New()
	h.Publish(TypeGhostMode, true)
	h.Publish(TypeCaptured, nil)
	h.Publish(TypeQueueChanged, map[string]int{"index": 0, "total": 1})

	p := NewChanPeer("late", 8)
	h.Register(p)
	assert.Equal(t, []string{TypeGhostMode, TypeQueueChanged}, drain(p))

	e, ok := h.Latest(TypeCaptured)
	require.True(t, ok)
	assert.Equal(t, TypeCaptured, e.Type)
	_, ok = h.Latest(TypeHotkeyFailed)
	assert.False(t, ok)
}

func TestFilteredPeer(t *testing.T) {
	h := New()
	p := NewChanPeer("f", 8, TypePasted)
	h.Register(p)

	h.Publish(TypeCaptured, nil)
	h.Publish(TypePasted, nil)
	assert.Equal(t, []string{TypePasted}, drain(p))
}

func TestFullPeerDropsWithoutBlocking(t *testing.T) {
	h := New()
	p := NewChanPeer("slow", 1)
	h.Register(p)

	for range 5 {
		h.Publish(TypeCaptured, nil)
	}
	assert.Len(t, drain(p), 1)
	assert.EqualValues(t, 4, p.Dropped())
}
