package magazine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/magclip/internal/item"
)

type recorder struct {
	changes []Status
	empties int
}

func (r *recorder) QueueChanged(s Status) { r.changes = append(r.changes, s) }
func (r *recorder) QueueEmpty()           { r.empties++ }

func items(names ...string) []*item.Item {
	out := make([]*item.Item, len(names))
	for i, n := range names {
		out[i] = &item.Item{ID: int64(i + 1), Kind: item.KindText, Payload: n}
	}
	return out
}

func fireAll(t *testing.T, m *Magazine) []string {
	t.Helper()
	var got []string
	for {
		it, ok := m.Fire()
		if !ok {
			return got
		}
		got = append(got, it.Payload)
	}
}

func TestFireOrder(t *testing.T) {
	fifo := New(FIFO, nil)
	fifo.Load(items("A", "B", "C"))
	assert.Equal(t, []string{"A", "B", "C"}, fireAll(t, fifo))

	lifo := New(LIFO, nil)
	lifo.Load(items("A", "B", "C"))
	assert.Equal(t, []string{"C", "B", "A"}, fireAll(t, lifo))
}

func TestFireSignalsExhaustion(t *testing.T) {
	rec := &recorder{}
	m := New(FIFO, rec)
	m.Load(items("A", "B"))

	_, ok := m.Fire()
	require.True(t, ok)
	assert.Equal(t, 0, rec.empties)

	_, ok = m.Fire()
	require.True(t, ok)
	assert.Equal(t, 1, rec.empties, "firing the last item signals empty")

	it, ok := m.Fire()
	require.False(t, ok)
	assert.Nil(t, it)
	assert.Equal(t, 2, rec.empties)
	assert.Equal(t, 2, m.CurrentIndex(), "pointer never passes the length")
}

func TestAddFIFOAppendsAfterBacklog(t *testing.T) {
	m := New(FIFO, nil)
	m.Load(items("A", "B"))
	m.Fire()
	m.Add(&item.Item{ID: 9, Kind: item.KindText, Payload: "D"})
	assert.Equal(t, []string{"B", "D"}, fireAll(t, m))
}

func TestAddLIFOInsertsAtPointer(t *testing.T) {
	m := New(LIFO, nil)
	m.Load(items("A", "B", "C"))
	m.Add(&item.Item{ID: 9, Kind: item.KindText, Payload: "D"})

	next, ok := m.Peek()
	require.True(t, ok)
	assert.Equal(t, "D", next.Payload)
	assert.Equal(t, []string{"D", "C", "B", "A"}, fireAll(t, m))
}

func TestAddLIFOMidQueueKeepsPendingItem(t *testing.T) {
	m := New(LIFO, nil)
	m.Load(items("A", "B", "C"))
	m.Fire() // C
	m.Add(&item.Item{ID: 9, Kind: item.KindText, Payload: "D"})
	assert.Equal(t, []string{"D", "B", "A"}, fireAll(t, m))

	m.Reset()
	assert.Equal(t, []string{"D", "C", "B", "A"}, fireAll(t, m), "raw keeps capture order")
}

func TestSetModeResetsPointer(t *testing.T) {
	m := New(FIFO, nil)
	m.Load(items("A", "B", "C"))
	m.Fire()
	require.Equal(t, 1, m.CurrentIndex())

	m.SetMode(LIFO)
	assert.Equal(t, 0, m.CurrentIndex())
	next, ok := m.Peek()
	require.True(t, ok)
	assert.Equal(t, "C", next.Payload)
}

func TestSetModeSameModeIsNoop(t *testing.T) {
	rec := &recorder{}
	m := New(FIFO, rec)
	m.Load(items("A", "B"))
	m.Fire()
	n := len(rec.changes)

	m.SetMode(FIFO)
	assert.Equal(t, 1, m.CurrentIndex())
	assert.Len(t, rec.changes, n)
}

func TestReorderKeepsItemUnderPointer(t *testing.T) {
	m := New(FIFO, nil)
	m.Load(items("A", "B", "C")) // ids 1,2,3
	m.Fire()                     // pointer at B

	m.Reorder([]int64{3, 1, 2})
	assert.Equal(t, 2, m.CurrentIndex())
	next, _ := m.Peek()
	assert.Equal(t, "B", next.Payload)
}

func TestReorderAppendsUnlistedAndMirrorsRaw(t *testing.T) {
	m := New(FIFO, nil)
	m.Load(items("A", "B", "C", "D"))
	m.Reorder([]int64{4, 99, 2})

	got := make([]string, 0, 4)
	for _, it := range m.Items() {
		got = append(got, it.Payload)
	}
	assert.Equal(t, []string{"D", "B", "A", "C"}, got)

	m.Reset()
	assert.Equal(t, []string{"D", "B", "A", "C"}, fireAll(t, m))
}

func TestReorderUnderLIFOSurvivesReset(t *testing.T) {
	m := New(LIFO, nil)
	m.Load(items("A", "B", "C"))
	m.Reorder([]int64{1, 3, 2})
	m.Reset()
	assert.Equal(t, []string{"A", "C", "B"}, fireAll(t, m))
}

func TestSetStart(t *testing.T) {
	m := New(FIFO, nil)
	m.Load(items("A", "B", "C"))
	require.True(t, m.SetStart(3))
	assert.Equal(t, 2, m.CurrentIndex())
	assert.False(t, m.SetStart(42))
	assert.Equal(t, 2, m.CurrentIndex())
}

func TestRemove(t *testing.T) {
	m := New(FIFO, nil)
	m.Load(items("A", "B", "C"))
	m.Fire()
	m.Fire() // pointer at C

	require.True(t, m.Remove(1))
	next, _ := m.Peek()
	assert.Equal(t, "C", next.Payload)
	assert.Equal(t, 1, m.CurrentIndex())
	assert.False(t, m.Remove(1))
}

func TestClear(t *testing.T) {
	m := New(LIFO, nil)
	m.Load(items("A", "B"))
	m.Fire()
	m.Clear()
	assert.Equal(t, Status{}, m.Status())
	_, ok := m.Peek()
	assert.False(t, ok)
}

func TestNotifications(t *testing.T) {
	rec := &recorder{}
	m := New(FIFO, rec)
	m.Load(items("A", "B"))
	m.Fire()
	m.Add(&item.Item{ID: 5, Kind: item.KindText, Payload: "E"})
	assert.Equal(t, []Status{{0, 2}, {1, 2}, {1, 3}}, rec.changes)
}

func TestRemainingInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	m := New(FIFO, nil)
	next := int64(100)
	for i := 0; i < 2000; i++ {
		switch r.Intn(6) {
		case 0:
			n := r.Intn(5)
			batch := make([]*item.Item, n)
			for j := range batch {
				next++
				batch[j] = &item.Item{ID: next, Kind: item.KindText, Payload: "x"}
			}
			m.Load(batch)
		case 1:
			next++
			m.Add(&item.Item{ID: next, Kind: item.KindText, Payload: "y"})
		case 2:
			if r.Intn(2) == 0 {
				m.SetMode(FIFO)
			} else {
				m.SetMode(LIFO)
			}
		case 3:
			m.Fire()
		case 4:
			ids := make([]int64, 0)
			for _, it := range m.Items() {
				ids = append([]int64{it.ID}, ids...)
			}
			m.Reorder(ids)
		case 5:
			m.Reset()
		}
		st := m.Status()
		require.Equal(t, st.Total, m.Remaining()+st.Index)
		require.LessOrEqual(t, st.Index, st.Total)
	}
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" LIFO ")
	require.NoError(t, err)
	assert.Equal(t, LIFO, mode)
	_, err = ParseMode("random")
	require.Error(t, err)
}
