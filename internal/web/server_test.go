package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/magclip/internal/hub"
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/message"
	"go.klb.dev/magclip/internal/store"
)

type fakeBackend struct {
	gotTab    string
	gotFilter store.Filter
}

func (f *fakeBackend) Status() message.Status {
	return message.Status{Mode: "fifo", Tab: "Work", Index: 1, Total: 3, Remaining: 2}
}

func (f *fakeBackend) Items(_ context.Context, tab string, flt store.Filter) ([]*item.Item, error) {
	f.gotTab, f.gotFilter = tab, flt
	return []*item.Item{{ID: 9, Kind: item.KindURL, Payload: "https://example.com", Tab: tab}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeBackend, *hub.Hub) {
	t.Helper()
	b := &fakeBackend{}
	h := hub.New()
	ts := httptest.NewServer(New(b, h).Handler())
	t.Cleanup(ts.Close)
	return ts, b, h
}

func TestStatus(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	var st message.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 2, st.Remaining)
	assert.Equal(t, "Work", st.Tab)
}

func TestItemsDefaultsToActiveTab(t *testing.T) {
	ts, b, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/items?q=exam&pinned=true&limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	var items []message.Item
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 1)
	assert.Equal(t, "url", items[0].Kind)
	assert.Equal(t, "Work", b.gotTab)
	assert.Equal(t, store.Filter{Query: "exam", PinnedOnly: true, Limit: 5}, b.gotFilter)
}

func TestItemsRejectsBadParams(t *testing.T) {
	ts, _, _ := newTestServer(t)
	for _, q := range []string{"pinned=maybe", "limit=-1", "limit=x"} {
		resp, err := http.Get(ts.URL + "/api/items?" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestWebSocketStreamsEvents(t *testing.T) {
	ts, _, h := newTestServer(t)
	h.Publish(hub.TypeGhostMode, map[string]bool{"on": true})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first hub.Event
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, hub.TypeGhostMode, first.Type, "sticky state is replayed")

	h.Publish(hub.TypeCaptured, map[string]int{"id": 4})
	var second struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, hub.TypeCaptured, second.Type)
	assert.Equal(t, 4, second.Data["id"])

	conn.Close()
	require.Eventually(t, func() bool { return len(h.Peers()) == 0 }, 2*time.Second, 10*time.Millisecond)
}
