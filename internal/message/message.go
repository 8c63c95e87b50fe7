// Package message defines the magclip control protocol spoken over the IPC
// socket.
//
// All messages are newline-delimited JSON, one message per line: <json>\n.
// A client sends one REQUEST and reads one RESPONSE or ERROR. A WATCH request
// is answered with a RESPONSE followed by EVENT messages until either side
// closes the connection.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"go.klb.dev/magclip/internal/item"
)

// Type identifies the kind of message.
type Type string

const (
	TypeRequest  Type = "REQUEST"
	TypeResponse Type = "RESPONSE"
	TypeEvent    Type = "EVENT"
	TypeError    Type = "ERROR"
)

// Op is the operation a REQUEST asks for.
type Op string

const (
	OpPaste    Op = "paste"
	OpPasteAll Op = "paste_all"
	OpSkip     Op = "skip"
	OpStop     Op = "stop"
	OpReset    Op = "reset"
	OpMode     Op = "mode"
	OpStart    Op = "start"
	OpReorder  Op = "reorder"
	OpCopy     Op = "copy"
	OpType     Op = "type"
	OpAbort    Op = "abort"
	OpRestore  Op = "restore"
	OpGhost    Op = "ghost"
	OpTab      Op = "tab"
	OpTabs     Op = "tabs"
	OpList     Op = "list"
	OpPin      Op = "pin"
	OpDelete   Op = "delete"
	OpClear    Op = "clear"
	OpOptions  Op = "options"
	OpBind     Op = "bind"
	OpStatus   Op = "status"
	OpWatch    Op = "watch"
)

// Item is the wire view of a captured item. Image bytes never travel; an
// image's Payload is the path of its PNG file.
type Item struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Payload   string    `json:"payload"`
	Aux       string    `json:"aux,omitempty"`
	SourceApp string    `json:"source_app,omitempty"`
	Tab       string    `json:"tab"`
	Pinned    bool      `json:"pinned,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FromItem converts a domain item.
func FromItem(it *item.Item) Item {
	return Item{
		ID:        it.ID,
		Kind:      string(it.Kind),
		Payload:   it.Payload,
		Aux:       it.Aux,
		SourceApp: it.SourceApp,
		Tab:       it.Tab,
		Pinned:    it.Pinned,
		CreatedAt: it.CreatedAt,
	}
}

// FromItems converts a slice of domain items.
func FromItems(items []*item.Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = FromItem(it)
	}
	return out
}

// Options mirrors the paste toggles. Nil fields in a request are left as is.
type Options struct {
	StripFormatting *bool `json:"strip_formatting,omitempty"`
	AutoEnter       *bool `json:"auto_enter,omitempty"`
	AutoTab         *bool `json:"auto_tab,omitempty"`
}

// Status is the daemon snapshot returned for OpStatus.
type Status struct {
	Version      string            `json:"version"`
	Backend      string            `json:"backend"`
	Mode         string            `json:"mode"`
	Tab          string            `json:"tab"`
	Index        int               `json:"index"`
	Total        int               `json:"total"`
	Remaining    int               `json:"remaining"`
	Busy         bool              `json:"busy"`
	Queued       int               `json:"queued"`
	Batch        bool              `json:"batch"`
	Ghost        bool              `json:"ghost"`
	Typing       bool              `json:"typing"`
	SafetyNet    bool              `json:"safety_net"`
	Options      Options           `json:"options"`
	Hotkeys      map[string]string `json:"hotkeys,omitempty"`
	HotkeyErrors map[string]string `json:"hotkey_errors,omitempty"`
	Watchers     int               `json:"watchers"`
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type Type `json:"type"`

	// REQUEST
	Op      Op       `json:"op,omitempty"`
	ID      int64    `json:"id,omitempty"`
	IDs     []int64  `json:"ids,omitempty"`
	Args    []string `json:"args,omitempty"`
	Query   string   `json:"query,omitempty"`
	Pinned  bool     `json:"pinned,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Tab     string   `json:"tab,omitempty"`
	Options *Options `json:"options,omitempty"`

	// RESPONSE
	Item   *Item    `json:"item,omitempty"`
	Items  []Item   `json:"items,omitempty"`
	Tabs   []string `json:"tabs,omitempty"`
	Count  int      `json:"count,omitempty"`
	Status *Status  `json:"status,omitempty"`

	// EVENT
	Event string          `json:"event,omitempty"`
	Time  time.Time       `json:"time,omitzero"`
	Data  json.RawMessage `json:"data,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// NewRequest returns a REQUEST for op.
func NewRequest(op Op) *Message {
	return &Message{Type: TypeRequest, Op: op}
}

// OK returns an empty RESPONSE.
func OK() *Message {
	return &Message{Type: TypeResponse}
}

// Errorf returns an ERROR message.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}

// NewEvent wraps a daemon event. data is JSON-encoded.
func NewEvent(name string, at time.Time, data any) (*Message, error) {
	m := &Message{Type: TypeEvent, Event: name, Time: at}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", name, err)
		}
		m.Data = raw
	}
	return m, nil
}

// Arg returns the i-th positional argument or "".
func (m *Message) Arg(i int) string {
	if i >= 0 && i < len(m.Args) {
		return m.Args[i]
	}
	return ""
}

// Err converts an ERROR message into a Go error; nil otherwise.
func (m *Message) Err() error {
	if m.Type != TypeError {
		return nil
	}
	return fmt.Errorf("daemon: %s", m.Error)
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	return &m, nil
}
