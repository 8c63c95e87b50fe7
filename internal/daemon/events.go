package daemon

import (
	"go.klb.dev/magclip/internal/item"
	"go.klb.dev/magclip/internal/message"
)

// Payloads of the events published on the hub. They are encoded as JSON for
// watchers.

type queueEvent struct {
	Index     int `json:"index"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

type ghostEvent struct {
	On bool `json:"on"`
}

type tabEvent struct {
	Tab string `json:"tab"`
}

type hotkeyEvent struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}

type failedEvent struct {
	Item  message.Item `json:"item"`
	Error string       `json:"error"`
}

type typingEvent struct {
	Done     int    `json:"done"`
	Total    int    `json:"total"`
	Finished bool   `json:"finished,omitempty"`
	Aborted  bool   `json:"aborted,omitempty"`
	Error    string `json:"error,omitempty"`
}

func itemEvent(it *item.Item) message.Item {
	if it == nil {
		return message.Item{}
	}
	return message.FromItem(it)
}
