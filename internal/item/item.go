// Package item defines the captured clipboard entry shared by the detector,
// the magazine, the paste orchestrator, and the record store.
package item

import (
	"fmt"
	"time"
)

// Kind is the content classification of a captured entry.
type Kind string

const (
	KindText     Kind = "text"
	KindRichText Kind = "rich_text"
	KindImage    Kind = "image"
	KindFile     Kind = "file"
	KindURL      Kind = "url"
	KindColor    Kind = "color"
)

// DefaultTab is the tab every capture lands in unless told otherwise.
const DefaultTab = "General"

// ParseKind converts a stored kind string back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindText, KindRichText, KindImage, KindFile, KindURL, KindColor:
		return k, nil
	}
	return "", fmt.Errorf("unknown item kind %q", s)
}

// Item is one captured clipboard entry.
//
// Payload holds the primary value: raw text, a cleaned URL, a color literal,
// a file path, or the file-backed path of an image once persisted. Aux holds
// the secondary value: the original URL before cleaning, the canonical rgb()
// form of a color, or "WxH" for images. Image carries PNG bytes for image
// captures that have not yet been written to disk.
type Item struct {
	ID        int64 // 0 until persisted
	Kind      Kind
	Payload   string
	Aux       string
	Image     []byte
	SourceApp string
	Tab       string
	Pinned    bool
	CreatedAt time.Time
}

// Validate reports whether the kind and payload fields agree.
func (it *Item) Validate() error {
	switch it.Kind {
	case KindImage:
		if len(it.Image) == 0 && it.Payload == "" {
			return fmt.Errorf("image item has neither bytes nor path")
		}
	case KindText, KindRichText, KindFile, KindURL, KindColor:
		if it.Payload == "" {
			return fmt.Errorf("%s item has empty payload", it.Kind)
		}
		if len(it.Image) > 0 {
			return fmt.Errorf("%s item carries image bytes", it.Kind)
		}
	default:
		_, err := ParseKind(string(it.Kind))
		return err
	}
	return nil
}

// IsText reports whether the item is pasted as text.
func (it *Item) IsText() bool { return it.Kind != KindImage }

// Preview returns a short single-line description for logs and listings.
func (it *Item) Preview(n int) string {
	if it.Kind == KindImage {
		if it.Aux != "" {
			return "[image " + it.Aux + "]"
		}
		return "[image]"
	}
	s := []rune(it.Payload)
	for i, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			s[i] = ' '
		}
	}
	if n > 0 && len(s) > n {
		return string(s[:n]) + "…"
	}
	return string(s)
}
