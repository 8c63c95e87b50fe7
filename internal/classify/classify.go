// Package classify turns a raw clipboard snapshot into typed capture items.
package classify

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png" // DecodeConfig for captured PNGs
	"os"
	"path"
	"regexp"
	"runtime"
	"strings"

	"go.klb.dev/magclip/internal/clip"
	"go.klb.dev/magclip/internal/item"
)

var winPathRE = regexp.MustCompile(`(?i)^[A-Z]:\\(?:[^\\/:*?"<>|\r\n]+\\)*[^\\/:*?"<>|\r\n]*$`)

// Classifier applies the content-kind rules. The zero value is ready to use
// and checks candidate paths against the real filesystem.
type Classifier struct {
	// Stat reports whether a path exists. Nil means os.Stat.
	Stat func(path string) bool
	// POSIX also accepts absolute slash-rooted paths. New sets it on every
	// OS except Windows.
	POSIX bool
}

// New returns a Classifier for the running OS.
func New() *Classifier {
	return &Classifier{POSIX: runtime.GOOS != "windows"}
}

func (c *Classifier) exists(p string) bool {
	if c.Stat != nil {
		return c.Stat(p)
	}
	_, err := os.Stat(p)
	return err == nil
}

func (c *Classifier) isPath(s string) bool {
	if strings.ContainsAny(s, "\r\n") {
		return false
	}
	if winPathRE.MatchString(s) {
		return c.exists(s)
	}
	if c.POSIX && path.IsAbs(s) {
		return c.exists(s)
	}
	return false
}

// Text classifies a text payload. The input is trimmed before matching and
// the first matching rule wins: color, URL, existing path, plain text.
// It returns false when nothing is left after trimming.
func (c *Classifier) Text(raw string) (item.Item, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return item.Item{}, false
	}

	if IsColor(s) {
		it := item.Item{Kind: item.KindColor, Payload: s}
		if rgb, ok := ParseColor(s); ok {
			it.Aux = rgb.String()
		}
		return it, true
	}
	if IsURL(s) {
		cleaned := CleanURL(s)
		it := item.Item{Kind: item.KindURL, Payload: cleaned}
		if cleaned != s {
			it.Aux = s
		}
		return it, true
	}
	if c.isPath(s) {
		return item.Item{Kind: item.KindFile, Payload: s}, true
	}
	return item.Item{Kind: item.KindText, Payload: s}, true
}

// Classify returns the items a snapshot represents. An image takes priority
// over everything else; otherwise each copied file yields one item;
// otherwise the text is classified. An empty result means nothing usable.
func (c *Classifier) Classify(content clip.Content) []item.Item {
	if len(content.Image) > 0 {
		it := item.Item{Kind: item.KindImage, Image: content.Image}
		if w, h, err := ImageSize(content.Image); err == nil {
			it.Aux = fmt.Sprintf("%dx%d", w, h)
		}
		return []item.Item{it}
	}

	if len(content.Files) > 0 {
		items := make([]item.Item, 0, len(content.Files))
		for _, f := range content.Files {
			if f = strings.TrimSpace(f); f != "" {
				items = append(items, item.Item{Kind: item.KindFile, Payload: f})
			}
		}
		if len(items) > 0 {
			return items
		}
	}

	if it, ok := c.Text(content.Text); ok {
		return []item.Item{it}
	}
	return nil
}

// ImageSize reads the pixel dimensions from an encoded image header.
func ImageSize(data []byte) (w, h int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
