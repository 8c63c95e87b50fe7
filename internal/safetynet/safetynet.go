// Package safetynet keeps a copy of the clipboard as it was before magclip
// first overwrote it, so the user can get their own value back.
package safetynet

import (
	"fmt"
	"strings"
	"sync"

	"go.klb.dev/magclip/internal/clip"
)

// Reader is the read half of a clipboard backend.
type Reader interface {
	Read() (clip.Content, error)
}

// Net holds at most one snapshot. It is safe for concurrent use.
type Net struct {
	mu   sync.Mutex
	snap *clip.Content
}

// Backup snapshots the current clipboard unless a snapshot is already held.
// An empty clipboard leaves the net unarmed.
func (n *Net) Backup(r Reader) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.snap != nil {
		return nil
	}
	c, err := r.Read()
	if err != nil {
		return fmt.Errorf("backup clipboard: %w", err)
	}
	if c.Empty() {
		return nil
	}
	c.Image = append([]byte(nil), c.Image...)
	c.Files = append([]string(nil), c.Files...)
	n.snap = &c
	return nil
}

// Held reports whether a snapshot is waiting to be restored.
func (n *Net) Held() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snap != nil
}

// Restore writes the snapshot back, preferring the image, then text, then
// the file list as newline-separated paths, and drops it. It reports false
// when there was nothing to restore.
func (n *Net) Restore(w clip.Writer) (bool, error) {
	n.mu.Lock()
	snap := n.snap
	n.snap = nil
	n.mu.Unlock()
	if snap == nil {
		return false, nil
	}

	var err error
	switch {
	case len(snap.Image) > 0:
		err = w.WriteImage(snap.Image)
	case snap.Text != "":
		err = w.WriteText(snap.Text)
	default:
		err = w.WriteText(strings.Join(snap.Files, "\n"))
	}
	if err != nil {
		return false, fmt.Errorf("restore clipboard: %w", err)
	}
	return true, nil
}

// Clear drops the snapshot without restoring it.
func (n *Net) Clear() {
	n.mu.Lock()
	n.snap = nil
	n.mu.Unlock()
}
