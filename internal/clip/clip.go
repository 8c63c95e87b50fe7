// Package clip provides a unified interface to the system clipboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go: macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go: Windows via golang.design/x/clipboard + GetClipboardSequenceNumber
//	clip_linux.go: Linux via golang.design/x/clipboard, content-hash revision
//	clip_other.go: everything else falls back to the memory backend
//
// Every backend exposes a revision counter that changes when the clipboard
// content changes. The detector polls it; nothing here pushes events.
package clip

// Content is one snapshot of the clipboard. Any subset of the fields may be
// set; an empty Content means the clipboard holds nothing we understand.
type Content struct {
	Text  string
	Image []byte // PNG
	Files []string
}

// Empty reports whether the snapshot carries nothing.
func (c Content) Empty() bool {
	return c.Text == "" && len(c.Image) == 0 && len(c.Files) == 0
}

// Writer is the write half of a Backend.
type Writer interface {
	WriteText(text string) error
	WriteImage(png []byte) error
}

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	Writer

	// Name returns a human-readable name for the backend.
	Name() string

	// Revision returns a counter that changes exactly when the clipboard
	// content changes, including changes made by this process.
	Revision() (uint64, error)

	// Read returns the current clipboard contents.
	Read() (Content, error)

	// Close releases any resources held by the backend.
	Close()
}
