//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #include <stdlib.h>
// #import <Cocoa/Cocoa.h>
//
// NSInteger magclip_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
//
// char* magclip_fileURLs() {
//     NSPasteboard *pb = [NSPasteboard generalPasteboard];
//     NSArray *urls = [pb readObjectsForClasses:@[[NSURL class]]
//                                       options:@{NSPasteboardURLReadingFileURLsOnlyKey: @YES}];
//     if (urls == nil || [urls count] == 0) {
//         return NULL;
//     }
//     NSMutableArray *paths = [NSMutableArray arrayWithCapacity:[urls count]];
//     for (NSURL *u in urls) {
//         [paths addObject:[u path]];
//     }
//     return strdup([[paths componentsJoinedByString:@"\n"] UTF8String]);
// }
import "C"

import (
	"log/slog"
	"strings"
	"unsafe"

	"golang.design/x/clipboard"
)

type darwinBackend struct{}

// New returns the macOS clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
		return NewMemory()
	}
	return &darwinBackend{}
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) Revision() (uint64, error) {
	return uint64(C.magclip_changeCount()), nil
}

func (b *darwinBackend) Read() (Content, error) {
	var c Content
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		c.Text = string(text)
	}
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		c.Image = img
	}
	if cs := C.magclip_fileURLs(); cs != nil {
		joined := C.GoString(cs)
		C.free(unsafe.Pointer(cs))
		c.Files = strings.Split(joined, "\n")
	}
	return c, nil
}

func (b *darwinBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *darwinBackend) WriteImage(png []byte) error {
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func (b *darwinBackend) Close() {}
