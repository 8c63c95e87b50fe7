//go:build windows

package clip

import (
	"fmt"
	"log/slog"
	"runtime"
	"syscall"
	"unsafe"

	"golang.design/x/clipboard"
	"golang.org/x/sys/windows"
)

var (
	user32                     = windows.NewLazySystemDLL("user32.dll")
	shell32                    = windows.NewLazySystemDLL("shell32.dll")
	getClipboardSequenceNumber = user32.NewProc("GetClipboardSequenceNumber")
	openClipboard              = user32.NewProc("OpenClipboard")
	closeClipboard             = user32.NewProc("CloseClipboard")
	isClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	getClipboardData           = user32.NewProc("GetClipboardData")
	dragQueryFileW             = shell32.NewProc("DragQueryFileW")
)

const cfHDrop = 15

type windowsBackend struct{}

// New returns the Windows clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
		return NewMemory()
	}
	return &windowsBackend{}
}

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

func (b *windowsBackend) Revision() (uint64, error) {
	n, _, _ := getClipboardSequenceNumber.Call()
	return uint64(uint32(n)), nil
}

func (b *windowsBackend) Read() (Content, error) {
	var c Content
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		c.Image = img
	}
	files, err := readFileDrop()
	if err != nil {
		return c, err
	}
	c.Files = files
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		c.Text = string(text)
	}
	return c, nil
}

// readFileDrop returns the paths of an Explorer copy (CF_HDROP), if any.
func readFileDrop() ([]string, error) {
	if ok, _, _ := isClipboardFormatAvailable.Call(cfHDrop); ok == 0 {
		return nil, nil
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if r, _, err := openClipboard.Call(0); r == 0 {
		return nil, fmt.Errorf("OpenClipboard: %w", err)
	}
	defer closeClipboard.Call()

	h, _, err := getClipboardData.Call(cfHDrop)
	if h == 0 {
		if err != nil && err != syscall.Errno(0) {
			return nil, fmt.Errorf("GetClipboardData: %w", err)
		}
		return nil, nil
	}

	count, _, _ := dragQueryFileW.Call(h, 0xFFFFFFFF, 0, 0)
	files := make([]string, 0, count)
	for i := uintptr(0); i < count; i++ {
		n, _, _ := dragQueryFileW.Call(h, i, 0, 0)
		if n == 0 {
			continue
		}
		buf := make([]uint16, n+1)
		dragQueryFileW.Call(h, i, uintptr(unsafe.Pointer(&buf[0])), n+1)
		files = append(files, windows.UTF16ToString(buf))
	}
	return files, nil
}

func (b *windowsBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *windowsBackend) WriteImage(png []byte) error {
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

func (b *windowsBackend) Close() {}
