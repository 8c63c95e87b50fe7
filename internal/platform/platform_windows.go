//go:build windows

package platform

import (
	"fmt"
	"path/filepath"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32         = windows.NewLazySystemDLL("user32.dll")
	sendInput      = user32.NewProc("SendInput")
	mapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const (
	inputKeyboard     = 1
	keyeventfKeyup    = 0x0002
	keyeventfUnicode  = 0x0004
	mapvkVkToVsc      = 0
	vkTab             = 0x09
	vkReturn          = 0x0D
	vkControl         = 0x11
	vkV               = 0x56
	maxTitle          = 512
	maxImagePath      = windows.MAX_PATH
	processQueryLimit = windows.PROCESS_QUERY_LIMITED_INFORMATION
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // pad to sizeof(INPUT)
}

type win32 struct{}

// New returns the SendInput injector and the Win32 foreground provider.
func New() (Injector, Foreground) {
	return win32{}, win32{}
}

func scan(vk uintptr) uint16 {
	s, _, _ := mapVirtualKeyW.Call(vk, mapvkVkToVsc)
	return uint16(s)
}

func vkInput(vk uint16, up bool) input {
	var flags uint32
	if up {
		flags = keyeventfKeyup
	}
	return input{
		inputType: inputKeyboard,
		ki:        keyboardInput{wVk: vk, wScan: scan(uintptr(vk)), dwFlags: flags},
	}
}

func send(inputs []input) error {
	ret, _, err := sendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if ret == 0 {
		return fmt.Errorf("SendInput: %w", err)
	}
	return nil
}

// PasteCombo sends Ctrl+V in one SendInput call. Scan codes are filled in
// so elevated targets accept the input.
func (win32) PasteCombo() error {
	return send([]input{
		vkInput(vkControl, false),
		vkInput(vkV, false),
		vkInput(vkV, true),
		vkInput(vkControl, true),
	})
}

func (win32) Key(k Key, up bool) error {
	vk := uint16(vkReturn)
	if k == KeyTab {
		vk = vkTab
	}
	return send([]input{vkInput(vk, up)})
}

// TypeRune sends r as KEYEVENTF_UNICODE input. Runes outside the BMP go out
// as a surrogate pair.
func (w win32) TypeRune(r rune) error {
	if r == '\n' {
		if err := w.Key(KeyEnter, false); err != nil {
			return err
		}
		return w.Key(KeyEnter, true)
	}
	units := utf16.Encode([]rune{r})
	inputs := make([]input, 0, 2*len(units))
	for _, u := range units {
		inputs = append(inputs,
			input{inputType: inputKeyboard, ki: keyboardInput{wScan: u, dwFlags: keyeventfUnicode}},
			input{inputType: inputKeyboard, ki: keyboardInput{wScan: u, dwFlags: keyeventfUnicode | keyeventfKeyup}},
		)
	}
	return send(inputs)
}

func (win32) Active() (App, error) {
	var app App
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return app, fmt.Errorf("no foreground window")
	}

	buf := make([]uint16, maxTitle)
	if n, err := windows.GetWindowText(hwnd, &buf[0], int32(len(buf))); err == nil && n > 0 {
		app.Title = windows.UTF16ToString(buf[:n])
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil || pid == 0 {
		return app, nil
	}
	h, err := windows.OpenProcess(processQueryLimit, false, pid)
	if err != nil {
		return app, nil
	}
	defer windows.CloseHandle(h)

	path := make([]uint16, maxImagePath)
	size := uint32(len(path))
	if err := windows.QueryFullProcessImageName(h, 0, &path[0], &size); err == nil {
		app.Exe = filepath.Base(windows.UTF16ToString(path[:size]))
	}
	return app, nil
}
