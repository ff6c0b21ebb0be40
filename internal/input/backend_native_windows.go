//go:build windows

package input

import (
	"context"
	"fmt"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Win32 input event constants.
const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040

	keyeventfKeyUp   = 0x0002
	keyeventfUnicode = 0x0004

	keyDownBit = 0x8000
)

// vkCodes maps canonical key names to Windows virtual-key codes.
var vkCodes = map[string]uint16{
	"backspace": 0x08, "tab": 0x09, "enter": 0x0D, "shift": 0x10,
	"control": 0x11, "alt": 0x12, "pause": 0x13, "capslock": 0x14,
	"esc": 0x1B, "space": 0x20, "page_up": 0x21, "page_down": 0x22,
	"end": 0x23, "home": 0x24, "left": 0x25, "up": 0x26,
	"right": 0x27, "down": 0x28, "insert": 0x2D, "delete": 0x2E,
	"command": 0x5B,
	"f1":      0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73, "f5": 0x74,
	"f6": 0x75, "f7": 0x76, "f8": 0x77, "f9": 0x78, "f10": 0x79,
	"f11": 0x7A, "f12": 0x7B,
}

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		vkCodes[string(c)] = uint16(c - 'a' + 0x41)
	}
	for c := byte('0'); c <= '9'; c++ {
		vkCodes[string(c)] = uint16(c - '0' + 0x30)
	}
}

type mouseInput struct {
	dx          int32
	dy          int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
	_           [8]byte // pad to the size of mouseInput
}

// inputEvent mirrors the Win32 INPUT structure; mouseInput is the largest
// union member.
type inputEvent struct {
	inputType uint32
	_         uint32 // union alignment
	mi        mouseInput
}

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procSendInput        = user32.NewProc("SendInput")
	procSetCursorPos     = user32.NewProc("SetCursorPos")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
)

// NativeBackend synthesizes input through SendInput and SetCursorPos. It is
// the highest-priority link of the chain on Windows.
type NativeBackend struct{}

func NewNativeBackend() *NativeBackend { return &NativeBackend{} }

func (b *NativeBackend) Name() string { return "native" }

func (b *NativeBackend) Available() bool {
	return user32.Load() == nil && procSendInput.Find() == nil
}

func (b *NativeBackend) Dispatch(ctx context.Context, call Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch call.Kind {
	case CallMove:
		return b.setCursor(call.X, call.Y)

	case CallClick:
		down, up, err := buttonFlags(call.Button)
		if err != nil {
			return err
		}
		count := 1
		if call.Double {
			count = 2
		}
		for i := 0; i < count; i++ {
			if err := b.sendMouse(down); err != nil {
				return err
			}
			if err := b.sendMouse(up); err != nil {
				return err
			}
		}
		return nil

	case CallKeyDown:
		return b.sendKey(call.Key, false)

	case CallKeyUp:
		return b.sendKey(call.Key, true)

	case CallKeyTap:
		return b.keyTap(call.Key, call.Modifiers)

	case CallTypeText:
		return b.typeText(call.Text)

	default:
		return fmt.Errorf("unknown call kind %q", call.Kind)
	}
}

// KeyState reads the async key state for the named key.
func (b *NativeBackend) KeyState(key string) (bool, error) {
	vk, ok := vkCodes[NormalizeKey(key)]
	if !ok {
		return false, fmt.Errorf("no virtual-key code for %q", key)
	}
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return state&keyDownBit != 0, nil
}

func (b *NativeBackend) setCursor(x, y int) error {
	ok, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if ok == 0 {
		return fmt.Errorf("SetCursorPos(%d,%d): %v", x, y, err)
	}
	return nil
}

func (b *NativeBackend) sendMouse(flags uint32) error {
	ev := inputEvent{
		inputType: inputMouse,
		mi:        mouseInput{dwFlags: flags},
	}
	return b.send([]inputEvent{ev})
}

func (b *NativeBackend) sendKey(key string, up bool) error {
	vk, ok := vkCodes[NormalizeKey(key)]
	if !ok {
		return fmt.Errorf("no virtual-key code for %q", key)
	}
	var flags uint32
	if up {
		flags = keyeventfKeyUp
	}
	ev := inputEvent{inputType: inputKeyboard}
	ki := (*keyboardInput)(unsafe.Pointer(&ev.mi))
	ki.wVk = vk
	ki.dwFlags = flags
	return b.send([]inputEvent{ev})
}

func (b *NativeBackend) keyTap(key string, modifiers []string) error {
	mods := NormalizeModifiers(modifiers)
	for _, mod := range mods {
		if err := b.sendKey(mod, false); err != nil {
			return err
		}
	}
	if err := b.sendKey(key, false); err != nil {
		return err
	}
	if err := b.sendKey(key, true); err != nil {
		return err
	}
	for i := len(mods) - 1; i >= 0; i-- {
		if err := b.sendKey(mods[i], true); err != nil {
			return err
		}
	}
	return nil
}

// typeText injects text as KEYEVENTF_UNICODE events, one code unit at a time.
func (b *NativeBackend) typeText(text string) error {
	for _, unit := range utf16.Encode([]rune(text)) {
		for _, flags := range []uint32{keyeventfUnicode, keyeventfUnicode | keyeventfKeyUp} {
			ev := inputEvent{inputType: inputKeyboard}
			ki := (*keyboardInput)(unsafe.Pointer(&ev.mi))
			ki.wScan = unit
			ki.dwFlags = flags
			if err := b.send([]inputEvent{ev}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *NativeBackend) send(events []inputEvent) error {
	sent, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(sent) != len(events) {
		return fmt.Errorf("SendInput injected %d of %d events: %v", sent, len(events), err)
	}
	return nil
}

func buttonFlags(button string) (down, up uint32, err error) {
	switch button {
	case "", "left":
		return mouseeventfLeftDown, mouseeventfLeftUp, nil
	case "right":
		return mouseeventfRightDown, mouseeventfRightUp, nil
	case "center", "middle":
		return mouseeventfMiddleDown, mouseeventfMiddleUp, nil
	default:
		return 0, 0, fmt.Errorf("unknown mouse button %q", button)
	}
}
