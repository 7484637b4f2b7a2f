//go:build windows

package overlay

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterClassExW           = user32.NewProc("RegisterClassExW")
	procCreateWindowExW            = user32.NewProc("CreateWindowExW")
	procDefWindowProcW             = user32.NewProc("DefWindowProcW")
	procDestroyWindow              = user32.NewProc("DestroyWindow")
	procIsWindow                   = user32.NewProc("IsWindow")
	procGetMessageW                = user32.NewProc("GetMessageW")
	procTranslateMessage           = user32.NewProc("TranslateMessage")
	procDispatchMessageW           = user32.NewProc("DispatchMessageW")
	procPostQuitMessage            = user32.NewProc("PostQuitMessage")
	procPostMessageW               = user32.NewProc("PostMessageW")
	procSetWindowPos               = user32.NewProc("SetWindowPos")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
	procFindWindowExW              = user32.NewProc("FindWindowExW")
	procGetWindowRect              = user32.NewProc("GetWindowRect")
	procGetClientRect              = user32.NewProc("GetClientRect")
	procGetDpiForSystem            = user32.NewProc("GetDpiForSystem")
	procLoadCursorW                = user32.NewProc("LoadCursorW")
	procBeginPaint                 = user32.NewProc("BeginPaint")
	procEndPaint                   = user32.NewProc("EndPaint")
	procGetDC                      = user32.NewProc("GetDC")
	procReleaseDC                  = user32.NewProc("ReleaseDC")
	procStretchDIBits              = gdi32.NewProc("StretchDIBits")
	procGetModuleHandleW           = kernel32.NewProc("GetModuleHandleW")
)

const (
	csParentDC = 0x0080
	csSaveBits = 0x0800

	wsPopup   = 0x80000000
	wsVisible = 0x10000000

	wsExTopmost     = 0x00000008
	wsExTransparent = 0x00000020
	wsExToolWindow  = 0x00000080
	wsExLayered     = 0x00080000
	wsExNoActivate  = 0x08000000

	swpNoSize     = 0x0001
	swpNoMove     = 0x0002
	swpNoActivate = 0x0010

	lwaColorKey = 0x00000001
	idcArrow    = 32512

	dibRGBColors = 0
	srcCopy      = 0x00CC0020

	// msgRequestClose is a private message asking the window to destroy
	// itself on its own thread (WM_APP + 1).
	msgRequestClose = 0x8000 + 1
)

// hwndTopmost is HWND_TOPMOST, (HWND)-1.
var hwndTopmost = ^uintptr(0)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

type nativePoint struct {
	X, Y int32
}

type nativeMsg struct {
	Hwnd    windows.HWND
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      nativePoint
}

type paintStruct struct {
	Hdc       windows.Handle
	Erase     int32
	Paint     windows.Rect
	Restore   int32
	IncUpdate int32
	Reserved  [32]byte
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// windowsSystem binds WindowSystem to user32 and gdi32.
type windowsSystem struct {
	mu       sync.Mutex
	handlers map[windows.HWND]func(Message) Disposition

	// pinning guards against re-entering the window procedure through the
	// z-order change notifications SetWindowPos sends. Host thread only.
	pinning bool
}

var (
	wndProcOnce     sync.Once
	wndProcCallback uintptr
	activeSystem    *windowsSystem
)

// NewWindowSystem returns the native Win32 window system.
func NewWindowSystem() (WindowSystem, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	s := &windowsSystem{handlers: make(map[windows.HWND]func(Message) Disposition)}
	activeSystem = s
	wndProcOnce.Do(func() {
		wndProcCallback = windows.NewCallback(wndProc)
	})
	return s, nil
}

func wndProc(hwnd, msg, wparam, lparam uintptr) uintptr {
	s := activeSystem
	if s == nil {
		return defWindowProc(hwnd, msg, wparam, lparam)
	}
	return s.windowProc(windows.HWND(hwnd), uint32(msg), wparam, lparam)
}

func defWindowProc(hwnd, msg, wparam, lparam uintptr) uintptr {
	r, _, _ := procDefWindowProcW.Call(hwnd, msg, wparam, lparam)
	return r
}

func (s *windowsSystem) windowProc(hwnd windows.HWND, msg uint32, wparam, lparam uintptr) uintptr {
	if msg == msgRequestClose {
		procDestroyWindow.Call(uintptr(hwnd))
		return 0
	}

	s.mu.Lock()
	fn := s.handlers[hwnd]
	s.mu.Unlock()
	if fn == nil {
		return defWindowProc(uintptr(hwnd), uintptr(msg), wparam, lparam)
	}

	var ps paintStruct
	if msg == MsgPaint {
		procBeginPaint.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&ps)))
		defer procEndPaint.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&ps)))
	}

	switch fn(Message{ID: msg, WParam: wparam, LParam: lparam}) {
	case Consumed:
		return 0
	case EndPump:
		procPostQuitMessage.Call(0)
		return 0
	default:
		return defWindowProc(uintptr(hwnd), uintptr(msg), wparam, lparam)
	}
}

func (s *windowsSystem) Register(class string) error {
	name, err := windows.UTF16PtrFromString(class)
	if err != nil {
		return err
	}
	instance, _, _ := procGetModuleHandleW.Call(0)
	cursor, _, _ := procLoadCursorW.Call(0, idcArrow)

	wc := wndClassEx{
		Style:     csParentDC | csSaveBits,
		WndProc:   wndProcCallback,
		Instance:  windows.Handle(instance),
		Cursor:    windows.Handle(cursor),
		ClassName: name,
	}
	wc.Size = uint32(unsafe.Sizeof(wc))

	atom, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	if atom == 0 {
		if errors.Is(callErr, windows.ERROR_CLASS_ALREADY_EXISTS) {
			return nil
		}
		return fmt.Errorf("RegisterClassExW: %w", callErr)
	}
	return nil
}

func (s *windowsSystem) Anchor() (Anchor, error) {
	tray, err := findWindow(0, "Shell_TrayWnd")
	if err != nil {
		return Anchor{}, err
	}
	notify, err := findWindow(tray, "TrayNotifyWnd")
	if err != nil {
		return Anchor{}, err
	}

	var r windows.Rect
	ok, _, callErr := procGetWindowRect.Call(uintptr(notify), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return Anchor{}, fmt.Errorf("GetWindowRect: %w", callErr)
	}

	return Anchor{
		Parent: WindowHandle(tray),
		Bounds: Rect{X: r.Left, Y: r.Top, W: r.Right - r.Left, H: r.Bottom - r.Top},
	}, nil
}

func findWindow(parent windows.HWND, class string) (windows.HWND, error) {
	name, err := windows.UTF16PtrFromString(class)
	if err != nil {
		return 0, err
	}
	h, _, callErr := procFindWindowExW.Call(uintptr(parent), 0, uintptr(unsafe.Pointer(name)), 0)
	if h == 0 {
		return 0, fmt.Errorf("find window %q: %w", class, callErr)
	}
	return windows.HWND(h), nil
}

func (s *windowsSystem) DPI() uint32 {
	if procGetDpiForSystem.Find() != nil {
		return baseDPI
	}
	dpi, _, _ := procGetDpiForSystem.Call()
	return uint32(dpi)
}

func (s *windowsSystem) Create(cfg WindowConfig) (WindowHandle, error) {
	class, err := windows.UTF16PtrFromString(cfg.Class)
	if err != nil {
		return 0, err
	}
	title, err := windows.UTF16PtrFromString(cfg.Title)
	if err != nil {
		return 0, err
	}

	var exStyle, style uintptr = 0, wsPopup
	if cfg.Style.Has(StyleLayered) {
		exStyle |= wsExLayered
	}
	if cfg.Style.Has(StyleClickThrough) {
		exStyle |= wsExTransparent
	}
	if cfg.Style.Has(StyleTopmost) {
		exStyle |= wsExTopmost
	}
	if cfg.Style.Has(StyleNoActivate) {
		exStyle |= wsExNoActivate
	}
	if cfg.Style.Has(StyleToolWindow) {
		exStyle |= wsExToolWindow
	}
	if cfg.Style.Has(StyleVisible) {
		style |= wsVisible
	}

	b := cfg.Bounds
	hwnd, _, callErr := procCreateWindowExW.Call(
		exStyle,
		uintptr(unsafe.Pointer(class)),
		uintptr(unsafe.Pointer(title)),
		style,
		uintptr(b.X), uintptr(b.Y), uintptr(b.W), uintptr(b.H),
		0, 0, 0, 0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowExW: %w", callErr)
	}

	if cfg.Style.Has(StyleLayered) {
		// Black is the transparent color key.
		procSetLayeredWindowAttributes.Call(hwnd, 0, 0, lwaColorKey)
	}
	procSetWindowPos.Call(hwnd, hwndTopmost, uintptr(b.X), uintptr(b.Y), uintptr(b.W), uintptr(b.H), swpNoActivate)

	return WindowHandle(hwnd), nil
}

func (s *windowsSystem) PinTopmost(h WindowHandle) error {
	if s.pinning {
		return nil
	}
	s.pinning = true
	defer func() { s.pinning = false }()

	ok, _, callErr := procSetWindowPos.Call(uintptr(h), hwndTopmost, 0, 0, 0, 0, swpNoSize|swpNoMove|swpNoActivate)
	if ok == 0 {
		return fmt.Errorf("SetWindowPos: %w", callErr)
	}
	return nil
}

func (s *windowsSystem) Pump(h WindowHandle, fn func(Message) Disposition) error {
	hwnd := windows.HWND(h)
	s.mu.Lock()
	s.handlers[hwnd] = fn
	s.mu.Unlock()

	var m nativeMsg
	for {
		// The host goroutine owns its OS thread, so every message on this
		// thread's queue belongs to the overlay.
		r, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case 0:
			return nil
		case -1:
			return fmt.Errorf("GetMessageW: %w", callErr)
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func (s *windowsSystem) Release(h WindowHandle) {
	hwnd := windows.HWND(h)
	s.mu.Lock()
	delete(s.handlers, hwnd)
	s.mu.Unlock()

	if alive, _, _ := procIsWindow.Call(uintptr(hwnd)); alive != 0 {
		procDestroyWindow.Call(uintptr(hwnd))
	}
}

func (s *windowsSystem) RequestClose(h WindowHandle) error {
	ok, _, callErr := procPostMessageW.Call(uintptr(h), msgRequestClose, 0, 0)
	if ok == 0 {
		return fmt.Errorf("PostMessageW: %w", callErr)
	}
	return nil
}

func (s *windowsSystem) Present(h WindowHandle, img image.Image) error {
	pixels, w, ht := toBGRA(img)
	if w == 0 || ht == 0 {
		return nil
	}

	var client windows.Rect
	procGetClientRect.Call(uintptr(h), uintptr(unsafe.Pointer(&client)))

	hdc, _, callErr := procGetDC.Call(uintptr(h))
	if hdc == 0 {
		return fmt.Errorf("GetDC: %w", callErr)
	}
	defer procReleaseDC.Call(uintptr(h), hdc)

	bmi := bitmapInfo{Header: bitmapInfoHeader{
		Width:    int32(w),
		Height:   -int32(ht), // top-down rows
		Planes:   1,
		BitCount: 32,
	}}
	bmi.Header.Size = uint32(unsafe.Sizeof(bmi.Header))

	lines, _, callErr := procStretchDIBits.Call(
		hdc,
		0, 0, uintptr(client.Right-client.Left), uintptr(client.Bottom-client.Top),
		0, 0, uintptr(w), uintptr(ht),
		uintptr(unsafe.Pointer(&pixels[0])),
		uintptr(unsafe.Pointer(&bmi)),
		dibRGBColors,
		srcCopy,
	)
	if lines == 0 {
		return fmt.Errorf("StretchDIBits: %w", callErr)
	}
	return nil
}
