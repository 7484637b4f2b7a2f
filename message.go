package overlay

// Native message identifiers. The values match the Win32 WM_* codes so the
// Windows binding can pass messages through unchanged.
const (
	MsgDestroy   uint32 = 0x0002
	MsgSize      uint32 = 0x0005
	MsgPaint     uint32 = 0x000F
	MsgClose     uint32 = 0x0010
	MsgKeyDown   uint32 = 0x0100
	MsgMouseMove uint32 = 0x0200
)

// Message is a raw native window message.
type Message struct {
	ID     uint32
	WParam uintptr
	LParam uintptr
}

// Disposition tells the window system what to do with a message after the
// host has seen it.
type Disposition int

const (
	// PassThrough hands the message to the platform's default processing.
	PassThrough Disposition = iota
	// Consumed means the host handled the message.
	Consumed
	// EndPump means the window is gone and the message loop must end.
	EndPump
)

func (d Disposition) String() string {
	switch d {
	case PassThrough:
		return "PassThrough"
	case Consumed:
		return "Consumed"
	case EndPump:
		return "EndPump"
	default:
		return "Disposition(?)"
	}
}

func loword(v uintptr) uint32 { return uint32(v & 0xFFFF) }
func hiword(v uintptr) uint32 { return uint32((v >> 16) & 0xFFFF) }

// Translate maps a native message to the Event it produces.
// ok is false for messages that carry no event. Destroy produces the
// terminal AppDestroyEvent.
func Translate(msg Message) (ev Event, ok bool) {
	switch msg.ID {
	case MsgPaint:
		return PaintEvent{}, true
	case MsgSize:
		return ResizeEvent{Width: loword(msg.LParam), Height: hiword(msg.LParam)}, true
	case MsgClose:
		return CloseEvent{}, true
	case MsgKeyDown:
		return KeyDownEvent{Code: uint32(msg.WParam)}, true
	case MsgMouseMove:
		// Client coordinates are signed 16-bit values on multi-monitor setups.
		x := int32(int16(loword(msg.LParam)))
		y := int32(int16(hiword(msg.LParam)))
		return MouseMoveEvent{X: x, Y: y}, true
	case MsgDestroy:
		return AppDestroyEvent{}, true
	default:
		return nil, false
	}
}

// MakeLParam packs two 16-bit values the way the platform does for size and
// pointer messages.
func MakeLParam(lo, hi uint16) uintptr {
	return uintptr(uint32(hi)<<16 | uint32(lo))
}
