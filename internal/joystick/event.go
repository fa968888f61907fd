package joystick

// EventType is the kind of pointer event.
type EventType int

// Pointer event kinds.
const (
	PointerDown EventType = iota
	PointerMove
	PointerUp
	PointerCancel
	PointerLeave
)

func (t EventType) String() string {
	switch t {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerCancel:
		return "cancel"
	case PointerLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// Source is the input device that produced an event.
type Source int

// Event sources.
const (
	Mouse Source = iota
	Touch
)

// Event is a pointer event in client coordinates.
type Event struct {
	Type    EventType
	Source  Source
	ClientX float64
	ClientY float64
}
