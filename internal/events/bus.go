package events

import (
	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(LightModeChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	// kelindar/event dispatches on the static type, so unwrap the interface
	switch e := ev.(type) {
	case LightModeChangedEvent:
		event.Publish(b.dispatcher, e)
	case PoseChangedEvent:
		event.Publish(b.dispatcher, e)
	case EyesChangedEvent:
		event.Publish(b.dispatcher, e)
	case MonocleChangedEvent:
		event.Publish(b.dispatcher, e)
	case AutomaticChangedEvent:
		event.Publish(b.dispatcher, e)
	case CalibrationChangedEvent:
		event.Publish(b.dispatcher, e)
	case SettingsChangedEvent:
		event.Publish(b.dispatcher, e)
	case ServoLockEvent:
		event.Publish(b.dispatcher, e)
	case SystemCommandEvent:
		event.Publish(b.dispatcher, e)
	case LogEntryEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe subscribes to events with a handler function.
// The handler's parameter type selects the events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e LightModeChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(LightModeChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PoseChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EyesChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(MonocleChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(AutomaticChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CalibrationChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SettingsChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ServoLockEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SystemCommandEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LogEntryEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
