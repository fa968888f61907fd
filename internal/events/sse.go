package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges kelindar/event callback-based subscriptions to channels.
// Events are dropped when ch is full so a slow reader never stalls publishers.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeDroid forwards every droid state event (everything but log
// entries) to ch. The returned function unsubscribes all of them.
func SubscribeDroid(bus *Bus, ch chan<- any) func() {
	unsubscribers := []func(){
		SubscribeToChannel[LightModeChangedEvent](bus, ch),
		SubscribeToChannel[PoseChangedEvent](bus, ch),
		SubscribeToChannel[EyesChangedEvent](bus, ch),
		SubscribeToChannel[MonocleChangedEvent](bus, ch),
		SubscribeToChannel[AutomaticChangedEvent](bus, ch),
		SubscribeToChannel[CalibrationChangedEvent](bus, ch),
		SubscribeToChannel[SettingsChangedEvent](bus, ch),
		SubscribeToChannel[ServoLockEvent](bus, ch),
		SubscribeToChannel[SystemCommandEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubscribers {
			unsub()
		}
	}
}

// EventTypes maps SSE event names to their payload types.
func EventTypes() map[string]any {
	return map[string]any{
		"light-mode-changed":  LightModeChangedEvent{},
		"pose-changed":        PoseChangedEvent{},
		"eyes-changed":        EyesChangedEvent{},
		"monocle-changed":     MonocleChangedEvent{},
		"automatic-changed":   AutomaticChangedEvent{},
		"calibration-changed": CalibrationChangedEvent{},
		"settings-changed":    SettingsChangedEvent{},
		"servo-lock":          ServoLockEvent{},
		"system-command":      SystemCommandEvent{},
	}
}
