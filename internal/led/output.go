// Package led drives the physical chest LEDs of the droid.
//
// Each chest LED is an RGB multicolour class LED under /sys/class/leds.
// Boards without them get no-op outputs so the light sequencer still runs.
package led

import "github.com/lucasb-eyer/go-colorful"

// Output is a single RGB LED. It satisfies lights.LED.
type Output interface {
	SetColor(c colorful.Color)
	// Name identifies the LED in logs and the API.
	Name() string
}
