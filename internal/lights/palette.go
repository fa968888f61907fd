package lights

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Palette shared by all modes.
var (
	Blue     = rgb(0, 0, 255)
	Red      = rgb(255, 0, 0)
	Orange   = rgb(255, 165, 0)
	Magenta  = rgb(255, 0, 255)
	Cyan     = rgb(0, 255, 255)
	Yellow   = rgb(255, 255, 0)
	Black    = rgb(0, 0, 0)
	DarkGray = rgb(50, 50, 50)
)

// Roles within the palette.
var (
	// Baseline is painted on both LEDs whenever the mode changes.
	Baseline = DarkGray
	// On is the steady colour of Static and the fade's blink phase.
	On = Blue
	// Dark is the unlit step inside animated patterns.
	Dark = Black
	// Alert and Accent alternate in WarningBlink.
	Alert  = Red
	Accent = Blue
)

var fadePalette = [3]colorful.Color{Cyan, Magenta, Yellow}

// scale multiplies every channel by brightness, truncating to whole 8-bit steps.
func scale(c colorful.Color, brightness float64) colorful.Color {
	r, g, b := c.RGB255()
	return colorful.Color{
		R: math.Floor(float64(r)*brightness) / 255,
		G: math.Floor(float64(g)*brightness) / 255,
		B: math.Floor(float64(b)*brightness) / 255,
	}
}

// Equal reports whether two colours are identical at 8-bit precision.
func Equal(a, b colorful.Color) bool {
	ar, ag, ab := a.RGB255()
	br, bg, bb := b.RGB255()
	return ar == br && ag == bg && ab == bb
}
