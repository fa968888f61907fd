package panel

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/huyangdroid/droidpanel/internal/lights"
)

// previewLED mirrors one chest LED on screen. The sequencer paints it from
// its own goroutines; View reads it from the program loop.
type previewLED struct {
	mu    sync.Mutex
	color colorful.Color
}

func newPreviewLED() *previewLED {
	return &previewLED{color: lights.Baseline}
}

// SetColor implements lights.LED.
func (l *previewLED) SetColor(c colorful.Color) {
	l.mu.Lock()
	l.color = c
	l.mu.Unlock()
}

func (l *previewLED) Color() colorful.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

var ledFrameStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

// renderLEDs draws both LEDs as coloured blocks with the mode name below.
func renderLEDs(led1, led2 *previewLED, mode lights.Mode) string {
	block := func(c colorful.Color) string {
		style := lipgloss.NewStyle().Background(lipgloss.Color(c.Clamped().Hex()))
		row := style.Render("      ")
		return row + "\n" + row + "\n" + row
	}
	leds := lipgloss.JoinHorizontal(lipgloss.Top, block(led1.Color()), "  ", block(led2.Color()))
	label := statusStyle.Render(mode.String())
	return ledFrameStyle.Render(lipgloss.JoinVertical(lipgloss.Center, "Chest lights", "", leds, "", label))
}
