package led

import (
	"log/slog"

	"github.com/lucasb-eyer/go-colorful"
)

// noop implements Output for systems without the LED.
type noop struct {
	name   string
	logger *slog.Logger
}

func newNoop(name string, logger *slog.Logger) *noop {
	return &noop{name: name, logger: logger}
}

// SetColor logs the colour but drives no hardware.
func (n *noop) SetColor(c colorful.Color) {
	n.logger.Debug("LED not available (no-op)", "led", n.name, "color", c.Hex())
}

func (n *noop) Name() string {
	return n.name
}
