package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// DefaultNames are the sysfs names of the two chest LEDs.
var DefaultNames = [2]string{"chest:rgb:left", "chest:rgb:right"}

// New returns outputs for the two chest LEDs named under /sys/class/leds.
// Any LED that is missing or not multicolour falls back to a no-op output.
func New(names [2]string, logger *slog.Logger) (Output, Output) {
	logger.Info("Detecting chest LEDs", "board_model", detectBoard())
	return open(sysfsLEDPath, names[0], logger), open(sysfsLEDPath, names[1], logger)
}

func open(root, name string, logger *slog.Logger) Output {
	if name == "" {
		logger.Info("No LED name configured, using no-op output")
		return newNoop("none", logger)
	}

	out, err := newSysfs(filepath.Join(root, name), logger)
	if err != nil {
		logger.Info("LED not available, using no-op output", "led", name, "error", err)
		return newNoop(name, logger)
	}

	logger.Info("Using sysfs LED", "led", name)
	return out
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
