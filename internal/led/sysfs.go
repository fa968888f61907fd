package led

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Output using the Linux multicolour LED class.
// Colour goes to multi_intensity as "R G B", brightness is held at max.
type sysfs struct {
	name          string
	dir           string
	maxBrightness int
	logger        *slog.Logger

	mu      sync.Mutex
	lastErr string
}

// newSysfs prepares the LED at dir. The kernel trigger is cleared so that
// writes are not overridden.
func newSysfs(dir string, logger *slog.Logger) (*sysfs, error) {
	if _, err := os.Stat(filepath.Join(dir, "multi_intensity")); err != nil {
		return nil, fmt.Errorf("LED at %s is not a multicolour LED: %w", dir, err)
	}

	s := &sysfs{
		name:          filepath.Base(dir),
		dir:           dir,
		maxBrightness: 255,
		logger:        logger,
	}

	if data, err := os.ReadFile(filepath.Join(dir, "max_brightness")); err == nil {
		if v, convErr := strconv.Atoi(strings.TrimSpace(string(data))); convErr == nil && v > 0 {
			s.maxBrightness = v
		}
	}

	if err := os.WriteFile(filepath.Join(dir, "trigger"), []byte("none"), 0o644); err != nil {
		logger.Debug("Could not clear LED trigger", "led", s.name, "error", err)
	}
	return s, nil
}

// SetColor writes c. Write failures are logged once per distinct error.
func (s *sysfs) SetColor(c colorful.Color) {
	err := s.write(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.lastErr = ""
		return
	}
	if msg := err.Error(); msg != s.lastErr {
		s.lastErr = msg
		s.logger.Warn("Failed to set LED colour", "led", s.name, "error", err)
	}
}

func (s *sysfs) write(c colorful.Color) error {
	r, g, b := c.Clamped().RGB255()
	intensity := fmt.Sprintf("%d %d %d", r, g, b)
	if err := os.WriteFile(filepath.Join(s.dir, "multi_intensity"), []byte(intensity), 0o644); err != nil {
		return fmt.Errorf("failed to set LED intensity: %w", err)
	}

	brightness := strconv.Itoa(s.maxBrightness)
	if err := os.WriteFile(filepath.Join(s.dir, "brightness"), []byte(brightness), 0o644); err != nil {
		return fmt.Errorf("failed to set LED brightness: %w", err)
	}
	return nil
}

func (s *sysfs) Name() string {
	return s.name
}
