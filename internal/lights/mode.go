package lights

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mode selects a chest light pattern. Values match the device protocol.
type Mode int

// Light modes.
const (
	Off Mode = iota
	Static
	WarningBlink
	ProcessingFade
	Droid1
	Droid2
)

// ErrUnknownMode is returned for modes outside Off..Droid2.
var ErrUnknownMode = errors.New("unknown light mode")

var modeNames = [...]string{
	Off:            "off",
	Static:         "static",
	WarningBlink:   "warning_blink",
	ProcessingFade: "processing_fade",
	Droid1:         "droid_1",
	Droid2:         "droid_2",
}

// Modes lists every valid mode in protocol order.
func Modes() []Mode {
	return []Mode{Off, Static, WarningBlink, ProcessingFade, Droid1, Droid2}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m >= Off && m <= Droid2
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts a protocol number ("2") or a mode name ("warning-blink").
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		m := Mode(n)
		if !m.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrUnknownMode, n)
		}
		return m, nil
	}

	name := strings.ReplaceAll(strings.ToLower(s), "-", "_")
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}
