// Package lights drives the two chest LEDs through a fixed set of
// repeating colour patterns, one pattern at a time.
package lights

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/huyangdroid/droidpanel/internal/schedule"
)

// Pattern timing.
const (
	BlinkPeriod   = 500 * time.Millisecond
	Droid1Period  = 300 * time.Millisecond
	Droid2Period  = 200 * time.Millisecond
	FadeFrame     = 20 * time.Millisecond
	FadeCycle     = 2000 * time.Millisecond
	FadeDuration  = 4000 * time.Millisecond
	FadeBlinkStep = 1000 * time.Millisecond
)

// LED is a single addressable colour output.
type LED interface {
	SetColor(c colorful.Color)
}

// frameFunc returns the colours for one tick. Tick 0 is painted on activation.
type frameFunc func(tick int, elapsed time.Duration) (colorful.Color, colorful.Color)

// Sequencer owns a pair of LEDs and at most one running animation.
type Sequencer struct {
	sched  schedule.Scheduler
	led1   LED
	led2   LED
	logger *slog.Logger

	mu         sync.Mutex
	mode       Mode
	generation uint64
	handle     schedule.Handle
	running    bool
	colors     [2]colorful.Color
}

// New creates a sequencer in Off. Nil LEDs make the sequencer inert: modes
// are recorded but nothing is painted and no timers are started.
func New(sched schedule.Scheduler, led1, led2 LED, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		sched:  sched,
		led1:   led1,
		led2:   led2,
		logger: logger,
		colors: [2]colorful.Color{Baseline, Baseline},
	}
}

// SetMode cancels the running animation, paints the baseline and starts
// mode. Setting the current mode again restarts it from its first frame.
func (s *Sequencer) SetMode(mode Mode) error {
	if !mode.Valid() {
		return ErrUnknownMode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.mode = mode

	if s.led1 == nil || s.led2 == nil {
		s.logger.Debug("LED targets missing, mode recorded only", "mode", mode)
		return nil
	}

	s.paintLocked(Baseline, Baseline)

	period, frame := s.pattern(mode)
	if frame == nil {
		s.logger.Debug("Light mode applied", "mode", mode)
		return nil
	}

	c1, c2 := frame(0, 0)
	s.paintLocked(c1, c2)

	if period > 0 {
		gen := s.generation
		tick := 0
		s.handle = s.sched.Every(period, func(elapsed time.Duration) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.generation != gen {
				return
			}
			tick++
			c1, c2 := frame(tick, elapsed)
			s.paintLocked(c1, c2)
		})
		s.running = true
	}

	s.logger.Debug("Light mode applied", "mode", mode, "period", period)
	return nil
}

// pattern returns the tick period and frame function for mode. A nil frame
// means only the baseline is shown; a zero period means a single frame.
func (s *Sequencer) pattern(mode Mode) (time.Duration, frameFunc) {
	switch mode {
	case Static:
		return 0, func(int, time.Duration) (colorful.Color, colorful.Color) {
			return On, On
		}
	case WarningBlink:
		return BlinkPeriod, steps([][2]colorful.Color{
			{Alert, Accent},
			{Accent, Alert},
		})
	case ProcessingFade:
		return FadeFrame, newFade().frame
	case Droid1:
		return Droid1Period, steps([][2]colorful.Color{
			{Orange, Dark},
			{Dark, Orange},
			{Dark, Dark},
		})
	case Droid2:
		return Droid2Period, steps([][2]colorful.Color{
			{Magenta, Cyan},
			{Cyan, Magenta},
			{Dark, Dark},
		})
	default:
		return 0, nil
	}
}

func steps(states [][2]colorful.Color) frameFunc {
	return func(tick int, _ time.Duration) (colorful.Color, colorful.Color) {
		st := states[tick%len(states)]
		return st[0], st[1]
	}
}

// fade is the two-phase ProcessingFade state for one activation.
type fade struct {
	blinking   bool
	lit        bool
	lastToggle time.Duration
}

func newFade() *fade {
	return &fade{}
}

func (f *fade) frame(_ int, elapsed time.Duration) (colorful.Color, colorful.Color) {
	if !f.blinking && elapsed > FadeDuration {
		f.blinking = true
		f.lit = true
		f.lastToggle = elapsed
		return On, On
	}

	if f.blinking {
		if elapsed-f.lastToggle >= FadeBlinkStep {
			f.lit = !f.lit
			f.lastToggle = elapsed
		}
		if f.lit {
			return On, On
		}
		return Dark, Dark
	}

	c := FadeColor(elapsed)
	return c, c
}

// FadeColor is the colour of the fade phase at elapsed: the palette entry
// for the current third of the cycle scaled by a sine brightness envelope.
func FadeColor(elapsed time.Duration) colorful.Color {
	progress := float64(elapsed%FadeCycle) / float64(FadeCycle)
	brightness := math.Abs(math.Sin(progress * math.Pi))
	idx := int(math.Floor(progress * float64(len(fadePalette))))
	if idx >= len(fadePalette) {
		idx = len(fadePalette) - 1
	}
	return scale(fadePalette[idx], brightness)
}

// Stop cancels the running animation and leaves the LEDs as they are.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Sequencer) cancelLocked() {
	s.generation++
	if s.running {
		s.sched.Cancel(s.handle)
		s.running = false
	}
}

func (s *Sequencer) paintLocked(c1, c2 colorful.Color) {
	s.colors = [2]colorful.Color{c1, c2}
	s.led1.SetColor(c1)
	s.led2.SetColor(c2)
}

// Mode returns the last mode set.
func (s *Sequencer) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Colors returns the colours last painted on LED1 and LED2.
func (s *Sequencer) Colors() (colorful.Color, colorful.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colors[0], s.colors[1]
}

// Running reports whether an animation timer is live.
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
