package lights

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/huyangdroid/droidpanel/internal/schedule"
)

// recordingLED keeps every colour it is set to.
type recordingLED struct {
	colors []colorful.Color
}

func (r *recordingLED) SetColor(c colorful.Color) {
	r.colors = append(r.colors, c)
}

func (r *recordingLED) last() colorful.Color {
	if len(r.colors) == 0 {
		return colorful.Color{}
	}
	return r.colors[len(r.colors)-1]
}

func newTestSequencer() (*Sequencer, *schedule.Virtual, *recordingLED, *recordingLED) {
	v := schedule.NewVirtual()
	l1, l2 := &recordingLED{}, &recordingLED{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return New(v, l1, l2, logger), v, l1, l2
}

func assertColors(t *testing.T, s *Sequencer, want1, want2 colorful.Color) {
	t.Helper()
	c1, c2 := s.Colors()
	if !Equal(c1, want1) || !Equal(c2, want2) {
		t.Errorf("Expected (%s, %s), got (%s, %s)", want1.Hex(), want2.Hex(), c1.Hex(), c2.Hex())
	}
}

func TestSetMode_OffThenStatic(t *testing.T) {
	s, v, l1, l2 := newTestSequencer()

	if err := s.SetMode(Off); err != nil {
		t.Fatalf("SetMode(Off) failed: %v", err)
	}
	assertColors(t, s, Baseline, Baseline)

	if err := s.SetMode(Static); err != nil {
		t.Fatalf("SetMode(Static) failed: %v", err)
	}
	assertColors(t, s, On, On)
	if !Equal(l1.last(), On) || !Equal(l2.last(), On) {
		t.Errorf("Expected LED outputs to be %s, got %s and %s", On.Hex(), l1.last().Hex(), l2.last().Hex())
	}
	if v.Active() != 0 {
		t.Errorf("Expected zero active timers, got %d", v.Active())
	}
	if s.Running() {
		t.Error("Expected no running animation for Static")
	}
}

func TestSetMode_PaintsBaselineFirst(t *testing.T) {
	s, _, l1, l2 := newTestSequencer()

	if err := s.SetMode(Droid2); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}

	if len(l1.colors) != 2 || len(l2.colors) != 2 {
		t.Fatalf("Expected baseline then first frame, got %d and %d paints", len(l1.colors), len(l2.colors))
	}
	if !Equal(l1.colors[0], Baseline) || !Equal(l2.colors[0], Baseline) {
		t.Error("Expected first paint to be the baseline")
	}
	if !Equal(l1.colors[1], Magenta) || !Equal(l2.colors[1], Cyan) {
		t.Errorf("Expected (magenta, cyan), got (%s, %s)", l1.colors[1].Hex(), l2.colors[1].Hex())
	}
}

func TestSetMode_WarningBlinkAlternates(t *testing.T) {
	s, v, _, _ := newTestSequencer()
	if err := s.SetMode(WarningBlink); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}

	assertColors(t, s, Alert, Accent)

	v.Advance(BlinkPeriod - time.Millisecond)
	assertColors(t, s, Alert, Accent)

	v.Advance(time.Millisecond)
	assertColors(t, s, Accent, Alert)

	v.Advance(BlinkPeriod)
	assertColors(t, s, Alert, Accent)

	v.Advance(BlinkPeriod)
	assertColors(t, s, Accent, Alert)
}

func TestSetMode_StepPatterns(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		period time.Duration
		want   [][2]colorful.Color
	}{
		{
			name:   "droid 1",
			mode:   Droid1,
			period: Droid1Period,
			want: [][2]colorful.Color{
				{Orange, Dark}, {Dark, Orange}, {Dark, Dark}, {Orange, Dark},
			},
		},
		{
			name:   "droid 2",
			mode:   Droid2,
			period: Droid2Period,
			want: [][2]colorful.Color{
				{Magenta, Cyan}, {Cyan, Magenta}, {Dark, Dark}, {Magenta, Cyan},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, v, _, _ := newTestSequencer()
			if err := s.SetMode(tt.mode); err != nil {
				t.Fatalf("SetMode failed: %v", err)
			}
			for i, want := range tt.want {
				if i > 0 {
					v.Advance(tt.period)
				}
				c1, c2 := s.Colors()
				if !Equal(c1, want[0]) || !Equal(c2, want[1]) {
					t.Errorf("Step %d: expected (%s, %s), got (%s, %s)",
						i, want[0].Hex(), want[1].Hex(), c1.Hex(), c2.Hex())
				}
			}
		})
	}
}

func TestSetMode_SupersededLoopNeverPaints(t *testing.T) {
	s, v, l1, l2 := newTestSequencer()

	if err := s.SetMode(WarningBlink); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	v.Advance(250 * time.Millisecond)

	if err := s.SetMode(Droid1); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	mark1, mark2 := len(l1.colors), len(l2.colors)

	// Cross the old 500ms boundary and a few Droid1 ticks.
	v.Advance(time.Second)

	for _, c := range append(l1.colors[mark1:], l2.colors[mark2:]...) {
		if Equal(c, Alert) || Equal(c, Accent) {
			t.Fatalf("Stale WarningBlink colour %s painted after mode change", c.Hex())
		}
	}
	if v.Active() != 1 {
		t.Errorf("Expected exactly one active loop, got %d", v.Active())
	}
}

func TestSetMode_SameModeRestarts(t *testing.T) {
	s, v, _, _ := newTestSequencer()

	if err := s.SetMode(WarningBlink); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	v.Advance(BlinkPeriod)
	assertColors(t, s, Accent, Alert)

	if err := s.SetMode(WarningBlink); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	assertColors(t, s, Alert, Accent)
	if v.Active() != 1 {
		t.Errorf("Expected one active loop after restart, got %d", v.Active())
	}

	v.Advance(BlinkPeriod)
	assertColors(t, s, Accent, Alert)
}

func TestProcessingFade_Colors(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    [3]uint8
	}{
		{0, [3]uint8{0, 0, 0}},
		{500 * time.Millisecond, [3]uint8{0, 180, 180}},
		{1000 * time.Millisecond, [3]uint8{255, 0, 255}},
		{1500 * time.Millisecond, [3]uint8{180, 180, 0}},
		{2500 * time.Millisecond, [3]uint8{0, 180, 180}},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			r, g, b := FadeColor(tt.elapsed).RGB255()
			if r != tt.want[0] || g != tt.want[1] || b != tt.want[2] {
				t.Errorf("Expected %v, got [%d %d %d]", tt.want, r, g, b)
			}
		})
	}
}

func TestProcessingFade_TransitionsToBlink(t *testing.T) {
	s, v, _, _ := newTestSequencer()
	if err := s.SetMode(ProcessingFade); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}

	v.Advance(1000 * time.Millisecond)
	assertColors(t, s, Magenta, Magenta)

	// At the threshold itself the fade is still showing.
	v.Advance(FadeDuration - 1000*time.Millisecond)
	want := FadeColor(FadeDuration)
	assertColors(t, s, want, want)

	// The next frame enters the blink phase lit.
	v.Advance(FadeFrame)
	assertColors(t, s, On, On)

	// Lit until a full blink step has passed, then dark.
	v.Advance(FadeBlinkStep - FadeFrame)
	assertColors(t, s, On, On)
	v.Advance(FadeFrame)
	assertColors(t, s, Dark, Dark)

	// Never fades again.
	for i := 0; i < 500; i++ {
		v.Advance(FadeFrame)
		c1, c2 := s.Colors()
		if !Equal(c1, c2) || !(Equal(c1, On) || Equal(c1, Dark)) {
			t.Fatalf("Unexpected colour after blink phase began: %s/%s at %v", c1.Hex(), c2.Hex(), v.Now())
		}
	}
}

func TestSetMode_UnknownMode(t *testing.T) {
	s, v, l1, _ := newTestSequencer()
	if err := s.SetMode(Droid1); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	paints := len(l1.colors)

	err := s.SetMode(Mode(9))
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("Expected ErrUnknownMode, got %v", err)
	}
	if s.Mode() != Droid1 {
		t.Errorf("Expected mode to stay Droid1, got %v", s.Mode())
	}
	if len(l1.colors) != paints {
		t.Error("Expected no paint for an unknown mode")
	}
	if v.Active() != 1 {
		t.Errorf("Expected the running loop to continue, got %d active", v.Active())
	}
}

func TestSetMode_MissingLEDs(t *testing.T) {
	v := schedule.NewVirtual()
	s := New(v, &recordingLED{}, nil, nil)

	if err := s.SetMode(Droid2); err != nil {
		t.Fatalf("Expected no error without LEDs, got %v", err)
	}
	if v.Active() != 0 {
		t.Errorf("Expected no timers without LEDs, got %d", v.Active())
	}
	if s.Mode() != Droid2 {
		t.Errorf("Expected mode to be recorded, got %v", s.Mode())
	}
}

func TestStop_CancelsAnimation(t *testing.T) {
	s, v, l1, _ := newTestSequencer()
	if err := s.SetMode(Droid2); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	s.Stop()
	paints := len(l1.colors)

	v.Advance(time.Second)
	if v.Active() != 0 {
		t.Errorf("Expected no active timers after Stop, got %d", v.Active())
	}
	if len(l1.colors) != paints {
		t.Errorf("Expected no paints after Stop, got %d more", len(l1.colors)-paints)
	}
}

func TestSequencer_RealtimeCancel(t *testing.T) {
	r := schedule.NewRealtime()
	defer r.Close()
	l1, l2 := &syncLED{}, &syncLED{}
	s := New(r, l1, l2, nil)

	if err := s.SetMode(Droid2); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := s.SetMode(Static); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	time.Sleep(3 * Droid2Period)

	if got := l1.get(); !Equal(got, On) {
		t.Errorf("Expected LED1 to stay %s, got %s", On.Hex(), got.Hex())
	}
	if r.Active() != 0 {
		t.Errorf("Expected no running tasks, got %d", r.Active())
	}
}

// syncLED is safe to read while a realtime loop paints it.
type syncLED struct {
	mu sync.Mutex
	c  colorful.Color
}

func (l *syncLED) SetColor(c colorful.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c = c
}

func (l *syncLED) get() colorful.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c
}
