package panel

import (
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/huyangdroid/droidpanel/internal/joystick"
)

func TestSurface_BoundsAndContains(t *testing.T) {
	s := NewSurface(2, 3, 4, 4)
	want := joystick.Rect{Left: 20, Top: 60, Width: 40, Height: 80}
	if got := s.Bounds(); got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}

	tests := []struct {
		x, y int
		want bool
	}{
		{2, 3, true},
		{5, 6, true},
		{6, 3, false},
		{1, 3, false},
		{2, 7, false},
	}
	for _, tt := range tests {
		if got := s.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSurface_FillCircleCoversCellCentres(t *testing.T) {
	s := NewSurface(0, 0, 4, 4)
	s.FillCircle(20, 40, 15, color.NRGBA{R: 255, A: 255})

	c, painted := s.Cell(1, 1)
	if !painted {
		t.Fatal("Expected cell (1,1) painted")
	}
	if c.R != 1 || c.G != 0 || c.B != 0 {
		t.Errorf("Expected opaque red, got %v", c)
	}
	if _, painted := s.Cell(0, 0); painted {
		t.Error("Expected cell (0,0) outside the circle")
	}
}

func TestSurface_AlphaBlending(t *testing.T) {
	s := NewSurface(0, 0, 2, 2)
	s.FillCircle(10, 20, 100, color.NRGBA{R: 255, A: 128})

	c, _ := s.Cell(0, 0)
	if math.Abs(c.R-128.0/255) > 0.01 {
		t.Errorf("Expected half red over black, got R=%.3f", c.R)
	}

	// A second layer blends over the first.
	s.FillCircle(10, 20, 100, color.NRGBA{B: 255, A: 128})
	c, _ = s.Cell(0, 0)
	if c.B < 0.45 || c.R > 0.3 {
		t.Errorf("Expected blue layered over red, got %v", c)
	}
}

func TestSurface_TransparentIsNoop(t *testing.T) {
	s := NewSurface(0, 0, 2, 2)
	s.FillCircle(10, 20, 100, color.NRGBA{R: 255})
	if _, painted := s.Cell(0, 0); painted {
		t.Error("Fully transparent fill must not paint")
	}
}

func TestSurface_Clear(t *testing.T) {
	s := NewSurface(0, 0, 4, 2)
	s.FillCircle(20, 20, 100, color.NRGBA{G: 255, A: 255})
	s.Clear(0, 0, 20, 40)

	if _, painted := s.Cell(0, 0); painted {
		t.Error("Expected cleared cell (0,0)")
	}
	if _, painted := s.Cell(1, 1); painted {
		t.Error("Expected cleared cell (1,1)")
	}
	if _, painted := s.Cell(2, 0); !painted {
		t.Error("Expected cell (2,0) outside the cleared area")
	}
}

func TestSurface_RenderShape(t *testing.T) {
	s := NewSurface(0, 0, 3, 2)
	out := s.Render()
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(lines))
	}
	for i, line := range lines {
		if line != "   " {
			t.Errorf("Row %d of a blank surface = %q", i, line)
		}
	}
}

func TestSurface_HostsJoystick(t *testing.T) {
	s := NewSurface(0, 0, stickCols, stickRows)
	if _, err := joystick.New(s, joystick.Config{Size: stickSize}, nil); err != nil {
		t.Fatalf("joystick.New failed: %v", err)
	}
	// The centre is covered by both the base and the stick.
	if _, painted := s.Cell(stickCols/2, stickRows/2); !painted {
		t.Error("Expected the stick painted at the centre")
	}
	if _, painted := s.Cell(0, 0); painted {
		t.Error("Expected the corner outside the base circle")
	}
}
