package panel

import (
	"image/color"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/huyangdroid/droidpanel/internal/joystick"
)

// Terminal cells are mapped to a pixel grid so joystick geometry keeps its
// usual units. Cells are roughly twice as tall as they are wide.
const (
	cellWidth  = 10.0
	cellHeight = 20.0
)

// Surface is a joystick.Surface rasterised onto terminal cells. Each cell
// takes the colour of the shapes covering its centre, alpha-blended in
// paint order over the background.
type Surface struct {
	col, row   int
	cols, rows int
	background colorful.Color

	mu      sync.Mutex
	cells   []colorful.Color
	painted []bool
}

// NewSurface creates a cols x rows surface whose top-left cell sits at
// (col, row) on screen.
func NewSurface(col, row, cols, rows int) *Surface {
	return &Surface{
		col:        col,
		row:        row,
		cols:       cols,
		rows:       rows,
		background: colorful.Color{},
		cells:      make([]colorful.Color, cols*rows),
		painted:    make([]bool, cols*rows),
	}
}

// Bounds implements joystick.Surface.
func (s *Surface) Bounds() joystick.Rect {
	return joystick.Rect{
		Left:   float64(s.col) * cellWidth,
		Top:    float64(s.row) * cellHeight,
		Width:  float64(s.cols) * cellWidth,
		Height: float64(s.rows) * cellHeight,
	}
}

// Contains reports whether screen cell (x, y) lies on the surface.
func (s *Surface) Contains(x, y int) bool {
	return x >= s.col && x < s.col+s.cols && y >= s.row && y < s.row+s.rows
}

// ClientPoint converts a screen cell to the client pixel at its centre.
func ClientPoint(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * cellWidth, (float64(y) + 0.5) * cellHeight
}

func (s *Surface) cellCentre(c, r int) (float64, float64) {
	return (float64(c) + 0.5) * cellWidth, (float64(r) + 0.5) * cellHeight
}

// Clear implements joystick.Surface.
func (s *Surface) Clear(x, y, w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for r := 0; r < s.rows; r++ {
		for c := 0; c < s.cols; c++ {
			cx, cy := s.cellCentre(c, r)
			if cx >= x && cx < x+w && cy >= y && cy < y+h {
				s.painted[r*s.cols+c] = false
			}
		}
	}
}

// FillCircle implements joystick.Surface.
func (s *Surface) FillCircle(x, y, radius float64, c color.Color) {
	src, alpha := splitAlpha(c)
	if alpha == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r2 := radius * radius
	for r := 0; r < s.rows; r++ {
		for col := 0; col < s.cols; col++ {
			cx, cy := s.cellCentre(col, r)
			dx, dy := cx-x, cy-y
			if dx*dx+dy*dy > r2 {
				continue
			}
			i := r*s.cols + col
			base := s.background
			if s.painted[i] {
				base = s.cells[i]
			}
			s.cells[i] = base.BlendRgb(src, alpha)
			s.painted[i] = true
		}
	}
}

// splitAlpha returns the straight colour and its opacity in [0, 1].
func splitAlpha(c color.Color) (colorful.Color, float64) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return colorful.Color{
		R: float64(n.R) / 255,
		G: float64(n.G) / 255,
		B: float64(n.B) / 255,
	}, float64(n.A) / 255
}

// Cell returns the colour of cell (c, r) and whether anything covers it.
func (s *Surface) Cell(c, r int) (colorful.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := r*s.cols + c
	return s.cells[i], s.painted[i]
}

// Render draws the surface as rows of background-coloured spaces.
func (s *Surface) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	for r := 0; r < s.rows; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := 0; c < s.cols; c++ {
			i := r*s.cols + c
			if !s.painted[i] {
				sb.WriteByte(' ')
				continue
			}
			style := lipgloss.NewStyle().Background(lipgloss.Color(s.cells[i].Clamped().Hex()))
			sb.WriteString(style.Render(" "))
		}
	}
	return sb.String()
}
