// Package joystick implements a circular drag-to-steer input widget.
//
// A Widget is bound to a drawing Surface and fed pointer events by its host.
// While a drag is active the stick follows the pointer, clamped to the travel
// radius (base radius minus stick radius). Every position change repaints the
// surface and reports a Reading normalized to [-100, 100] on both axes.
//
// Mouse and touch input are handled identically and are not deduplicated: if a
// host delivers both for one gesture, the last event wins.
package joystick

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sync"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultStickRadius = 40
	DefaultBaseRadius  = 75
)

// Default colours: semi-transparent grey base, semi-transparent black stick.
var (
	DefaultBaseColor  color.Color = color.NRGBA{R: 100, G: 100, B: 100, A: 128}
	DefaultStickColor color.Color = color.NRGBA{R: 0, G: 0, B: 0, A: 128}
)

// ErrInvalidGeometry is returned when the stick radius leaves no travel.
var ErrInvalidGeometry = errors.New("joystick: stick radius must be smaller than base radius")

// Rect is a surface's placement in client coordinates.
type Rect struct {
	Left, Top     float64
	Width, Height float64
}

// Surface is the drawing target of a Widget.
type Surface interface {
	// Bounds returns the surface's position and pixel size in client space.
	Bounds() Rect
	Clear(x, y, w, h float64)
	FillCircle(x, y, r float64, c color.Color)
}

// Config holds optional widget geometry and colours.
type Config struct {
	StickRadius float64
	BaseRadius  float64
	// Size, when set and BaseRadius is zero, gives BaseRadius = Size/2.
	Size       float64
	BaseColor  color.Color
	StickColor color.Color
}

func (c Config) withDefaults() Config {
	if c.StickRadius == 0 {
		c.StickRadius = DefaultStickRadius
	}
	if c.BaseRadius == 0 {
		if c.Size > 0 {
			c.BaseRadius = c.Size / 2
		} else {
			c.BaseRadius = DefaultBaseRadius
		}
	}
	if c.BaseColor == nil {
		c.BaseColor = DefaultBaseColor
	}
	if c.StickColor == nil {
		c.StickColor = DefaultStickColor
	}
	return c
}

// Reading is the stick offset as a percentage of maximum travel.
type Reading struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Dragging bool    `json:"dragging"`
}

// ChangeFunc receives a Reading after every position change.
type ChangeFunc func(Reading)

// Widget tracks one joystick. Widgets share no state with each other.
type Widget struct {
	surface  Surface
	cfg      Config
	maxTrav  float64
	onChange ChangeFunc

	mu       sync.Mutex
	originX  float64
	originY  float64
	currentX float64
	currentY float64
	dragging bool
	reading  Reading
}

// New creates a widget centred on surface and paints it. A nil surface yields
// an inert widget that ignores events. onChange may be nil.
func New(surface Surface, cfg Config, onChange ChangeFunc) (*Widget, error) {
	cfg = cfg.withDefaults()
	maxTrav := cfg.BaseRadius - cfg.StickRadius
	if maxTrav <= 0 {
		return nil, fmt.Errorf("%w (stick %.0f, base %.0f)", ErrInvalidGeometry, cfg.StickRadius, cfg.BaseRadius)
	}

	w := &Widget{
		surface:  surface,
		cfg:      cfg,
		maxTrav:  maxTrav,
		onChange: onChange,
	}
	if surface != nil {
		b := surface.Bounds()
		w.originX, w.originY = b.Width/2, b.Height/2
	}
	w.currentX, w.currentY = w.originX, w.originY

	w.mu.Lock()
	w.paintLocked()
	w.mu.Unlock()
	return w, nil
}

// HandleEvent applies a pointer event. It returns true when the host should
// suppress its default gesture handling (touch input during a drag).
func (w *Widget) HandleEvent(e Event) bool {
	if w.surface == nil {
		return false
	}

	w.mu.Lock()
	var prevent bool
	switch e.Type {
	case PointerDown:
		w.dragging = true
		w.moveLocked(e.ClientX, e.ClientY)
		prevent = e.Source == Touch
	case PointerMove:
		if !w.dragging {
			w.mu.Unlock()
			return false
		}
		w.moveLocked(e.ClientX, e.ClientY)
		prevent = e.Source == Touch
	case PointerUp, PointerCancel, PointerLeave:
		w.dragging = false
		w.currentX, w.currentY = w.originX, w.originY
	default:
		w.mu.Unlock()
		return false
	}

	w.paintLocked()
	r := w.normalizeLocked()
	w.reading = r
	cb := w.onChange
	w.mu.Unlock()

	if cb != nil {
		cb(r)
	}
	return prevent
}

// moveLocked positions the stick at a client point, clamped to travel.
func (w *Widget) moveLocked(clientX, clientY float64) {
	b := w.surface.Bounds()
	x := clientX - b.Left
	y := clientY - b.Top

	dx := x - w.originX
	dy := y - w.originY
	if math.Hypot(dx, dy) > w.maxTrav {
		angle := math.Atan2(dy, dx)
		w.currentX = w.originX + math.Cos(angle)*w.maxTrav
		w.currentY = w.originY + math.Sin(angle)*w.maxTrav
		return
	}
	w.currentX, w.currentY = x, y
}

func (w *Widget) normalizeLocked() Reading {
	return Reading{
		X:        clampPercent((w.currentX - w.originX) / w.maxTrav * 100),
		Y:        clampPercent((w.currentY - w.originY) / w.maxTrav * 100),
		Dragging: w.dragging,
	}
}

func clampPercent(v float64) float64 {
	return math.Max(-100, math.Min(100, v))
}

func (w *Widget) paintLocked() {
	if w.surface == nil {
		return
	}
	b := w.surface.Bounds()
	w.surface.Clear(0, 0, b.Width, b.Height)
	w.surface.FillCircle(w.originX, w.originY, w.cfg.BaseRadius, w.cfg.BaseColor)
	w.surface.FillCircle(w.currentX, w.currentY, w.cfg.StickRadius, w.cfg.StickColor)
}

// Redraw repaints the current state, e.g. after the host cleared the surface.
func (w *Widget) Redraw() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paintLocked()
}

// Dragging reports whether a drag is in progress.
func (w *Widget) Dragging() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dragging
}

// Reading returns the last normalized reading.
func (w *Widget) Reading() Reading {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reading
}

// X returns the last normalized x, rounded to the nearest integer.
func (w *Widget) X() int {
	return roundHalfUp(w.Reading().X)
}

// Y returns the last normalized y, rounded to the nearest integer.
func (w *Widget) Y() int {
	return roundHalfUp(w.Reading().Y)
}

// Position returns the stick centre in surface coordinates.
func (w *Widget) Position() (x, y float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentX, w.currentY
}

// Origin returns the base centre in surface coordinates.
func (w *Widget) Origin() (x, y float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.originX, w.originY
}

// MaxTravel returns the largest distance the stick may sit from the origin.
func (w *Widget) MaxTravel() float64 {
	return w.maxTrav
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
