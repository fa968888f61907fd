package droid

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/huyangdroid/droidpanel/internal/events"
	"github.com/huyangdroid/droidpanel/internal/lights"
	"github.com/huyangdroid/droidpanel/internal/metrics"
)

// Rebooter restarts the droid.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// Options configures a Controller.
type Options struct {
	Store    Store
	Bus      *events.Bus
	Features Features
	// Rebooter may be nil, in which case reboots are only logged.
	Rebooter        Rebooter
	RebootDelay     time.Duration
	FirmwareVersion string
	Logger          *slog.Logger
}

// Controller applies device commands to the droid state.
type Controller struct {
	store       Store
	bus         *events.Bus
	features    Features
	rebooter    Rebooter
	rebootDelay time.Duration
	logger      *slog.Logger

	mu    sync.RWMutex
	state State
}

// NewController loads persisted state and returns a controller with the
// droid at rest: eyes open, all axes centred, lights off.
func NewController(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("droid: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	p, err := opts.Store.Load()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		store:       opts.Store,
		bus:         opts.Bus,
		features:    opts.Features,
		rebooter:    opts.Rebooter,
		rebootDelay: opts.RebootDelay,
		logger:      opts.Logger,
		state: State{
			LeftEye:         EyeOpen,
			RightEye:        EyeOpen,
			ChestLight:      lights.Static,
			Calibration:     p.Calibration,
			Settings:        p.Settings,
			FirmwareVersion: opts.FirmwareVersion,
		},
	}
	metrics.SetLightMode(int(c.state.ChestLight))
	return c, nil
}

// State returns a snapshot.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Features returns the enabled command groups.
func (c *Controller) Features() Features {
	return c.features
}

func (c *Controller) publish(ev events.Event) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

// SetEyes sets the eye state on "all", "left" or "right".
func (c *Controller) SetEyes(target string, state EyeState) error {
	if !c.features.Eyes {
		return fmt.Errorf("eyes: %w", ErrDisabled)
	}
	if !state.Valid() {
		return fmt.Errorf("%w: eye state %d", ErrInvalidValue, int(state))
	}

	c.mu.Lock()
	switch strings.ToLower(target) {
	case "all", "":
		c.state.LeftEye, c.state.RightEye = state, state
	case "left":
		c.state.LeftEye = state
	case "right":
		c.state.RightEye = state
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: eye target %q", ErrUnknownCommand, target)
	}
	left, right := c.state.LeftEye, c.state.RightEye
	c.mu.Unlock()

	c.logger.Debug("Eyes set", "target", target, "state", state)
	c.publish(events.EyesChangedEvent{Left: int(left), Right: int(right), Timestamp: now()})
	return nil
}

// Move sets a part's pose from stick percentages in [-100, 100].
func (c *Controller) Move(part Part, rotate, tiltForward, tiltSideways float64) (Axes, error) {
	var enabled bool
	switch part {
	case Neck:
		enabled = c.features.NeckMovement || c.features.HeadRotation
	case Body:
		enabled = c.features.BodyMovement || c.features.BodyRotation
	default:
		return Axes{}, fmt.Errorf("%w: part %q", ErrUnknownCommand, part)
	}
	if !enabled {
		return Axes{}, fmt.Errorf("%s: %w", part, ErrDisabled)
	}

	axes := Axes{
		Rotate:       PercentToDegrees(rotate),
		TiltForward:  PercentToDegrees(tiltForward),
		TiltSideways: PercentToDegrees(tiltSideways),
	}

	c.mu.Lock()
	if part == Neck {
		c.state.Neck = axes
	} else {
		c.state.Body = axes
	}
	c.mu.Unlock()

	metrics.SetPose(string(part), axes.Rotate, axes.TiltForward, axes.TiltSideways)
	c.publish(events.PoseChangedEvent{
		Part:         string(part),
		Rotate:       axes.Rotate,
		TiltForward:  axes.TiltForward,
		TiltSideways: axes.TiltSideways,
		Timestamp:    now(),
	})
	return axes, nil
}

// SetMonocle moves the monocle. A nil position keeps the current one.
func (c *Controller) SetMonocle(position *int) (int, error) {
	if !c.features.Monocle {
		return 0, fmt.Errorf("monocle: %w", ErrDisabled)
	}

	c.mu.Lock()
	if position != nil {
		c.state.MonoclePosition = *position
	}
	pos := c.state.MonoclePosition
	c.mu.Unlock()

	c.publish(events.MonocleChangedEvent{Position: pos, Timestamp: now()})
	return pos, nil
}

// SetAutomatic toggles automatic animations.
func (c *Controller) SetAutomatic(enabled bool) {
	c.mu.Lock()
	c.state.Automatic = enabled
	c.mu.Unlock()

	c.logger.Info("Automatic animations toggled", "enabled", enabled)
	c.publish(events.AutomaticChangedEvent{Enabled: enabled, Timestamp: now()})
}

// SetLights selects the chest light mode.
func (c *Controller) SetLights(mode lights.Mode) error {
	if !c.features.TorsoLights {
		return fmt.Errorf("chest lights: %w", ErrDisabled)
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", lights.ErrUnknownMode, int(mode))
	}

	c.mu.Lock()
	c.state.ChestLight = mode
	c.mu.Unlock()

	metrics.SetLightMode(int(mode))
	c.logger.Info("Chest light mode set", "mode", mode)
	c.publish(events.LightModeChangedEvent{Mode: int(mode), Name: mode.String(), Timestamp: now()})
	return nil
}
