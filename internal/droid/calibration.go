package droid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/huyangdroid/droidpanel/internal/events"
)

// CalibrationUpdate carries the offsets present in an update request.
// Nil fields are left unchanged.
type CalibrationUpdate struct {
	Rotation     *int
	TiltForward  *int
	TiltSideways *int
	Position     *int
}

// UpdateCalibration changes the in-memory offsets of "neck", "body" or
// "monocle". Offsets are persisted by SaveCalibration.
func (c *Controller) UpdateCalibration(target string, u CalibrationUpdate) error {
	c.mu.Lock()
	cal := &c.state.Calibration
	switch strings.ToLower(target) {
	case string(Neck):
		setIf(&cal.NeckRotation, u.Rotation)
		setIf(&cal.NeckTiltForward, u.TiltForward)
		setIf(&cal.NeckTiltSideways, u.TiltSideways)
	case string(Body):
		setIf(&cal.BodyRotation, u.Rotation)
		setIf(&cal.BodyTiltForward, u.TiltForward)
		setIf(&cal.BodyTiltSideways, u.TiltSideways)
	case "monocle":
		setIf(&cal.Monocle, u.Position)
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: calibration target %q", ErrUnknownCommand, target)
	}
	snapshot := *cal
	c.mu.Unlock()

	c.logger.Debug("Calibration updated", "target", target, "calibration", snapshot)
	c.publish(events.CalibrationChangedEvent{Action: "update", Target: target, Timestamp: now()})
	return nil
}

func setIf(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// SaveCalibration persists calibration and settings.
func (c *Controller) SaveCalibration() error {
	if err := c.save(); err != nil {
		return err
	}
	c.logger.Info("Calibration saved")
	c.publish(events.CalibrationChangedEvent{Action: "save", Timestamp: now()})
	return nil
}

func (c *Controller) save() error {
	c.mu.RLock()
	p := Persisted{Version: 1, Calibration: c.state.Calibration, Settings: c.state.Settings}
	c.mu.RUnlock()
	return c.store.Save(p)
}

// ResetCalibration restores factory calibration and settings and saves them.
func (c *Controller) ResetCalibration() error {
	def := DefaultPersisted()
	c.mu.Lock()
	c.state.Calibration = def.Calibration
	c.state.Settings = def.Settings
	c.mu.Unlock()

	if err := c.save(); err != nil {
		return err
	}
	c.logger.Info("Calibration reset to defaults")
	c.publish(events.CalibrationChangedEvent{Action: "reset", Timestamp: now()})
	return nil
}

// LockServos centres every axis and holds it when locked is true, for
// fitting servo horns. Unlocking releases the hold without moving.
func (c *Controller) LockServos(locked bool) {
	c.mu.Lock()
	c.state.ServosLocked = locked
	if locked {
		c.state.Neck = Axes{}
		c.state.Body = Axes{}
	}
	c.mu.Unlock()

	c.logger.Info("Servo lock changed", "locked", locked)
	c.publish(events.ServoLockEvent{Locked: locked, Timestamp: now()})
}

// ApplyPersisted replaces calibration and settings, e.g. after the state
// file was edited on disk.
func (c *Controller) ApplyPersisted(p Persisted) {
	c.mu.Lock()
	c.state.Calibration = p.Calibration
	c.state.Settings = p.Settings
	c.mu.Unlock()

	c.logger.Info("Droid state reloaded", "robot_name", p.Settings.RobotName)
	c.publish(events.CalibrationChangedEvent{Action: "reload", Timestamp: now()})
}

// SettingsUpdate carries the settings present in an update request.
type SettingsUpdate struct {
	RobotName           *string
	MasterMovementSpeed *int
}

// UpdateSettings applies and persists the given settings.
func (c *Controller) UpdateSettings(u SettingsUpdate) error {
	if u.RobotName != nil && strings.TrimSpace(*u.RobotName) == "" {
		return fmt.Errorf("%w: robot name must not be empty", ErrInvalidValue)
	}
	if u.MasterMovementSpeed != nil {
		speed := *u.MasterMovementSpeed
		if speed < MinMovementSpeed || speed > MaxMovementSpeed {
			return fmt.Errorf("%w: movement speed %d outside %d-%d",
				ErrInvalidValue, speed, MinMovementSpeed, MaxMovementSpeed)
		}
	}

	c.mu.Lock()
	if u.RobotName != nil {
		c.state.Settings.RobotName = strings.TrimSpace(*u.RobotName)
	}
	setIf(&c.state.Settings.MasterMovementSpeed, u.MasterMovementSpeed)
	settings := c.state.Settings
	c.mu.Unlock()

	if err := c.save(); err != nil {
		return err
	}

	c.publish(events.SettingsChangedEvent{
		RobotName:           settings.RobotName,
		MasterMovementSpeed: settings.MasterMovementSpeed,
		Timestamp:           now(),
	})
	return nil
}

// System commands.
const (
	CommandReboot       = "reboot"
	CommandFactoryReset = "factory_reset"
)

// System runs "reboot" or "factory_reset". The reboot itself happens after
// the configured delay on a separate goroutine so callers can reply first.
func (c *Controller) System(command string) error {
	switch command {
	case CommandReboot:
	case CommandFactoryReset:
		if err := c.ResetCalibration(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: system command %q", ErrUnknownCommand, command)
	}

	c.publish(events.SystemCommandEvent{Command: command, Timestamp: now()})

	if c.rebooter == nil {
		c.logger.Warn("No reboot target configured, ignoring reboot", "command", command)
		return nil
	}

	go func() {
		time.Sleep(c.rebootDelay)
		if err := c.rebooter.Reboot(context.Background()); err != nil {
			c.logger.Error("Reboot failed", "error", err)
		}
	}()
	return nil
}
