package droid

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huyangdroid/droidpanel/internal/events"
	"github.com/huyangdroid/droidpanel/internal/lights"
)

type fakeRebooter struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
}

func newFakeRebooter() *fakeRebooter {
	return &fakeRebooter{done: make(chan struct{}, 1)}
}

func (f *fakeRebooter) Reboot(context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeRebooter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestController(t *testing.T, features Features, rebooter Rebooter) (*Controller, *TOMLStore, *events.Bus) {
	t.Helper()
	store := NewTOML(filepath.Join(t.TempDir(), "droid.toml"))
	bus := events.New()
	opts := Options{
		Store:           store,
		Bus:             bus,
		Features:        features,
		RebootDelay:     50 * time.Millisecond,
		FirmwareVersion: "test",
		Rebooter:        rebooter,
		Logger:          quietLogger(),
	}
	c, err := NewController(opts)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return c, store, bus
}

func TestNewControllerRequiresStore(t *testing.T) {
	if _, err := NewController(Options{}); err == nil {
		t.Fatal("Expected error without a store")
	}
}

func TestNewControllerInitialState(t *testing.T) {
	c, _, _ := newTestController(t, AllFeatures(), nil)
	s := c.State()

	if s.LeftEye != EyeOpen || s.RightEye != EyeOpen {
		t.Errorf("Expected eyes open, got %v/%v", s.LeftEye, s.RightEye)
	}
	if s.ChestLight != lights.Static {
		t.Errorf("Expected static blue lights, got %v", s.ChestLight)
	}
	if s.Settings != DefaultSettings() {
		t.Errorf("Expected default settings, got %+v", s.Settings)
	}
	if s.FirmwareVersion != "test" {
		t.Errorf("Expected firmware version 'test', got %q", s.FirmwareVersion)
	}
}

func TestPercentToDegrees(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-100, -90},
		{-50, -45},
		{0, 0},
		{1, 0},
		{2, 1},
		{49.9, 44},
		{100, 90},
		{250, 90},
		{-250, -90},
		{-1, -1},
		{1e19, 90},
		{1e300, 90},
		{-1e300, -90},
		{math.Inf(1), 90},
		{math.Inf(-1), -90},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := PercentToDegrees(tt.in); got != tt.want {
			t.Errorf("PercentToDegrees(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSetEyes(t *testing.T) {
	c, _, bus := newTestController(t, AllFeatures(), nil)
	received := make(chan events.EyesChangedEvent, 4)
	unsub := bus.Subscribe(func(e events.EyesChangedEvent) { received <- e })
	defer unsub()

	if err := c.SetEyes("left", EyeBlink); err != nil {
		t.Fatalf("SetEyes failed: %v", err)
	}
	s := c.State()
	if s.LeftEye != EyeBlink || s.RightEye != EyeOpen {
		t.Errorf("Expected left blink only, got %v/%v", s.LeftEye, s.RightEye)
	}

	if err := c.SetEyes("all", EyeSad); err != nil {
		t.Fatalf("SetEyes failed: %v", err)
	}
	s = c.State()
	if s.LeftEye != EyeSad || s.RightEye != EyeSad {
		t.Errorf("Expected both sad, got %v/%v", s.LeftEye, s.RightEye)
	}

	select {
	case ev := <-received:
		if ev.Left != int(EyeBlink) {
			t.Errorf("Expected first event left=%d, got %+v", EyeBlink, ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for eyes event")
	}

	if err := c.SetEyes("middle", EyeOpen); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
	if err := c.SetEyes("all", EyeState(42)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Expected ErrInvalidValue, got %v", err)
	}
}

func TestFeatureGates(t *testing.T) {
	c, _, _ := newTestController(t, Features{}, nil)

	if err := c.SetEyes("all", EyeOpen); !errors.Is(err, ErrDisabled) {
		t.Errorf("SetEyes: expected ErrDisabled, got %v", err)
	}
	if _, err := c.Move(Neck, 10, 0, 0); !errors.Is(err, ErrDisabled) {
		t.Errorf("Move neck: expected ErrDisabled, got %v", err)
	}
	if _, err := c.Move(Body, 10, 0, 0); !errors.Is(err, ErrDisabled) {
		t.Errorf("Move body: expected ErrDisabled, got %v", err)
	}
	if _, err := c.SetMonocle(nil); !errors.Is(err, ErrDisabled) {
		t.Errorf("SetMonocle: expected ErrDisabled, got %v", err)
	}
	if err := c.SetLights(lights.Droid1); !errors.Is(err, ErrDisabled) {
		t.Errorf("SetLights: expected ErrDisabled, got %v", err)
	}
	if got := c.State().ChestLight; got != lights.Static {
		t.Errorf("Disabled SetLights changed mode to %v", got)
	}
}

func TestMove(t *testing.T) {
	c, _, bus := newTestController(t, Features{HeadRotation: true, BodyMovement: true}, nil)
	received := make(chan events.PoseChangedEvent, 2)
	unsub := bus.Subscribe(func(e events.PoseChangedEvent) { received <- e })
	defer unsub()

	axes, err := c.Move(Neck, 100, -100, 0)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	want := Axes{Rotate: 90, TiltForward: -90, TiltSideways: 0}
	if axes != want {
		t.Errorf("Expected %+v, got %+v", want, axes)
	}
	if c.State().Neck != want {
		t.Errorf("State not updated: %+v", c.State().Neck)
	}

	select {
	case ev := <-received:
		if ev.Part != "neck" || ev.Rotate != 90 || ev.TiltForward != -90 {
			t.Errorf("Unexpected pose event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for pose event")
	}

	if _, err := c.Move(Body, 50, 0, 0); err != nil {
		t.Errorf("Body move failed: %v", err)
	}
	if _, err := c.Move(Part("tail"), 0, 0, 0); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand for unknown part, got %v", err)
	}
}

func TestSetMonocle(t *testing.T) {
	c, _, _ := newTestController(t, AllFeatures(), nil)

	pos := 30
	got, err := c.SetMonocle(&pos)
	if err != nil || got != 30 {
		t.Fatalf("SetMonocle(30) = %d, %v", got, err)
	}
	got, err = c.SetMonocle(nil)
	if err != nil || got != 30 {
		t.Errorf("SetMonocle(nil) should keep 30, got %d, %v", got, err)
	}
}

func TestSetLights(t *testing.T) {
	c, _, bus := newTestController(t, AllFeatures(), nil)
	received := make(chan events.LightModeChangedEvent, 1)
	unsub := bus.Subscribe(func(e events.LightModeChangedEvent) { received <- e })
	defer unsub()

	if err := c.SetLights(lights.WarningBlink); err != nil {
		t.Fatalf("SetLights failed: %v", err)
	}
	if got := c.State().ChestLight; got != lights.WarningBlink {
		t.Errorf("Expected warning blink, got %v", got)
	}

	select {
	case ev := <-received:
		if ev.Mode != int(lights.WarningBlink) || ev.Name != lights.WarningBlink.String() {
			t.Errorf("Unexpected light event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for light event")
	}

	if err := c.SetLights(lights.Mode(9)); !errors.Is(err, lights.ErrUnknownMode) {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
	if got := c.State().ChestLight; got != lights.WarningBlink {
		t.Errorf("Unknown mode changed state to %v", got)
	}
}

func TestSetAutomatic(t *testing.T) {
	c, _, _ := newTestController(t, AllFeatures(), nil)
	c.SetAutomatic(true)
	if !c.State().Automatic {
		t.Error("Expected automatic enabled")
	}
	c.SetAutomatic(false)
	if c.State().Automatic {
		t.Error("Expected automatic disabled")
	}
}

func intPtr(v int) *int { return &v }

func TestCalibrationUpdateAndSave(t *testing.T) {
	c, store, _ := newTestController(t, AllFeatures(), nil)

	err := c.UpdateCalibration("neck", CalibrationUpdate{Rotation: intPtr(5), TiltSideways: intPtr(-3)})
	if err != nil {
		t.Fatalf("UpdateCalibration failed: %v", err)
	}
	if err := c.UpdateCalibration("monocle", CalibrationUpdate{Position: intPtr(7)}); err != nil {
		t.Fatalf("UpdateCalibration monocle failed: %v", err)
	}
	if err := c.UpdateCalibration("elbow", CalibrationUpdate{}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}

	cal := c.State().Calibration
	if cal.NeckRotation != 5 || cal.NeckTiltSideways != -3 || cal.NeckTiltForward != 0 || cal.Monocle != 7 {
		t.Errorf("Unexpected calibration %+v", cal)
	}

	// Not persisted until saved.
	p, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if p.Calibration.NeckRotation != 0 {
		t.Errorf("Calibration persisted before save: %+v", p.Calibration)
	}

	if err := c.SaveCalibration(); err != nil {
		t.Fatalf("SaveCalibration failed: %v", err)
	}
	p, err = store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if p.Calibration != cal {
		t.Errorf("Expected saved %+v, got %+v", cal, p.Calibration)
	}
}

func TestResetCalibration(t *testing.T) {
	c, store, _ := newTestController(t, AllFeatures(), nil)
	name := "Custom"
	if err := c.UpdateSettings(SettingsUpdate{RobotName: &name}); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateCalibration("body", CalibrationUpdate{TiltForward: intPtr(9)}); err != nil {
		t.Fatal(err)
	}

	if err := c.ResetCalibration(); err != nil {
		t.Fatalf("ResetCalibration failed: %v", err)
	}

	s := c.State()
	if s.Calibration != (Calibration{}) || s.Settings != DefaultSettings() {
		t.Errorf("Expected defaults after reset, got %+v %+v", s.Calibration, s.Settings)
	}
	p, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if p.Settings.RobotName != DefaultRobotName {
		t.Errorf("Expected reset to be persisted, got %q", p.Settings.RobotName)
	}
}

func TestLockServos(t *testing.T) {
	c, _, _ := newTestController(t, AllFeatures(), nil)
	if _, err := c.Move(Neck, 100, 100, 100); err != nil {
		t.Fatal(err)
	}

	c.LockServos(true)
	s := c.State()
	if !s.ServosLocked || s.Neck != (Axes{}) {
		t.Errorf("Expected locked and centred, got locked=%v neck=%+v", s.ServosLocked, s.Neck)
	}

	c.LockServos(false)
	if c.State().ServosLocked {
		t.Error("Expected unlocked")
	}
}

func TestUpdateSettings(t *testing.T) {
	c, store, _ := newTestController(t, AllFeatures(), nil)

	name := "  Huyang  "
	speed := 120
	if err := c.UpdateSettings(SettingsUpdate{RobotName: &name, MasterMovementSpeed: &speed}); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	want := Settings{RobotName: "Huyang", MasterMovementSpeed: 120}
	if got := c.State().Settings; got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	p, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if p.Settings != want {
		t.Errorf("Expected settings saved, got %+v", p.Settings)
	}

	tests := []struct {
		name   string
		update SettingsUpdate
	}{
		{"empty name", SettingsUpdate{RobotName: new(string)}},
		{"speed too low", SettingsUpdate{MasterMovementSpeed: intPtr(49)}},
		{"speed too high", SettingsUpdate{MasterMovementSpeed: intPtr(151)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.UpdateSettings(tt.update); !errors.Is(err, ErrInvalidValue) {
				t.Errorf("Expected ErrInvalidValue, got %v", err)
			}
			if got := c.State().Settings; got != want {
				t.Errorf("Rejected update changed settings to %+v", got)
			}
		})
	}
}

func TestApplyPersisted(t *testing.T) {
	c, _, bus := newTestController(t, AllFeatures(), nil)
	received := make(chan events.CalibrationChangedEvent, 1)
	unsub := bus.Subscribe(func(e events.CalibrationChangedEvent) { received <- e })
	defer unsub()

	p := DefaultPersisted()
	p.Calibration.BodyRotation = 4
	p.Settings.RobotName = "Reloaded"
	c.ApplyPersisted(p)

	s := c.State()
	if s.Calibration.BodyRotation != 4 || s.Settings.RobotName != "Reloaded" {
		t.Errorf("Unexpected state after apply: %+v", s)
	}
	select {
	case ev := <-received:
		if ev.Action != "reload" {
			t.Errorf("Expected reload action, got %q", ev.Action)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for reload event")
	}
}

func TestSystemReboot(t *testing.T) {
	rebooter := newFakeRebooter()
	c, _, _ := newTestController(t, AllFeatures(), rebooter)

	if err := c.System(CommandReboot); err != nil {
		t.Fatalf("System(reboot) failed: %v", err)
	}
	if rebooter.Calls() != 0 {
		t.Error("Reboot should be deferred until after the reply")
	}

	select {
	case <-rebooter.done:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for reboot")
	}
}

func TestSystemFactoryReset(t *testing.T) {
	rebooter := newFakeRebooter()
	c, store, _ := newTestController(t, AllFeatures(), rebooter)
	speed := 60
	if err := c.UpdateSettings(SettingsUpdate{MasterMovementSpeed: &speed}); err != nil {
		t.Fatal(err)
	}

	if err := c.System(CommandFactoryReset); err != nil {
		t.Fatalf("System(factory_reset) failed: %v", err)
	}
	p, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if p.Settings != DefaultSettings() {
		t.Errorf("Expected defaults persisted, got %+v", p.Settings)
	}

	select {
	case <-rebooter.done:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for reboot")
	}
}

func TestSystemUnknownCommand(t *testing.T) {
	c, _, _ := newTestController(t, AllFeatures(), nil)
	if err := c.System("shutdown"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Expected ErrUnknownCommand, got %v", err)
	}
}

func TestSystemWithoutRebooter(t *testing.T) {
	c, _, _ := newTestController(t, AllFeatures(), nil)
	if err := c.System(CommandReboot); err != nil {
		t.Errorf("Expected reboot without target to be a no-op, got %v", err)
	}
}
