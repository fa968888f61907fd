// Package session holds the control panel's view of the droid: the last
// snapshot fetched from the daemon plus the optimistic changes made since.
package session

import (
	"sync"

	"github.com/huyangdroid/droidpanel/internal/api/models"
	"github.com/huyangdroid/droidpanel/internal/joystick"
	"github.com/huyangdroid/droidpanel/internal/lights"
)

// Defaults used before the first snapshot and for empty snapshot fields.
const (
	DefaultRobotName = "Huyang Robot"
	DefaultSpeed     = 100
)

// Stick is the last joystick reading forwarded for a part.
type Stick struct {
	X, Y float64
}

// Session is owned by the panel. Methods are safe for concurrent use since
// command replies and health callbacks arrive on other goroutines.
type Session struct {
	mu sync.RWMutex

	robotName       string
	automatic       bool
	leftEye         int
	rightEye        int
	neckPose        models.PoseState
	bodyPose        models.PoseState
	neckStick       Stick
	bodyStick       Stick
	monocle         int
	lightMode       lights.Mode
	calibration     models.CalibrationState
	speed           int
	firmwareVersion string
	features        models.FeatureState
	synced          bool
}

// New returns a session with the panel's startup defaults: automatic on,
// static chest lights.
func New() *Session {
	return &Session{
		robotName: DefaultRobotName,
		automatic: true,
		lightMode: lights.Static,
		speed:     DefaultSpeed,
	}
}

// Apply mirrors a daemon snapshot. Joystick readings are left alone since
// they describe the sticks, not the servos.
func (s *Session) Apply(st models.DroidState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.automatic = st.Automatic
	s.leftEye = st.Face.LeftEye
	s.rightEye = st.Face.RightEye
	s.neckPose = st.Neck
	s.bodyPose = st.Body
	s.monocle = st.MonoclePosition
	s.calibration = st.Calibration
	s.lightMode = lights.Mode(st.ChestLightMode)
	s.robotName = st.RobotName
	if s.robotName == "" {
		s.robotName = DefaultRobotName
	}
	s.speed = st.MasterMovementSpeed
	if s.speed == 0 {
		s.speed = DefaultSpeed
	}
	s.firmwareVersion = st.FirmwareVersion
	s.features = st.Features
	s.synced = true
}

// ChangedNeck records r and reports whether it differs from the last
// recorded neck reading. Only changed readings are forwarded.
func (s *Session) ChangedNeck(r joystick.Reading) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return changed(&s.neckStick, r)
}

// ChangedBody is ChangedNeck for the body stick.
func (s *Session) ChangedBody(r joystick.Reading) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return changed(&s.bodyStick, r)
}

func changed(last *Stick, r joystick.Reading) bool {
	if last.X == r.X && last.Y == r.Y {
		return false
	}
	last.X, last.Y = r.X, r.Y
	return true
}

// SetAutomatic records an optimistic automatic toggle.
func (s *Session) SetAutomatic(enabled bool) {
	s.mu.Lock()
	s.automatic = enabled
	s.mu.Unlock()
}

// SetLightMode records an optimistic chest light change.
func (s *Session) SetLightMode(m lights.Mode) {
	s.mu.Lock()
	s.lightMode = m
	s.mu.Unlock()
}

// SetEyes records an optimistic eye change on "all", "left" or "right".
func (s *Session) SetEyes(target string, state int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch target {
	case "left":
		s.leftEye = state
	case "right":
		s.rightEye = state
	default:
		s.leftEye, s.rightEye = state, state
	}
}

// SetMonocle records an optimistic monocle move.
func (s *Session) SetMonocle(position int) {
	s.mu.Lock()
	s.monocle = position
	s.mu.Unlock()
}

// Snapshot is a copy of the session for rendering.
type Snapshot struct {
	RobotName       string
	Automatic       bool
	LeftEye         int
	RightEye        int
	NeckPose        models.PoseState
	BodyPose        models.PoseState
	NeckStick       Stick
	BodyStick       Stick
	Monocle         int
	LightMode       lights.Mode
	Calibration     models.CalibrationState
	Speed           int
	FirmwareVersion string
	Features        models.FeatureState
	// Synced is false until the first snapshot arrives.
	Synced bool
}

// Snapshot returns the current values.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		RobotName:       s.robotName,
		Automatic:       s.automatic,
		LeftEye:         s.leftEye,
		RightEye:        s.rightEye,
		NeckPose:        s.neckPose,
		BodyPose:        s.bodyPose,
		NeckStick:       s.neckStick,
		BodyStick:       s.bodyStick,
		Monocle:         s.monocle,
		LightMode:       s.lightMode,
		Calibration:     s.calibration,
		Speed:           s.speed,
		FirmwareVersion: s.firmwareVersion,
		Features:        s.features,
		Synced:          s.synced,
	}
}
