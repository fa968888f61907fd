// Package droid holds the droid's runtime pose, its persisted calibration
// and settings, and the controller that applies device commands to them.
package droid

import (
	"fmt"
	"math"
	"strings"

	"github.com/huyangdroid/droidpanel/internal/lights"
)

// EyeState is an eye animation as numbered by the device protocol.
type EyeState int

// Eye states.
const (
	EyeNone EyeState = iota
	EyeOpen
	EyeClosed
	EyeBlink
	EyeFocus
	EyeSad
	EyeAngry
)

var eyeNames = [...]string{"none", "open", "closed", "blink", "focus", "sad", "angry"}

// Valid reports whether e is a known eye state.
func (e EyeState) Valid() bool {
	return e >= EyeNone && e <= EyeAngry
}

func (e EyeState) String() string {
	if !e.Valid() {
		return fmt.Sprintf("eye(%d)", int(e))
	}
	return eyeNames[e]
}

// ParseEyeState accepts an eye state name such as "blink".
func ParseEyeState(s string) (EyeState, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range eyeNames {
		if n == s {
			return EyeState(i), nil
		}
	}
	return 0, fmt.Errorf("%w: eye state %q", ErrInvalidValue, s)
}

// Part is a movable section of the droid.
type Part string

// Movable parts.
const (
	Neck Part = "neck"
	Body Part = "body"
)

// Axes are servo angles in degrees, each in [-90, 90].
type Axes struct {
	Rotate       int `json:"rotate"`
	TiltForward  int `json:"tiltForward"`
	TiltSideways int `json:"tiltSideways"`
}

// Calibration holds per-servo trim offsets.
type Calibration struct {
	NeckRotation     int `toml:"neck_rotation" json:"neckRotation"`
	NeckTiltForward  int `toml:"neck_tilt_forward" json:"neckTiltForward"`
	NeckTiltSideways int `toml:"neck_tilt_sideways" json:"neckTiltSideways"`
	BodyRotation     int `toml:"body_rotation" json:"bodyRotation"`
	BodyTiltForward  int `toml:"body_tilt_forward" json:"bodyTiltForward"`
	BodyTiltSideways int `toml:"body_tilt_sideways" json:"bodyTiltSideways"`
	Monocle          int `toml:"monocle" json:"monocle"`
}

// Settings are user-facing robot preferences.
type Settings struct {
	RobotName           string `toml:"robot_name" json:"robotName"`
	MasterMovementSpeed int    `toml:"master_movement_speed" json:"masterMovementSpeed"`
}

// Movement speed bounds, in percent.
const (
	MinMovementSpeed = 50
	MaxMovementSpeed = 150
)

// DefaultRobotName is restored by a calibration reset.
const DefaultRobotName = "Huyang Robot"

// DefaultSettings returns factory settings.
func DefaultSettings() Settings {
	return Settings{RobotName: DefaultRobotName, MasterMovementSpeed: 100}
}

// State is a full snapshot of the droid.
type State struct {
	Automatic       bool
	LeftEye         EyeState
	RightEye        EyeState
	Neck            Axes
	Body            Axes
	MonoclePosition int
	ChestLight      lights.Mode
	ServosLocked    bool
	Calibration     Calibration
	Settings        Settings
	FirmwareVersion string
}

// Features enables or disables groups of commands.
type Features struct {
	Eyes         bool
	Monocle      bool
	NeckMovement bool
	HeadRotation bool
	BodyMovement bool
	BodyRotation bool
	TorsoLights  bool
}

// AllFeatures enables everything.
func AllFeatures() Features {
	return Features{
		Eyes:         true,
		Monocle:      true,
		NeckMovement: true,
		HeadRotation: true,
		BodyMovement: true,
		BodyRotation: true,
		TorsoLights:  true,
	}
}

// PercentToDegrees maps a stick percentage in [-100, 100] to a servo angle
// in [-90, 90] using integer arithmetic. Inputs are clamped, then truncated
// toward zero. NaN counts as centre.
func PercentToDegrees(v float64) int {
	if math.IsNaN(v) {
		v = 0
	}
	x := int(max(-100, min(100, v)))
	return (x+100)*180/200 - 90
}
