package events

// Event type constants for kelindar/event.
const (
	TypeLightModeChanged uint32 = iota + 1
	TypePoseChanged
	TypeEyesChanged
	TypeMonocleChanged
	TypeAutomaticChanged
	TypeCalibrationChanged
	TypeSettingsChanged
	TypeServoLock
	TypeSystemCommand
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// LightModeChangedEvent is published when the chest light mode is set.
type LightModeChangedEvent struct {
	Mode      int    `json:"mode" example:"2" doc:"Light mode number (0-5)"`
	Name      string `json:"name" example:"warning_blink" doc:"Light mode name"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LightModeChangedEvent.
func (e LightModeChangedEvent) Type() uint32 { return TypeLightModeChanged }

// PoseChangedEvent is published when the neck or body is moved.
type PoseChangedEvent struct {
	Part         string `json:"part" example:"neck" doc:"Moved part: neck or body"`
	Rotate       int    `json:"rotate" example:"-45" doc:"Rotation in degrees"`
	TiltForward  int    `json:"tiltForward" example:"10" doc:"Forward tilt in degrees"`
	TiltSideways int    `json:"tiltSideways" example:"0" doc:"Sideways tilt in degrees"`
	Timestamp    string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PoseChangedEvent.
func (e PoseChangedEvent) Type() uint32 { return TypePoseChanged }

// EyesChangedEvent is published when either eye changes state.
type EyesChangedEvent struct {
	Left      int    `json:"leftEye" example:"1" doc:"Left eye state (0-6)"`
	Right     int    `json:"rightEye" example:"1" doc:"Right eye state (0-6)"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EyesChangedEvent.
func (e EyesChangedEvent) Type() uint32 { return TypeEyesChanged }

// MonocleChangedEvent is published when the monocle moves.
type MonocleChangedEvent struct {
	Position  int    `json:"position" example:"90" doc:"Monocle servo position"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for MonocleChangedEvent.
func (e MonocleChangedEvent) Type() uint32 { return TypeMonocleChanged }

// AutomaticChangedEvent is published when automatic animations are toggled.
type AutomaticChangedEvent struct {
	Enabled   bool   `json:"enabled" example:"true" doc:"Whether automatic animations run"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for AutomaticChangedEvent.
func (e AutomaticChangedEvent) Type() uint32 { return TypeAutomaticChanged }

// CalibrationChangedEvent is published on calibration updates, saves and resets.
type CalibrationChangedEvent struct {
	Action    string `json:"action" example:"update" doc:"Calibration action: update, save, reset, reload"`
	Target    string `json:"target,omitempty" example:"neck" doc:"Calibrated part for updates"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for CalibrationChangedEvent.
func (e CalibrationChangedEvent) Type() uint32 { return TypeCalibrationChanged }

// SettingsChangedEvent is published when robot settings are updated.
type SettingsChangedEvent struct {
	RobotName           string `json:"robotName" example:"Huyang Robot" doc:"Robot display name"`
	MasterMovementSpeed int    `json:"masterMovementSpeed" example:"100" doc:"Movement speed percentage"`
	Timestamp           string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SettingsChangedEvent.
func (e SettingsChangedEvent) Type() uint32 { return TypeSettingsChanged }

// ServoLockEvent is published when servos are centred and locked or released.
type ServoLockEvent struct {
	Locked    bool   `json:"locked" example:"true" doc:"Whether servos are held at centre"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ServoLockEvent.
func (e ServoLockEvent) Type() uint32 { return TypeServoLock }

// SystemCommandEvent is published before a system command is executed.
type SystemCommandEvent struct {
	Command   string `json:"command" example:"reboot" doc:"System command: reboot or factory_reset"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SystemCommandEvent.
func (e SystemCommandEvent) Type() uint32 { return TypeSystemCommand }

// LogEntryEvent carries one log record to SSE clients.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Log sequence number"`
	Timestamp  string         `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"droid" doc:"Logger module"`
	Message    string         `json:"message" example:"Light mode applied" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
