package models

// Command status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CommandResult is the envelope returned by every droid command.
type CommandResult struct {
	Status  string `json:"status" example:"success" doc:"success or error"`
	Message string `json:"message" example:"Chest light mode updated" doc:"Human-readable outcome"`
}

type CommandResponse struct {
	Body CommandResult
}

// Success builds a successful command response.
func Success(message string) *CommandResponse {
	return &CommandResponse{Body: CommandResult{Status: StatusSuccess, Message: message}}
}

// State models

type FaceState struct {
	LeftEye  int `json:"leftEye" example:"1" doc:"Left eye state (0 none, 1 open, 2 closed, 3 blink, 4 focus, 5 sad, 6 angry)"`
	RightEye int `json:"rightEye" example:"1" doc:"Right eye state"`
}

type PoseState struct {
	Rotate       int `json:"rotate" example:"0" doc:"Rotation in degrees (-90..90)"`
	TiltForward  int `json:"tiltForward" example:"0" doc:"Forward tilt in degrees (-90..90)"`
	TiltSideways int `json:"tiltSideways" example:"0" doc:"Sideways tilt in degrees (-90..90)"`
}

type CalibrationState struct {
	NeckRotation     int `json:"neckRotation" doc:"Neck rotation offset"`
	NeckTiltForward  int `json:"neckTiltForward" doc:"Neck forward tilt offset"`
	NeckTiltSideways int `json:"neckTiltSideways" doc:"Neck sideways tilt offset"`
	BodyRotation     int `json:"bodyRotation" doc:"Body rotation offset"`
	BodyTiltForward  int `json:"bodyTiltForward" doc:"Body forward tilt offset"`
	BodyTiltSideways int `json:"bodyTiltSideways" doc:"Body sideways tilt offset"`
	Monocle          int `json:"monocle" doc:"Monocle offset"`
}

type FeatureState struct {
	Eyes         bool `json:"eyes"`
	Monocle      bool `json:"monocle"`
	NeckMovement bool `json:"neckMovement"`
	HeadRotation bool `json:"headRotation"`
	BodyMovement bool `json:"bodyMovement"`
	BodyRotation bool `json:"bodyRotation"`
	TorsoLights  bool `json:"torsoLights"`
}

// DroidState is the snapshot returned by GET /api/calibration.
type DroidState struct {
	Automatic           bool             `json:"automatic" doc:"Automatic animations enabled"`
	Face                FaceState        `json:"face"`
	Neck                PoseState        `json:"neck"`
	Body                PoseState        `json:"body"`
	MonoclePosition     int              `json:"monoclePosition" example:"90" doc:"Monocle position"`
	Calibration         CalibrationState `json:"calibration"`
	ChestLightMode      int              `json:"chestLightMode" example:"0" doc:"Chest light mode (0..5)"`
	ServosLocked        bool             `json:"servosLocked" doc:"Servos centred and held for calibration"`
	RobotName           string           `json:"robotName" example:"Huyang Robot"`
	MasterMovementSpeed int              `json:"masterMovementSpeed" example:"100" doc:"Movement speed in percent"`
	FirmwareVersion     string           `json:"firmwareVersion" example:"dev"`
	Features            FeatureState     `json:"features" doc:"Enabled command groups"`
}

type DroidStateResponse struct {
	Body DroidState
}

// Action types.
const (
	ActionEye       = "eye"
	ActionNeck      = "neck"
	ActionBody      = "body"
	ActionMonocle   = "monocle"
	ActionAutomatic = "automatic"
)

// ActionData is a single droid command. Which fields apply depends on Type.
type ActionData struct {
	Type string `json:"type" example:"eye" doc:"Command type: eye, neck, body, monocle or automatic"`
	// Eye
	Target string `json:"target,omitempty" example:"all" doc:"Eye target: all, left or right"`
	// State is an eye state number for "eye" and a boolean for "automatic".
	State any `json:"state,omitempty" doc:"Eye state (0..6) or automatic flag"`
	// Neck and body, each in -100..100
	Rotate       *float64 `json:"rotate,omitempty" doc:"Rotation in percent (-100..100)"`
	TiltForward  *float64 `json:"tiltForward,omitempty" doc:"Forward tilt in percent (-100..100)"`
	TiltSideways *float64 `json:"tiltSideways,omitempty" doc:"Sideways tilt in percent (-100..100)"`
	// Monocle
	Position *int `json:"position,omitempty" doc:"Monocle position; current position when omitted"`
}

type ActionRequest struct {
	Body ActionData
}

type LightsData struct {
	Mode int `json:"mode" example:"4" doc:"Chest light mode (0 off, 1 static, 2 warning blink, 3 processing fade, 4 droid 1, 5 droid 2)"`
}

type LightsRequest struct {
	Body LightsData
}

// Calibration actions.
const (
	CalibrateUpdate        = "update"
	CalibrateSave          = "save"
	CalibrateReset         = "reset"
	CalibrateSetMiddleLock = "set_middle_and_lock"
	CalibrateUnlockServos  = "unlock_servos"
)

type CalibrateData struct {
	Action string `json:"action" example:"update" doc:"Calibration action: update, save, reset, set_middle_and_lock or unlock_servos"`
	// Type selects neck, body or monocle for "update".
	Type         string `json:"type,omitempty" example:"neck" doc:"Calibration target for update"`
	Rotation     *int   `json:"rotation,omitempty" doc:"Rotation offset"`
	TiltForward  *int   `json:"tiltForward,omitempty" doc:"Forward tilt offset"`
	TiltSideways *int   `json:"tiltSideways,omitempty" doc:"Sideways tilt offset"`
	Position     *int   `json:"position,omitempty" doc:"Monocle offset"`
}

type CalibrateRequest struct {
	Body CalibrateData
}

type SettingsData struct {
	RobotName           *string `json:"robotName,omitempty" example:"Huyang" doc:"Robot name"`
	MasterMovementSpeed *int    `json:"masterMovementSpeed,omitempty" example:"100" doc:"Movement speed in percent (50..150)"`
}

type SettingsRequest struct {
	Body SettingsData
}

type SystemData struct {
	Command string `json:"command" example:"reboot" doc:"System command: reboot or factory_reset"`
}

type SystemRequest struct {
	Body SystemData
}
