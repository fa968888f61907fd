package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/huyangdroid/droidpanel/internal/api/models"
	"github.com/huyangdroid/droidpanel/internal/droid"
	"github.com/huyangdroid/droidpanel/internal/lights"
	"github.com/huyangdroid/droidpanel/internal/metrics"
)

const unknownCommandType = "Unknown or disabled command type"

// registerDroidRoutes registers the droid command endpoints.
func (s *Server) registerDroidRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-droid-state",
		Method:      http.MethodGet,
		Path:        "/api/calibration",
		Summary:     "Get Droid State",
		Description: "Current pose, eyes, chest light mode, calibration offsets and settings",
		Tags:        []string{"droid"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(context.Context, *struct{}) (*models.DroidStateResponse, error) {
		return &models.DroidStateResponse{Body: stateToAPI(s.controller.State(), s.controller.Features())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "post-action",
		Method:      http.MethodPost,
		Path:        "/api/action",
		Summary:     "Droid Action",
		Description: "Move the neck or body, set the eyes or monocle, or toggle automatic animations",
		Tags:        []string{"droid"},
		Security:    withAuth(),
		Errors:      []int{400, 401},
	}, func(_ context.Context, input *models.ActionRequest) (*models.CommandResponse, error) {
		resp, err := s.handleAction(input.Body)
		record(actionLabel(input.Body.Type), err)
		return resp, err
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "post-lights",
		Method:      http.MethodPost,
		Path:        "/api/lights",
		Summary:     "Set Chest Lights",
		Description: "Select the chest light mode: 0 off, 1 static, 2 warning blink, 3 processing fade, 4 droid 1, 5 droid 2",
		Tags:        []string{"droid"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 403},
	}, func(_ context.Context, input *models.LightsRequest) (*models.CommandResponse, error) {
		err := s.controller.SetLights(lights.Mode(input.Body.Mode))
		record("lights", err)
		switch {
		case errors.Is(err, droid.ErrDisabled):
			return nil, huma.Error403Forbidden("Chest lights disabled")
		case errors.Is(err, lights.ErrUnknownMode):
			return nil, huma.Error400BadRequest("Unknown chest light mode", err)
		case err != nil:
			return nil, huma.Error500InternalServerError("Failed to set chest lights", err)
		}
		return models.Success("Chest light mode updated"), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "post-calibrate",
		Method:      http.MethodPost,
		Path:        "/api/calibrate",
		Summary:     "Calibrate",
		Description: "Update, save or reset servo calibration offsets, or centre and lock the servos",
		Tags:        []string{"calibration"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(_ context.Context, input *models.CalibrateRequest) (*models.CommandResponse, error) {
		resp, err := s.handleCalibrate(input.Body)
		record("calibrate", err)
		return resp, err
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "post-settings",
		Method:      http.MethodPost,
		Path:        "/api/settings",
		Summary:     "Update Settings",
		Description: "Update the robot name and master movement speed. Only the keys present are changed.",
		Tags:        []string{"calibration"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(_ context.Context, input *models.SettingsRequest) (*models.CommandResponse, error) {
		err := s.controller.UpdateSettings(droid.SettingsUpdate{
			RobotName:           input.Body.RobotName,
			MasterMovementSpeed: input.Body.MasterMovementSpeed,
		})
		record("settings", err)
		if err != nil {
			return nil, commandError("Failed to update settings", err)
		}
		return models.Success("Settings updated"), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "post-system",
		Method:      http.MethodPost,
		Path:        "/api/system",
		Summary:     "System Command",
		Description: "Reboot the droid, or reset calibration and settings to defaults and reboot",
		Tags:        []string{"system"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(_ context.Context, input *models.SystemRequest) (*models.CommandResponse, error) {
		err := s.controller.System(input.Body.Command)
		record("system", err)
		if errors.Is(err, droid.ErrUnknownCommand) {
			return nil, huma.Error400BadRequest("Unknown system command")
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("System command failed", err)
		}
		if input.Body.Command == droid.CommandFactoryReset {
			return models.Success("Factory reset and rebooting..."), nil
		}
		return models.Success("Rebooting..."), nil
	})
}

func (s *Server) handleAction(a models.ActionData) (*models.CommandResponse, error) {
	switch a.Type {
	case models.ActionEye:
		state, ok := intState(a.State)
		if !ok {
			return nil, huma.Error400BadRequest("Eye state must be a number")
		}
		target := a.Target
		if target == "" {
			target = "all"
		}
		if err := s.controller.SetEyes(target, droid.EyeState(state)); err != nil {
			return nil, actionError(err)
		}
		return models.Success("Eye command received"), nil

	case models.ActionNeck, models.ActionBody:
		part := droid.Neck
		message := "Neck command received"
		if a.Type == models.ActionBody {
			part = droid.Body
			message = "Body command received"
		}
		if _, err := s.controller.Move(part, value(a.Rotate), value(a.TiltForward), value(a.TiltSideways)); err != nil {
			return nil, actionError(err)
		}
		return models.Success(message), nil

	case models.ActionMonocle:
		if _, err := s.controller.SetMonocle(a.Position); err != nil {
			return nil, actionError(err)
		}
		return models.Success("Monocle command received"), nil

	case models.ActionAutomatic:
		enabled, ok := boolState(a.State)
		if !ok {
			return nil, huma.Error400BadRequest("Automatic state must be a boolean")
		}
		s.controller.SetAutomatic(enabled)
		return models.Success("Automatic mode updated"), nil

	default:
		return nil, huma.Error400BadRequest(unknownCommandType)
	}
}

func (s *Server) handleCalibrate(c models.CalibrateData) (*models.CommandResponse, error) {
	switch c.Action {
	case models.CalibrateUpdate:
		err := s.controller.UpdateCalibration(c.Type, droid.CalibrationUpdate{
			Rotation:     c.Rotation,
			TiltForward:  c.TiltForward,
			TiltSideways: c.TiltSideways,
			Position:     c.Position,
		})
		if err != nil {
			return nil, commandError("Failed to update calibration", err)
		}
		return models.Success("Calibration update received"), nil

	case models.CalibrateSave:
		if err := s.controller.SaveCalibration(); err != nil {
			return nil, commandError("Failed to save calibration", err)
		}
		return models.Success("Calibration saved"), nil

	case models.CalibrateReset:
		if err := s.controller.ResetCalibration(); err != nil {
			return nil, commandError("Failed to reset calibration", err)
		}
		return models.Success("Calibration reset"), nil

	case models.CalibrateSetMiddleLock:
		s.controller.LockServos(true)
		return models.Success("Set middle and lock command received"), nil

	case models.CalibrateUnlockServos:
		s.controller.LockServos(false)
		return models.Success("Unlock servos command received"), nil

	default:
		return nil, huma.Error400BadRequest("Unknown calibration action")
	}
}

// actionError maps controller errors for /api/action. Disabled features are
// reported the same way as unknown types.
func actionError(err error) error {
	switch {
	case errors.Is(err, droid.ErrDisabled):
		return huma.Error400BadRequest(unknownCommandType, err)
	case errors.Is(err, droid.ErrUnknownCommand), errors.Is(err, droid.ErrInvalidValue):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError("Action failed", err)
	}
}

func commandError(msg string, err error) error {
	switch {
	case errors.Is(err, droid.ErrUnknownCommand), errors.Is(err, droid.ErrInvalidValue):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, droid.ErrDisabled):
		return huma.Error403Forbidden(err.Error())
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

func record(commandType string, err error) {
	switch {
	case err == nil:
		metrics.RecordCommand(commandType, metrics.ResultOK)
	case errors.Is(err, droid.ErrDisabled), errors.Is(err, droid.ErrUnknownCommand),
		errors.Is(err, droid.ErrInvalidValue), errors.Is(err, lights.ErrUnknownMode):
		metrics.RecordCommand(commandType, metrics.ResultRejected)
	default:
		var se huma.StatusError
		if errors.As(err, &se) && se.GetStatus() < http.StatusInternalServerError {
			metrics.RecordCommand(commandType, metrics.ResultRejected)
			return
		}
		metrics.RecordCommand(commandType, metrics.ResultError)
	}
}

// actionLabel bounds the metric label to known action types.
func actionLabel(t string) string {
	switch t {
	case models.ActionEye, models.ActionNeck, models.ActionBody, models.ActionMonocle, models.ActionAutomatic:
		return t
	default:
		return "unknown"
	}
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// intState reads a JSON number. A missing state counts as 0.
func intState(v any) (int, bool) {
	switch s := v.(type) {
	case nil:
		return 0, true
	case float64:
		return int(s), true
	case int:
		return s, true
	default:
		return 0, false
	}
}

// boolState reads a JSON boolean, accepting 0 and 1 as well.
func boolState(v any) (bool, bool) {
	switch s := v.(type) {
	case nil:
		return false, true
	case bool:
		return s, true
	case float64:
		return s != 0, true
	default:
		return false, false
	}
}

func stateToAPI(st droid.State, f droid.Features) models.DroidState {
	return models.DroidState{
		Automatic: st.Automatic,
		Face: models.FaceState{
			LeftEye:  int(st.LeftEye),
			RightEye: int(st.RightEye),
		},
		Neck:            poseToAPI(st.Neck),
		Body:            poseToAPI(st.Body),
		MonoclePosition: st.MonoclePosition,
		Calibration: models.CalibrationState{
			NeckRotation:     st.Calibration.NeckRotation,
			NeckTiltForward:  st.Calibration.NeckTiltForward,
			NeckTiltSideways: st.Calibration.NeckTiltSideways,
			BodyRotation:     st.Calibration.BodyRotation,
			BodyTiltForward:  st.Calibration.BodyTiltForward,
			BodyTiltSideways: st.Calibration.BodyTiltSideways,
			Monocle:          st.Calibration.Monocle,
		},
		ChestLightMode:      int(st.ChestLight),
		ServosLocked:        st.ServosLocked,
		RobotName:           st.Settings.RobotName,
		MasterMovementSpeed: st.Settings.MasterMovementSpeed,
		FirmwareVersion:     st.FirmwareVersion,
		Features: models.FeatureState{
			Eyes:         f.Eyes,
			Monocle:      f.Monocle,
			NeckMovement: f.NeckMovement,
			HeadRotation: f.HeadRotation,
			BodyMovement: f.BodyMovement,
			BodyRotation: f.BodyRotation,
			TorsoLights:  f.TorsoLights,
		},
	}
}

func poseToAPI(a droid.Axes) models.PoseState {
	return models.PoseState{Rotate: a.Rotate, TiltForward: a.TiltForward, TiltSideways: a.TiltSideways}
}
