package droid

import "errors"

var (
	// ErrDisabled is returned for commands whose feature is turned off.
	ErrDisabled = errors.New("feature disabled")
	// ErrUnknownCommand is returned for unrecognised command, action or target names.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidValue is returned for out-of-range arguments.
	ErrInvalidValue = errors.New("invalid value")
)
