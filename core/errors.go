package core

import "errors"

var (
	// ErrNilEvent is returned when a nil event is submitted for evaluation.
	ErrNilEvent = errors.New("event is nil")
	// ErrUnknownPattern is returned when a pattern id is not registered.
	ErrUnknownPattern = errors.New("unknown pattern")
	// ErrUnknownRule is returned when an alert rule id is not registered.
	ErrUnknownRule = errors.New("unknown alert rule")
	// ErrDuplicateID is returned when a registry is loaded with a repeated id.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrInvalidPattern is returned when a pattern definition fails validation.
	ErrInvalidPattern = errors.New("invalid pattern definition")
	// ErrInvalidRule is returned when an alert rule definition fails validation.
	ErrInvalidRule = errors.New("invalid alert rule definition")
)
