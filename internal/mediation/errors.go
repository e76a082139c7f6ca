package mediation

import (
	"errors"
	"fmt"
)

// ErrorCode classifies adapter errors
type ErrorCode string

const (
	ErrorCodeNotLoaded    ErrorCode = "NOT_LOADED"
	ErrorCodeActivityGone ErrorCode = "ACTIVITY_GONE"
	ErrorCodeBadContext   ErrorCode = "BAD_CONTEXT"
	ErrorCodeInitFailed   ErrorCode = "INIT_FAILED"
	ErrorCodeBadParams    ErrorCode = "BAD_PARAMS"
)

var (
	// ErrNotLoaded is returned by Show when no ad instance is loaded
	ErrNotLoaded = errors.New("no ad loaded")
	// ErrActivityGone is returned by Show when the captured activity died
	ErrActivityGone = errors.New("activity to display the ad is gone")
	// ErrNotActivity marks a request made with a non-activity context
	ErrNotActivity = errors.New("context is not an activity")
)

// AdapterError is a standardized adapter error
type AdapterError struct {
	Network string
	Format  Format
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *AdapterError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s %s: %s (%v)", e.Code, e.Network, e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s %s: %s", e.Code, e.Network, e.Format, e.Message)
}

func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// NewNotLoadedError creates the error returned when showing without a loaded ad
func NewNotLoadedError(network string, format Format) *AdapterError {
	return &AdapterError{
		Network: network,
		Format:  format,
		Code:    ErrorCodeNotLoaded,
		Message: "show called before a successful load",
		Cause:   ErrNotLoaded,
	}
}

// NewActivityGoneError creates the error returned when the display activity died
func NewActivityGoneError(network string, format Format, activityID string) *AdapterError {
	return &AdapterError{
		Network: network,
		Format:  format,
		Code:    ErrorCodeActivityGone,
		Message: fmt.Sprintf("activity %q is no longer available", activityID),
		Cause:   ErrActivityGone,
	}
}

// NewInitError wraps a network SDK bootstrap failure
func NewInitError(network string, format Format, cause error) *AdapterError {
	return &AdapterError{
		Network: network,
		Format:  format,
		Code:    ErrorCodeInitFailed,
		Message: "SDK initialization failed",
		Cause:   cause,
	}
}

// NewBadContextError creates the error reported when a request needs an
// activity but got another kind of context
func NewBadContextError(network string, format Format, message string) *AdapterError {
	return &AdapterError{
		Network: network,
		Format:  format,
		Code:    ErrorCodeBadContext,
		Message: message,
		Cause:   ErrNotActivity,
	}
}

// NewBadParamsError wraps a configuration string that could not be decoded
func NewBadParamsError(network string, format Format, message string, cause error) *AdapterError {
	return &AdapterError{
		Network: network,
		Format:  format,
		Code:    ErrorCodeBadParams,
		Message: message,
		Cause:   cause,
	}
}
