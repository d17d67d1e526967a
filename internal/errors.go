package internal

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media")
	ErrTooManyFiles     = errors.New("only one file can be submitted at a time")
	ErrTooLarge         = errors.New("file exceeds the size limit")

	ErrSessionBusy   = errors.New("an analysis is already in progress")
	ErrNothingStaged = errors.New("no media staged")
	ErrSessionClosed = errors.New("session closed")
	ErrInvalidState  = errors.New("action not allowed in the current state")

	ErrCameraBusy    = errors.New("camera is in use by another session")
	ErrCameraStopped = errors.New("camera is not streaming")
)

// ValidationReason classifies intake-time rejections
type ValidationReason string

const (
	ReasonUnsupported  ValidationReason = "unsupported"
	ReasonTooManyFiles ValidationReason = "too_many_files"
	ReasonTooLarge     ValidationReason = "too_large"
)

// ValidationError is returned by media intake before any network call.
type ValidationError struct {
	Reason ValidationReason
	Name   string // offending file name, if any
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("validation error [%s] %s: %s", e.Reason, e.Name, e.Detail)
	}
	return fmt.Sprintf("validation error [%s]: %s", e.Reason, e.Detail)
}

// Is lets errors.Is match the reason sentinels. An oversized file is also
// unsupported input.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrUnsupportedMedia:
		return e.Reason == ReasonUnsupported || e.Reason == ReasonTooLarge
	case ErrTooManyFiles:
		return e.Reason == ReasonTooManyFiles
	case ErrTooLarge:
		return e.Reason == ReasonTooLarge
	}
	return false
}

// ErrorKind classifies submission-time failures
type ErrorKind string

const (
	KindUnreachable       ErrorKind = "unreachable"
	KindServerRejected    ErrorKind = "server_rejected"
	KindInvalid           ErrorKind = "invalid"
	KindMalformedResponse ErrorKind = "malformed_response"
)

// ClassifyError represents a failed classification attempt
type ClassifyError struct {
	Kind    ErrorKind
	Op      string // "classify-image", "classify-image-inline", "classify-video", "normalize"
	Status  int    // HTTP status for server rejections
	Message string // user-facing message
	Err     error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Op, e.Kind, e.Message)
}

func (e *ClassifyError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user for a failed attempt.
func UserMessage(err error) string {
	var ce *ClassifyError
	if errors.As(err, &ce) {
		return ce.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Detail
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsKind reports whether err is a ClassifyError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ce *ClassifyError
	return errors.As(err, &ce) && ce.Kind == kind
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CameraError represents errors acquiring or reading a frame source
type CameraError struct {
	Device string
	Op     string // "open", "grab", "close"
	Err    error
}

func (e *CameraError) Error() string {
	return fmt.Sprintf("camera error: %s %s: %v", e.Op, e.Device, e.Err)
}

func (e *CameraError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during report export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
