package common

import (
	"errors"
	"fmt"
	"log/slog"
)

// Common error types used across dtedfs packages
var (
	ErrReaderClosed    = errors.New("record reader is closed")
	ErrShortRead       = errors.New("short read")
	ErrBadSentinel     = errors.New("data record sentinel mismatch")
	ErrChecksum        = errors.New("data record checksum mismatch")
	ErrOutOfRange      = errors.New("index out of range")
	ErrInvalidFrame    = errors.New("frame is not valid")
	ErrUnparseablePath = errors.New("path does not follow naming convention")
	ErrIndexNotBuilt   = errors.New("directory index has not been built")
	ErrBadSnapshot     = errors.New("index snapshot is malformed")
	ErrNoFrame         = errors.New("no frame covers the requested cell")
)

// ErrorUtils provides common error handling utilities
type ErrorUtils struct{}

// NewErrorUtils creates a new ErrorUtils instance
func NewErrorUtils() *ErrorUtils {
	return &ErrorUtils{}
}

// WrapError wraps an error with additional context
func (eu *ErrorUtils) WrapError(err error, message string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
}

// LogAndWrapError logs an error and wraps it with context
func (eu *ErrorUtils) LogAndWrapError(err error, level slog.Level, message string, args ...any) error {
	if err == nil {
		return nil
	}

	context := fmt.Sprintf(message, args...)

	switch level {
	case slog.LevelDebug:
		slog.Debug(context, "error", err)
	case slog.LevelInfo:
		slog.Info(context, "error", err)
	case slog.LevelWarn:
		slog.Warn(context, "error", err)
	default:
		slog.Error(context, "error", err)
	}

	return fmt.Errorf("%s: %w", context, err)
}
