package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the outermost AppError code in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether any AppError in the chain carries code
func HasCode(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUpstreamFetch   = "UPSTREAM_FETCH_ERROR"
	CodeRateLimited     = "RATE_LIMITED"
	CodeStructural      = "STRUCTURAL_ERROR"
	CodeSemantic        = "SEMANTIC_ERROR"
	CodeKillSwitch      = "KILL_SWITCH_ACTIVE"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func Structural(message string) *AppError {
	return New(CodeStructural, message)
}

func Semantic(message string) *AppError {
	return New(CodeSemantic, message)
}

// KillSwitch reports that a module is serving its fallback instead of model output
func KillSwitch(module string) *AppError {
	return New(CodeKillSwitch, fmt.Sprintf("kill switch active, module %s is serving its fallback", module))
}

// UpstreamFetch reports a producer failure for a cache key with no stale value to fall back on
func UpstreamFetch(key string, cause error) *AppError {
	return &AppError{
		Code:    CodeUpstreamFetch,
		Message: fmt.Sprintf("upstream fetch failed for %q", key),
		Cause:   cause,
	}
}

// RateLimited is the rate-limit flavour of UpstreamFetch
func RateLimited(key string, cause error) *AppError {
	return &AppError{
		Code:    CodeRateLimited,
		Message: fmt.Sprintf("upstream rate limited for %q", key),
		Cause:   cause,
	}
}

// IsRateLimited reports whether err is (or wraps) a RateLimited error
func IsRateLimited(err error) bool {
	return HasCode(err, CodeRateLimited)
}

// IsUpstreamFailure reports whether err came from a failed upstream fetch of either kind
func IsUpstreamFailure(err error) bool {
	return HasCode(err, CodeUpstreamFetch) || HasCode(err, CodeRateLimited)
}
