package errors

import (
	stderrors "errors"
	"fmt"
)

const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeInvalidReq      = "INVALID_REQUEST"
	ErrCodeInvalidProvider = "INVALID_PROVIDER"
	ErrCodeProviderAuth    = "PROVIDER_AUTH"
	ErrCodeProviderAPI     = "PROVIDER_ERROR"
	ErrCodeNetwork         = "NETWORK_ERROR"
	ErrCodeLocalTool       = "LOCAL_TOOL_FAILED"
	ErrCodeEmptyOutline    = "EMPTY_OUTLINE"
	ErrCodeRender          = "RENDER_ERROR"
	ErrCodeImage           = "IMAGE_ERROR"
	ErrCodeStorage         = "STORAGE_ERROR"
	ErrCodeRateLimited     = "RATE_LIMITED"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

// Error omits the code so the text can be shown to callers as-is.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether the outermost AppError in err's chain carries code.
// Codes of AppErrors wrapped inside another AppError are not consulted.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost AppError in err's chain,
// or ErrCodeInternal when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}
