package customErrors

import (
	"errors"
	"fmt"
)

const (
	ErrNotFound         = "NOT FOUND"
	ErrInvalidInput     = "INVALID INPUT"
	ErrInsufficientData = "INSUFFICIENT DATA"
	ErrInternal         = "INTERNAL"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorResponse) Error() string {
	return fmt.Sprintf("code: %s, message: %s", e.Code, e.Message)
}

// CodeOf returns the code of the first ErrorResponse in err's chain, or ErrInternal.
func CodeOf(err error) string {
	var appErr ErrorResponse
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// MessageOf returns the user facing message of the first ErrorResponse in err's chain.
func MessageOf(err error) string {
	var appErr ErrorResponse
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func NotFound(format string, args ...any) ErrorResponse {
	return ErrorResponse{Code: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) ErrorResponse {
	return ErrorResponse{Code: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Internal(format string, args ...any) ErrorResponse {
	return ErrorResponse{Code: ErrInternal, Message: fmt.Sprintf(format, args...)}
}
