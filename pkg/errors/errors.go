package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a typed error code.
type ErrorCode string

const (
	ErrorCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrorCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrorCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrorCodeTimeout            ErrorCode = "TIMEOUT"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeTooManyRequests    ErrorCode = "TOO_MANY_REQUESTS"
	ErrorCodePayloadTooLarge    ErrorCode = "PAYLOAD_TOO_LARGE"
	// ErrorCodeGeneration is returned when the PDF surface or its output fails.
	// Degraded rendering (missing fonts, logos or images) is not an error.
	ErrorCodeGeneration ErrorCode = "GENERATION_FAILED"
	// ErrorCodeStorage covers the output sink and quote history.
	ErrorCodeStorage ErrorCode = "STORAGE_ERROR"
)

// AppError represents an application error with code, message, and HTTP status.
type AppError struct {
	Code             ErrorCode
	Message          string
	HTTPStatus       int
	Err              error
	Details          map[string]interface{}
	HandledByService bool // set once the service has already alerted on it
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewAppErrorWithErr creates a new application error with an underlying error.
func NewAppErrorWithErr(code ErrorCode, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// SetHandledByService marks the error as handled by the service.
func (e *AppError) SetHandledByService(handled bool) *AppError {
	e.HandledByService = handled
	return e
}

// ErrorResponse represents the JSON error response format.
type ErrorResponse struct {
	Code             ErrorCode              `json:"code"`
	Message          string                 `json:"message"`
	Details          map[string]interface{} `json:"details,omitempty"`
	HandledByService bool                   `json:"handled_by_service,omitempty"`
}

// ToErrorResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Code:             e.Code,
		Message:          e.Message,
		Details:          e.Details,
		HandledByService: e.HandledByService,
	}
}

// ToHTTPStatus maps an error code to HTTP status code.
func ToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrorCodeBadRequest, ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrorCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrorCodeStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts a standard error to an AppError. An AppError anywhere in
// the wrap chain is returned as-is; context deadlines become timeouts;
// everything else is wrapped as an internal error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewAppErrorWithErr(ErrorCodeTimeout, "The operation timed out", http.StatusGatewayTimeout, err)
	}

	return NewAppErrorWithErr(
		ErrorCodeInternal,
		"An internal error occurred",
		http.StatusInternalServerError,
		err,
	)
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// NewBadRequestError creates a bad request error.
func NewBadRequestError(message string) *AppError {
	return NewAppError(ErrorCodeBadRequest, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrorCodeNotFound, message, http.StatusNotFound)
}

// NewUnauthorizedError creates an unauthorized error.
func NewUnauthorizedError(message string) *AppError {
	return NewAppError(ErrorCodeUnauthorized, message, http.StatusUnauthorized)
}

// NewForbiddenError creates a forbidden error.
func NewForbiddenError(message string) *AppError {
	return NewAppError(ErrorCodeForbidden, message, http.StatusForbidden)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternal, message, http.StatusInternalServerError)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
}

// NewServiceUnavailableError creates a service unavailable error.
func NewServiceUnavailableError(message string) *AppError {
	return NewAppError(ErrorCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}

// NewGenerationError wraps a failure of the PDF surface or output stream.
func NewGenerationError(message string, err error) *AppError {
	return NewAppErrorWithErr(ErrorCodeGeneration, message, http.StatusInternalServerError, err)
}

// NewStorageError wraps a failure of blob upload or history persistence.
func NewStorageError(message string, err error) *AppError {
	return NewAppErrorWithErr(ErrorCodeStorage, message, http.StatusBadGateway, err)
}
