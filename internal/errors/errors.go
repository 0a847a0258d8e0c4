package errors

import (
	stderrors "errors"
	"fmt"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"-"`
	cause   error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As chains
func (e *APIError) Unwrap() error {
	return e.cause
}

// MissingUser creates a 404 error for a user absent from the database
func MissingUser(userID uint32) *APIError {
	return &APIError{
		Code:    ErrMissingUser,
		Message: fmt.Sprintf("missing user %d", userID),
		Status:  ErrMissingUser.StatusCode(),
	}
}

// MissingInfluence creates a 404 error for an absent influence relation
func MissingInfluence() *APIError {
	return &APIError{
		Code:    ErrMissingInfluence,
		Message: "missing influence",
		Status:  ErrMissingInfluence.StatusCode(),
	}
}

// NonExistingMap creates a 404 error for a beatmap the osu! API does not know
func NonExistingMap(beatmapID uint32) *APIError {
	return &APIError{
		Code:    ErrNonExistingMap,
		Message: fmt.Sprintf("map with id %d could not be found on osu! API", beatmapID),
		Status:  ErrNonExistingMap.StatusCode(),
	}
}

// MissingTokenCookie creates a 401 error for requests without a session cookie
func MissingTokenCookie() *APIError {
	return &APIError{
		Code:    ErrMissingTokenCookie,
		Message: "missing user_token cookie",
		Status:  ErrMissingTokenCookie.StatusCode(),
	}
}

// TokenVerification creates a 401 error for an invalid or expired session token
func TokenVerification() *APIError {
	return &APIError{
		Code:    ErrTokenVerification,
		Message: "session token verification error",
		Status:  ErrTokenVerification.StatusCode(),
	}
}

// WrongAdminPassword creates a 401 error for a failed admin login
func WrongAdminPassword() *APIError {
	return &APIError{
		Code:    ErrWrongAdminPassword,
		Message: "wrong admin password",
		Status:  ErrWrongAdminPassword.StatusCode(),
	}
}

// StringTooLong creates a 422 error for over-long free text input
func StringTooLong(field string) *APIError {
	return &APIError{
		Code:    ErrStringTooLong,
		Message: fmt.Sprintf("%s exceeds the maximum allowed length", field),
		Status:  ErrStringTooLong.StatusCode(),
	}
}

// MissingLayerJSON creates a 422 error for an upstream response missing the
// expected outer object wrapper
func MissingLayerJSON() *APIError {
	return &APIError{
		Code:    ErrMissingLayerJSON,
		Message: "expected JSON layer is missing",
		Status:  ErrMissingLayerJSON.StatusCode(),
	}
}

// Validation creates a 422 error for malformed request input
func Validation(message string) *APIError {
	return &APIError{
		Code:    ErrValidation,
		Message: message,
		Status:  ErrValidation.StatusCode(),
	}
}

// Internal wraps an unexpected error as a 500
func Internal(err error) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: "internal server error",
		Status:  ErrInternalError.StatusCode(),
		cause:   err,
	}
}

// Internalf creates a 500 error with a formatted message
func Internalf(format string, args ...any) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: fmt.Sprintf(format, args...),
		Status:  ErrInternalError.StatusCode(),
	}
}

// From normalizes any error to an APIError, wrapping unknown errors as internal
func From(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// IsCode reports whether err is an APIError with the given code
func IsCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
