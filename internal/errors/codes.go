package errors

import "net/http"

// ErrorCode represents the type of error
type ErrorCode string

const (
	ErrMissingUser        ErrorCode = "MISSING_USER"
	ErrMissingInfluence   ErrorCode = "MISSING_INFLUENCE"
	ErrNonExistingMap     ErrorCode = "NON_EXISTING_MAP"
	ErrMissingTokenCookie ErrorCode = "MISSING_TOKEN_COOKIE"
	ErrTokenVerification  ErrorCode = "TOKEN_VERIFICATION"
	ErrWrongAdminPassword ErrorCode = "WRONG_ADMIN_PASSWORD"
	ErrStringTooLong      ErrorCode = "STRING_TOO_LONG"
	ErrMissingLayerJSON   ErrorCode = "MISSING_LAYER_JSON"
	ErrValidation         ErrorCode = "VALIDATION_ERROR"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrMissingUser:        http.StatusNotFound,
	ErrMissingInfluence:   http.StatusNotFound,
	ErrNonExistingMap:     http.StatusNotFound,
	ErrMissingTokenCookie: http.StatusUnauthorized,
	ErrTokenVerification:  http.StatusUnauthorized,
	ErrWrongAdminPassword: http.StatusUnauthorized,
	ErrStringTooLong:      http.StatusUnprocessableEntity,
	ErrMissingLayerJSON:   http.StatusUnprocessableEntity,
	ErrValidation:         http.StatusUnprocessableEntity,
	ErrInternalError:      http.StatusInternalServerError,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
