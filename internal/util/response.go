package util

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/logger"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.Int("status", apiErr.Status),
			zap.Error(apiErr),
		)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
		)
	}

	c.JSON(apiErr.Status, ErrorResponse{
		Message: apiErr.Message,
		Code:    string(apiErr.Code),
	})
	c.Abort()
}

// RespondWithError normalizes any error to the API error shape
func RespondWithError(c *gin.Context, err error) {
	RespondWithAPIError(c, errors.From(err))
}

// ParseUint32Param parses a numeric path parameter, responding with a 422
// when the segment is malformed. The bool reports whether parsing succeeded.
func ParseUint32Param(c *gin.Context, name string) (uint32, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		RespondWithAPIError(c, errors.Validation("invalid "+name+" path parameter"))
		return 0, false
	}
	return uint32(value), true
}

// ParseUint8Param parses a small numeric path parameter, responding with a
// validation error on bad input or overflow.
func ParseUint8Param(c *gin.Context, name string) (uint8, bool) {
	raw := c.Param(name)
	value, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		RespondWithAPIError(c, errors.Validation("invalid "+name+" path parameter"))
		return 0, false
	}
	return uint8(value), true
}

// ParseUint32Query parses a numeric query parameter with a fallback default.
func ParseUint32Query(c *gin.Context, name string, fallback uint32) uint32 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(value)
}
