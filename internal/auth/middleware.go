package auth

import (
	"github.com/gin-gonic/gin"
	apperror "github.com/mapperinfluences/backend/internal/errors"
	"github.com/mapperinfluences/backend/internal/util"
)

const claimsContextKey = "auth_claims"

// Middleware rejects requests without a valid session cookie and stores the
// verified claims on the request context.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(TokenCookieName)
		if err != nil {
			util.RespondWithAPIError(c, apperror.MissingTokenCookie())
			return
		}

		claims, err := s.VerifyToken(cookie)
		if err != nil {
			util.RespondWithError(c, err)
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// FromContext returns the claims stored by Middleware. The bool is false on
// routes that skipped authentication.
func FromContext(c *gin.Context) (*Claims, bool) {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok
}
