// Package auth issues and verifies the JWT session tokens carried in the
// user_token cookie.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperror "github.com/mapperinfluences/backend/internal/errors"
)

// TokenCookieName is the session cookie the middleware reads.
const TokenCookieName = "user_token"

// Claims is the session payload. OsuToken is the user's osu! access token,
// forwarded to upstream calls made on the user's behalf.
type Claims struct {
	UserID   uint32 `json:"user_id"`
	Username string `json:"username"`
	OsuToken string `json:"osu_token"`
	jwt.RegisteredClaims
}

// Service signs and verifies session tokens with a shared HMAC secret.
type Service struct {
	secret []byte
}

// NewService creates a token service from the configured secret.
func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// CreateToken signs a session token that expires after the given duration.
func (s *Service) CreateToken(userID uint32, username, osuToken string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		OsuToken: osuToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a session token. Expired, malformed and
// wrongly signed tokens all come back as a token verification error so the
// response does not leak which check failed.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.TokenVerification()
	}
	return claims, nil
}
