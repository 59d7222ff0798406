package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims the client reads. The signature is
// never verified client side; only the server can do that.
type Claims struct {
	UserID    any    `json:"user_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("token string cannot be empty")
	}
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

func ExpiresAt(token string) (time.Time, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}

func IsExpired(token string, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
