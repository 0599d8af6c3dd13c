package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of access-token claims the CLI displays. Parsing is
// unverified: signature checking belongs to the backend, the client only
// reads claims for display.
type Claims struct {
	Subject   string
	Email     string
	UserID    string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseClaims parses a JWT without validation, for claim inspection only.
// Returns an error only for malformed tokens, not for expired ones.
func ParseClaims(token string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	raw, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("failed to extract claims from token")
	}

	claims := &Claims{}
	if sub, ok := raw["sub"].(string); ok {
		claims.Subject = sub
	}
	if email, ok := raw["email"].(string); ok {
		claims.Email = email
	}
	if userID, ok := raw["user_id"].(string); ok {
		claims.UserID = userID
	} else if userID, ok := raw["user_id"].(float64); ok {
		claims.UserID = fmt.Sprintf("%.0f", userID)
	}
	if typ, ok := raw["token_type"].(string); ok {
		claims.TokenType = typ
	}
	if iat, ok := raw["iat"].(float64); ok {
		claims.IssuedAt = time.Unix(int64(iat), 0)
	}
	if exp, ok := raw["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return claims, nil
}

// ExpiresSoon reports whether the token expires within the given window.
// Malformed tokens and tokens without an exp claim report false; expiry is
// enforced server-side, this only drives an advisory warning.
func ExpiresSoon(token string, within time.Duration) bool {
	claims, err := ParseClaims(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return time.Until(claims.ExpiresAt) < within
}
