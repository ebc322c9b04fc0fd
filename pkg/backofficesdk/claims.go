package backofficesdk

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry returns the expiry instant of an access token. The JWT exp
// claim wins when present; otherwise the server-declared fallback is used.
// The signature is deliberately not verified: the client holds no keys, and
// the server re-validates every request anyway.
func tokenExpiry(accessToken string, fallback time.Time) time.Time {
	if accessToken == "" {
		return fallback
	}

	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil {
		return fallback
	}
	return claims.ExpiresAt.Time
}
