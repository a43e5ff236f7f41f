package session

import (
	"github.com/golang-jwt/jwt/v5"
)

// Subject returns the "sub" claim of a bearer token for display purposes.
// The signature is not verified; the API remains the only authority.
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
