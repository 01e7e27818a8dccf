package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNotJWT = errors.New("session: token is not a JWT")

// Subject returns the `sub` claim of token without verifying the signature.
// The catalog API puts the login email there; the value is for display only.
func Subject(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject: %w", err)
	}
	return sub, nil
}
