package domain

import "errors"

// ErrInvalidToken is returned by a TokenVerifier that does not accept a token.
var ErrInvalidToken = errors.New("invalid token")

// TokenVerifier maps a bearer token for the ops API to the subject it authenticates.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}
