package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"guildkeeper/internal/domain"
)

// HashedTokenSubject is the subject reported for the shared ops token.
const HashedTokenSubject = "ops"

type hashedToken struct {
	hash []byte
}

// NewHashedTokenVerifier accepts the one token whose bcrypt hash is given.
func NewHashedTokenVerifier(hash string) (domain.TokenVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("ops token hash: %w", err)
	}
	return &hashedToken{hash: []byte(hash)}, nil
}

func (h *hashedToken) Verify(token string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(h.hash, []byte(token)); err != nil {
		return "", domain.ErrInvalidToken
	}
	return HashedTokenSubject, nil
}

// HashToken returns the bcrypt hash to put in OPS_TOKEN_HASH.
func HashToken(token string, cost int) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(hash), nil
}
