package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"guildkeeper/internal/domain"
)

func TestHashedTokenVerifier(t *testing.T) {
	hash, err := HashToken("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	v, err := NewHashedTokenVerifier(hash)
	require.NoError(t, err)

	subject, err := v.Verify("s3cret")
	require.NoError(t, err)
	assert.Equal(t, HashedTokenSubject, subject)

	_, err = v.Verify("wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewHashedTokenVerifier_RejectsPlaintext(t *testing.T) {
	_, err := NewHashedTokenVerifier("not-a-hash")
	assert.Error(t, err)

	_, err = HashToken("", bcrypt.MinCost)
	assert.Error(t, err)
}

func TestJWTVerifier(t *testing.T) {
	now := time.Now()
	token, err := IssueToken("test-secret", "alice", time.Hour, now)
	require.NoError(t, err)

	subject, err := NewJWTVerifier("test-secret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	_, err = NewJWTVerifier("other-secret").Verify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	secret := []byte("test-secret")
	sign := func(claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
		require.NoError(t, err)
		return s
	}
	now := time.Now()

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(jwt.RegisteredClaims{Subject: "alice", Audience: jwt.ClaimStrings{opsAudience}, ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})},
		{"no expiry", sign(jwt.RegisteredClaims{Subject: "alice", Audience: jwt.ClaimStrings{opsAudience}})},
		{"wrong audience", sign(jwt.RegisteredClaims{Subject: "alice", Audience: jwt.ClaimStrings{"web"}, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})},
		{"no subject", sign(jwt.RegisteredClaims{Audience: jwt.ClaimStrings{opsAudience}, ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTVerifier(string(secret)).Verify(tt.token)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestIssueToken_RequiresSecretAndSubject(t *testing.T) {
	_, err := IssueToken("", "alice", time.Hour, time.Now())
	assert.Error(t, err)
	_, err = IssueToken("s", "", time.Hour, time.Now())
	assert.Error(t, err)
}

type fixedVerifier struct {
	token, subject string
}

func (f fixedVerifier) Verify(token string) (string, error) {
	if token != f.token {
		return "", domain.ErrInvalidToken
	}
	return f.subject, nil
}

func TestAnyOf(t *testing.T) {
	assert.Nil(t, AnyOf(nil, nil))

	v := AnyOf(nil, fixedVerifier{"a", "first"}, fixedVerifier{"b", "second"})
	subject, err := v.Verify("b")
	require.NoError(t, err)
	assert.Equal(t, "second", subject)

	_, err = v.Verify("c")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
