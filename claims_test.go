package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	auth "github.com/navarrio/authkit"
)

func TestJWTClaimsAccessors(t *testing.T) {
	userID := uuid.New().String()
	now := time.Now()
	exp := now.Add(time.Hour)

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   userID,
			Audience:  jwt.ClaimStrings{"test:audience"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UID:        userID,
		UserName:   "claimuser",
		UserEmail:  "claims@example.com",
		GivenName:  "Claim",
		FamilyName: "User",
	}

	assert.Equal(t, userID, claims.Subject())
	assert.Equal(t, userID, claims.UserID())
	assert.Equal(t, "claimuser", claims.Username())
	assert.Equal(t, "claims@example.com", claims.Email())
	assert.Equal(t, "Claim", claims.FirstName())
	assert.Equal(t, "User", claims.LastName())
	assert.WithinDuration(t, now, claims.IssuedAt(), time.Second)
	assert.WithinDuration(t, exp, claims.Expires(), time.Second)
}

func TestJWTClaimsUserIDFallsBackToSubject(t *testing.T) {
	subject := uuid.New().String()

	claims := &auth.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
	}

	assert.Equal(t, subject, claims.UserID())
}

func TestJWTClaimsZeroTimes(t *testing.T) {
	claims := &auth.JWTClaims{}

	assert.True(t, claims.Expires().IsZero())
	assert.True(t, claims.IssuedAt().IsZero())
}

func TestJWTClaimsMetadata(t *testing.T) {
	claims := &auth.JWTClaims{
		Metadata: map[string]any{"tenant": "acme"},
	}

	assert.Equal(t, "acme", claims.ClaimsMetadata()["tenant"])
}
