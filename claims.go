package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the claim set recovered from a verified token. It is a
// snapshot of the user record at issuance time; later profile edits are not
// reflected until the next login.
type AuthClaims interface {
	Subject() string
	UserID() string
	Username() string
	Email() string
	FirstName() string
	LastName() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID        string         `json:"uid,omitempty"`
	UserName   string         `json:"username,omitempty"`
	UserEmail  string         `json:"email,omitempty"`
	GivenName  string         `json:"given_name,omitempty"`
	FamilyName string         `json:"family_name,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID, falling back to the subject claim
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Username returns the login name claim
func (c *JWTClaims) Username() string {
	return c.UserName
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// FirstName returns the given-name claim, empty when not embedded
func (c *JWTClaims) FirstName() string {
	return c.GivenName
}

// LastName returns the family-name claim, empty when not embedded
func (c *JWTClaims) LastName() string {
	return c.FamilyName
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
