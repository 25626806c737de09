package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the claim set projected into a request-scoped identity.
// It carries the snapshot taken at token issuance, not live store data.
type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Username       string         `json:"username,omitempty"`
	Email          string         `json:"email,omitempty"`
	FirstName      string         `json:"first_name,omitempty"`
	LastName       string         `json:"last_name,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetUsername() string {
	return s.Username
}

func (s *SessionObject) GetEmail() string {
	return s.Email
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s email=%s aud=%v iss=%s iat=%s",
		s.UserID,
		s.Email,
		s.Audience,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromAuthClaims creates a SessionObject from a verified claim set
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	session := &SessionObject{
		UserID:    claims.UserID(),
		Username:  claims.Username(),
		Email:     claims.Email(),
		FirstName: claims.FirstName(),
		LastName:  claims.LastName(),
	}

	if jwtClaims, ok := claims.(*JWTClaims); ok {
		session.Issuer = jwtClaims.RegisteredClaims.Issuer
		session.Audience = audienceStrings(jwtClaims.RegisteredClaims.Audience)

		if len(jwtClaims.Metadata) > 0 {
			session.Data = map[string]any{"metadata": jwtClaims.Metadata}
		}
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()
	session.IssuedAt = &issuedAt
	session.ExpirationDate = &expiresAt

	return session, nil
}
