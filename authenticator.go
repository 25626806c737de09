package auth

import (
	"context"
	"reflect"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// Auther coordinates the credential store, password verification, and token
// issuance. It keeps no per-request state; one instance serves all requests.
type Auther struct {
	provider       IdentityProvider
	tokenService   TokenService
	tokenValidator TokenValidator
	logger         Logger
}

// NewAuthenticator returns a new Authenticator. The configuration is
// validated here; a missing or weak signing secret fails construction
// rather than the first login.
func NewAuthenticator(provider IdentityProvider, opts Config) (*Auther, error) {
	tokenService, err := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)
	if err != nil {
		return nil, err
	}

	return &Auther{
		provider:     provider,
		tokenService: tokenService,
		logger:       defLogger{},
	}, nil
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login resolves the identifier, verifies the password, and returns a signed
// bearer token. All credential failures surface as the same error value so a
// caller cannot learn whether the identifier or the password was wrong.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %s", err)
		return "", credentialError(err)
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrMismatchedHashAndPassword
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("Login token generation error: %s", err)
		return "", err
	}

	return token, nil
}

// IdentityFromSession re-reads the identity behind a session from the store.
// Use it when a caller needs current profile data rather than the snapshot
// embedded in the token.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity error: %s", err)
		return nil, err
	}

	return identity, nil
}

// SessionFromToken validates a raw token and projects its claims into a Session
func (s Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed: %s", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken claims mapping failed: %s", err)
		return nil, err
	}

	return session, nil
}

var _ Authenticator = (*Auther)(nil)

// credentialError collapses lookup and verification failures into the single
// invalid-credentials error. Infrastructure faults keep their own category so
// operators can tell an outage apart from a bad password.
func credentialError(err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category == errors.CategoryInternal {
		return richErr
	}
	return ErrMismatchedHashAndPassword
}

// audienceStrings converts jwt.ClaimStrings into a plain slice
func audienceStrings(aud jwt.ClaimStrings) []string {
	if len(aud) == 0 {
		return nil
	}
	out := make([]string, len(aud))
	copy(out, aud)
	return out
}
