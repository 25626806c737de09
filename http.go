package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/navarrio/authkit/middleware/jwtware"
)

// Middleware guards routes behind a verified bearer token
type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// HTTPAuthenticator bridges the transport layer and the Authenticator
type HTTPAuthenticator interface {
	Middleware
	Login(ctx router.Context, payload LoginPayload) (string, error)
	Logout(ctx router.Context)
	MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error
}

// RouteAuthenticator wires the Authenticator into router middleware and
// cookie handling. Tokens travel in the Authorization header for API
// clients; the cookie is set as well so browser clients work unchanged.
type RouteAuthenticator struct {
	auth             Authenticator
	validator        TokenValidator
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 24 * time.Hour
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Hour
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	if provider, ok := auther.(interface{ TokenService() TokenService }); ok {
		a.validator = provider.TokenService()
	}

	if a.validator == nil {
		return nil, NewConfigurationError("authenticator does not expose a token validator")
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.MakeClientRouteAuthErrorHandler(false)

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// WithLogger replaces the default stdout logger
func (a *RouteAuthenticator) WithLogger(l Logger) *RouteAuthenticator {
	if l != nil {
		a.Logger = l
	}
	return a
}

// ProtectedRoute returns middleware that rejects requests lacking a valid token
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler: errorHandler,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:     cfg.GetAuthScheme(),
		ContextKey:     cfg.GetContextKey(),
		TokenLookup:    cfg.GetTokenLookup(),
		TokenValidator: validatorAdapter{a.validator},
		ContextEnricher: func(c context.Context, claims jwtware.AuthClaims) context.Context {
			if authClaims, ok := claims.(AuthClaims); ok {
				return WithClaimsContext(c, authClaims)
			}
			return c
		},
	})
}

// Login verifies the payload credentials and returns the signed token. The
// token is also set as an HTTP only cookie under the configured context key.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return token, nil
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

// MakeClientRouteAuthErrorHandler normalizes middleware failures into one
// uniform unauthorized response. The reason a token was rejected is logged,
// the body never carries it. With optional set, failures let the request
// proceed unauthenticated.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		switch {
		case IsTokenExpiredError(err):
			a.Logger.Info("Auth token expired: %s", err)
		case IsMalformedError(err):
			a.Logger.Info("Auth token rejected: %s", err)
		default:
			a.Logger.Info("Auth failed: %s", err)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding")
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, ErrNotAuthenticated)
	}
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler: %s category=%s",
		richErr.Message,
		richErr.Category,
	)

	return WriteError(c, richErr)
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

// validatorAdapter exposes the auth TokenValidator through the jwtware
// interface mirror
type validatorAdapter struct {
	validator TokenValidator
}

func (v validatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.validator.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
