package main

import (
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	auth "github.com/navarrio/authkit"
)

// AppConfig carries every runtime knob the server needs. Values come from
// the environment; validation runs once at startup and a bad value stops
// the process before it can accept traffic.
type AppConfig struct {
	ServerAddr        string
	DSN               string
	SigningKey        string
	SigningMethod     string
	ContextKey        string
	TokenLookup       string
	AuthScheme        string
	Issuer            string
	Audience          []string
	TokenTTLHours     int
	PasswordMinLength int
	CORSOrigins       string
	AdminEmail        string
	AdminPassword     string
	Debug             bool
}

func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		ServerAddr:        envOr("SERVER_ADDR", ":8080"),
		DSN:               envOr("DB_DSN", "file::memory:?cache=shared"),
		SigningKey:        os.Getenv("JWT_SIGNING_KEY"),
		SigningMethod:     envOr("JWT_SIGNING_METHOD", "HS256"),
		ContextKey:        envOr("AUTH_CONTEXT_KEY", "user"),
		TokenLookup:       envOr("AUTH_TOKEN_LOOKUP", "header:Authorization"),
		AuthScheme:        envOr("AUTH_SCHEME", "Bearer"),
		Issuer:            os.Getenv("JWT_ISSUER"),
		Audience:          splitCSV(os.Getenv("JWT_AUDIENCE")),
		TokenTTLHours:     envIntOr("JWT_TTL_HOURS", 24),
		PasswordMinLength: envIntOr("PASSWORD_MIN_LENGTH", auth.DefaultPasswordMinLength),
		CORSOrigins:       envOr("CORS_ORIGINS", "*"),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		Debug:             os.Getenv("DEBUG") == "true",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces startup invariants. The signing key check mirrors the
// token service requirement so misconfiguration fails here with a clear
// message instead of during construction.
func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServerAddr, validation.Required),
		validation.Field(&c.DSN, validation.Required),
		validation.Field(&c.SigningKey, validation.Required, validation.Length(auth.MinSigningKeyLength, 0)),
		validation.Field(&c.SigningMethod, validation.Required, validation.In("HS256")),
		validation.Field(&c.Issuer, validation.Required),
		validation.Field(&c.Audience, validation.Required),
		validation.Field(&c.TokenTTLHours, validation.Required, validation.Min(1)),
		validation.Field(&c.PasswordMinLength, validation.Min(1)),
	)
}

func (c *AppConfig) GetSigningKey() string     { return c.SigningKey }
func (c *AppConfig) GetSigningMethod() string  { return c.SigningMethod }
func (c *AppConfig) GetContextKey() string     { return c.ContextKey }
func (c *AppConfig) GetTokenExpiration() int   { return c.TokenTTLHours }
func (c *AppConfig) GetTokenLookup() string    { return c.TokenLookup }
func (c *AppConfig) GetAuthScheme() string     { return c.AuthScheme }
func (c *AppConfig) GetIssuer() string         { return c.Issuer }
func (c *AppConfig) GetAudience() []string     { return c.Audience }
func (c *AppConfig) GetPasswordMinLength() int { return c.PasswordMinLength }

var _ auth.Config = (*AppConfig)(nil)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
