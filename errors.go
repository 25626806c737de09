package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced alongside error messages. Clients can branch on these
// without parsing human-readable strings.
const (
	TextCodeInvalidCreds       = "INVALID_CREDENTIALS"
	TextCodeUserExists         = "USER_ALREADY_EXISTS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeSessionNotFound    = "SESSION_NOT_FOUND"
	TextCodeSessionDecodeError = "SESSION_DECODE_ERROR"
	TextCodeClaimsMappingError = "CLAIMS_MAPPING_ERROR"
	TextCodeDataParseError     = "DATA_PARSE_ERROR"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeInvalidConfig      = "INVALID_AUTH_CONFIG"
	TextCodeNotAuthenticated   = "NOT_AUTHENTICATED"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is the single credential failure: the caller
// cannot tell an unknown identifier apart from a wrong password.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrUserAlreadyExists signals a duplicate registration. The message stays
// field-agnostic so callers cannot probe which identifier collided.
var ErrUserAlreadyExists = errors.New("user already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeConflict)

// ErrTokenExpired is returned when an otherwise valid token is past its expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers forged, truncated, or otherwise undecodable tokens
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthenticated is the single response body for any token failure on a
// protected route. Expired and forged tokens are told apart in logs only,
// never in what the caller sees.
var ErrNotAuthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession is the error when our request carries no token
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from the request
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithTextCode(TextCodeClaimsMappingError).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty plaintext passwords before hashing
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// NewConfigurationError reports invalid startup configuration. These are
// process-level faults: they are raised once during construction and must
// never surface on a per-request path.
func NewConfigurationError(msg string) *errors.Error {
	return errors.New(msg, errors.CategoryInternal).
		WithTextCode(TextCodeInvalidConfig).
		WithCode(errors.CodeInternal)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
