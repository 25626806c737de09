// Package auth implements a credential-based authentication backend:
// user registration, password verification, JWT issuance and validation,
// and the HTTP surface a single-page client talks to.
//
// The package is organized around a small set of contracts (Identity,
// IdentityProvider, TokenService, Authenticator) so the persistence layer
// and the token layer can be swapped independently. The default wiring
// lives in cmd/server.
package auth
