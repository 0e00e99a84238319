// Package auth guards the admin surfaces with a single static token. The raw
// token is accepted directly, and short-lived session JWTs signed with it are
// accepted as a bearer alternative so clients do not have to keep the token
// around.
package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/abdusco/shortr/internal"
)

type Authenticator struct {
	adminToken string
}

// NewAuthenticator builds an authenticator around the configured admin token.
// An empty token means admin surfaces are permanently forbidden.
func NewAuthenticator(adminToken string) *Authenticator {
	return &Authenticator{adminToken: adminToken}
}

// Verify checks a caller-supplied credential. It fails with
// internal.ErrAdminNotConfigured when no token is configured at all, and
// internal.ErrUnauthorized on absence or mismatch.
func (a *Authenticator) Verify(credential string) error {
	if a.adminToken == "" {
		return internal.ErrAdminNotConfigured
	}
	if credential == "" {
		return internal.ErrUnauthorized
	}
	if credential == a.adminToken {
		return nil
	}
	if _, err := a.checkJWT(credential); err == nil {
		return nil
	}
	return internal.ErrUnauthorized
}

// CredentialFromRequest reads the credential from the x-admin-token header or
// from the Authorization header's parameter part.
func CredentialFromRequest(c echo.Context) string {
	if token := c.Request().Header.Get("x-admin-token"); token != "" {
		return token
	}

	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	if _, token, found := strings.Cut(authz, " "); found {
		return strings.TrimSpace(token)
	}
	return ""
}
