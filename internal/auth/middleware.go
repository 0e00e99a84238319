package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abdusco/shortr/internal"
)

// NewAuthMiddleware rejects requests whose credential does not verify:
// 403 when no admin token is configured, 401 otherwise.
func NewAuthMiddleware(auther *Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := auther.Verify(CredentialFromRequest(c))
			if err == nil {
				return next(c)
			}
			if errors.Is(err, internal.ErrAdminNotConfigured) {
				return echo.NewHTTPError(http.StatusForbidden, internal.ErrAdminNotConfigured.Error())
			}
			return echo.NewHTTPError(http.StatusUnauthorized, internal.ErrUnauthorized.Error())
		}
	}
}
