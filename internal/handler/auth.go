package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abdusco/shortr/internal/auth"
)

type AuthHandler struct {
	auther *auth.Authenticator
}

func NewAuthHandler(auther *auth.Authenticator) *AuthHandler {
	return &AuthHandler{auther: auther}
}

type SessionResponse struct {
	Token string `json:"token"`
}

// CreateSession exchanges a valid admin credential for a short-lived session
// token. The route sits behind the auth middleware, so the credential is
// already verified by the time this runs.
func (h *AuthHandler) CreateSession(c echo.Context) error {
	token, err := h.auther.MintSession()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session token")
	}
	return c.JSON(http.StatusOK, SessionResponse{Token: token})
}
