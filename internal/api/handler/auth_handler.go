package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

// AuthHandler exposes agent login and the two-step admin login.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login for agent users.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.authService.AgentLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}

// AdminLogin handles POST /auth/admin/login, step one of the admin login.
// On success a one-time code is emailed; no token is issued yet.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.AdminLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// VerifyAdminLogin handles POST /auth/admin/verify, step two of the admin
// login. Consumes the emailed code and returns the admin-scoped token.
func (h *AuthHandler) VerifyAdminLogin(c echo.Context) error {
	var req verifyLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := h.authService.VerifyAdminLogin(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, session)
}
