package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxUserID extracts the user identity injected by the Auth middleware and
// fast-fails before any service call: a missing userId means the middleware
// did not run or the token was issued without an identity.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get("userId").(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

// ctxAgentID returns the agent identity from the token, which is empty until
// the user has initialized a registration.
func ctxAgentID(c echo.Context) string {
	agentID, _ := c.Get("agentId").(string)
	return agentID
}

// ctxAdminID extracts the admin identity. Admin-scoped tokens always carry
// one; its absence means an agent token reached an admin route past RBAC.
func ctxAdminID(c echo.Context) (string, error) {
	adminID, _ := c.Get("adminId").(string)
	if adminID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token missing admin identity")
	}
	return adminID, nil
}
