package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

// AdminHandler exposes the moderation surface. All routes run behind
// Auth+RBAC(admin).
type AdminHandler struct {
	registration ports.RegistrationService
	auth         ports.AuthService
}

func NewAdminHandler(registration ports.RegistrationService, auth ports.AuthService) *AdminHandler {
	return &AdminHandler{registration: registration, auth: auth}
}

// ListAgents handles GET /v1/admin/agents with optional status, search and
// pagination query parameters.
func (h *AdminHandler) ListAgents(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	result, err := h.registration.ListAgents(c.Request().Context(), ports.ListAgentsInput{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// GetAgent handles GET /v1/admin/agents/:id, the full aggregate with user
// details and KYC history.
func (h *AdminHandler) GetAgent(c echo.Context) error {
	detail, err := h.registration.GetAgentDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// GetAgentStatus handles GET /v1/admin/agents/:id/status.
func (h *AdminHandler) GetAgentStatus(c echo.Context) error {
	status, err := h.registration.GetAgentStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// Approve handles PATCH /v1/admin/agents/:id/approve.
func (h *AdminHandler) Approve(c echo.Context) error {
	adminID, err := ctxAdminID(c)
	if err != nil {
		return err
	}

	agent, err := h.registration.ApproveAgent(c.Request().Context(), c.Param("id"), adminID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// Reject handles PATCH /v1/admin/agents/:id/reject with a mandatory reason.
func (h *AdminHandler) Reject(c echo.Context) error {
	adminID, err := ctxAdminID(c)
	if err != nil {
		return err
	}

	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	agent, err := h.registration.RejectAgent(c.Request().Context(), c.Param("id"), adminID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// SetKycStatus handles PATCH /v1/admin/agents/:id/kyc/status, a manual
// override of the latest KYC record's status.
func (h *AdminHandler) SetKycStatus(c echo.Context) error {
	var req kycStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	agent, err := h.registration.SetKycStatus(c.Request().Context(), c.Param("id"), domain.KycStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// AddKycDocument handles POST /v1/admin/agents/:id/kyc/documents, attaching
// an already-hosted document by reference on behalf of an agent.
func (h *AdminHandler) AddKycDocument(c echo.Context) error {
	var req addKycDocumentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	agent, err := h.registration.AddKycDocument(c.Request().Context(), c.Param("id"), domain.DocumentRef{
		Key:  req.Key,
		URL:  req.URL,
		Name: req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// RemoveAgent handles DELETE /v1/admin/agents/:id, a soft delete.
func (h *AdminHandler) RemoveAgent(c echo.Context) error {
	if err := h.registration.RemoveAgent(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "agent removed"})
}

// MakeAdmin handles POST /v1/admin/users/:userId/make-admin.
func (h *AdminHandler) MakeAdmin(c echo.Context) error {
	var req makeAdminRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	admin, err := h.auth.MakeAdmin(c.Request().Context(), c.Param("userId"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, admin)
}
