package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
	"github.com/mejarc/agent-onboarding/internal/core/ports"
)

// AgentHandler exposes the self-service registration steps. All routes run
// behind Auth+RBAC(agent); the acting user comes from the token claims.
type AgentHandler struct {
	service ports.RegistrationService
	docs    ports.DocumentStore
}

func NewAgentHandler(service ports.RegistrationService, docs ports.DocumentStore) *AgentHandler {
	return &AgentHandler{service: service, docs: docs}
}

// Register handles POST /v1/agents/register. Creates the empty registration
// shell for the authenticated user.
func (h *AgentHandler) Register(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	agent, err := h.service.Initialize(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, agent)
}

// SubmitProfile handles PUT /v1/agents/profile. Accepts either a JSON body or
// a multipart form with a "dto" JSON field plus an optional "profilePicture"
// file.
func (h *AgentHandler) SubmitProfile(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := bindJSONOrForm(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	picture, closePicture, err := formFile(c, "profilePicture")
	if err != nil {
		return err
	}
	defer closePicture()

	agent, err := h.service.SubmitProfile(c.Request().Context(), userID, ports.ProfileInput{
		YearsOfExperience: req.YearsOfExperience,
		PreferredTitle:    req.PreferredTitle,
		LicenseNumber:     req.LicenseNumber,
		Specialization:    req.Specialization,
		PortfolioLink:     req.PortfolioLink,
		ProfilePicture:    req.ProfilePicture,
		PhoneNumber:       req.PhoneNumber,
	}, picture)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// SubmitBio handles PUT /v1/agents/bio.
func (h *AgentHandler) SubmitBio(c echo.Context) error {
	agentID, err := h.resolveAgentID(c)
	if err != nil {
		return err
	}

	var req bioRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	agent, err := h.service.SubmitBio(c.Request().Context(), agentID, req.Bio)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// SubmitKyc handles POST /v1/agents/kyc. Accepts a multipart form with a
// "dto" JSON field plus optional "idDocument" and "professionalCert" files.
func (h *AgentHandler) SubmitKyc(c echo.Context) error {
	agentID, err := h.resolveAgentID(c)
	if err != nil {
		return err
	}

	var req kycRequest
	if err := bindJSONOrForm(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	idDoc, closeID, err := formFile(c, "idDocument")
	if err != nil {
		return err
	}
	defer closeID()

	cert, closeCert, err := formFile(c, "professionalCert")
	if err != nil {
		return err
	}
	defer closeCert()

	agent, err := h.service.SubmitKyc(c.Request().Context(), agentID, ports.KycInput{
		IDType:              req.IDType,
		IDNumber:            req.IDNumber,
		BankName:            req.BankName,
		AccountNumber:       req.AccountNumber,
		AccountHolderName:   req.AccountHolderName,
		IDDocumentURL:       req.IDDocumentURL,
		ProfessionalCertURL: req.ProfessionalCertURL,
	}, ports.KycFiles{IDDocument: idDoc, ProfessionalCert: cert})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// UploadKycDocument handles POST /v1/agents/kyc/documents. Stores one extra
// document and appends it to the latest KYC record, which re-triggers
// verification.
func (h *AgentHandler) UploadKycDocument(c echo.Context) error {
	agentID, err := h.resolveAgentID(c)
	if err != nil {
		return err
	}

	key := c.FormValue("key")
	if key == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key is required")
	}

	file, closeFile, err := formFile(c, "document")
	if err != nil {
		return err
	}
	defer closeFile()
	if file == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "document file is required")
	}

	url, err := h.docs.Upload(c.Request().Context(), "agent-kyc-documents", *file)
	if err != nil {
		return err
	}

	agent, err := h.service.AddKycDocument(c.Request().Context(), agentID, domain.DocumentRef{
		Key:  key,
		URL:  url,
		Name: c.FormValue("name"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agent)
}

// Me handles GET /v1/agents/me, the owner's full registration view.
func (h *AgentHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	detail, err := h.service.GetAgentByUserID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// Status handles GET /v1/agents/me/status, the compact state view.
func (h *AgentHandler) Status(c echo.Context) error {
	agentID, err := h.resolveAgentID(c)
	if err != nil {
		return err
	}

	status, err := h.service.GetAgentStatus(c.Request().Context(), agentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// resolveAgentID prefers the agentId token claim and falls back to a lookup by
// user, covering tokens issued before the registration was initialized.
func (h *AgentHandler) resolveAgentID(c echo.Context) (string, error) {
	if agentID := ctxAgentID(c); agentID != "" {
		return agentID, nil
	}

	userID, err := ctxUserID(c)
	if err != nil {
		return "", err
	}
	detail, err := h.service.GetAgentByUserID(c.Request().Context(), userID)
	if err != nil {
		return "", err
	}
	return detail.Agent.ID, nil
}

// bindJSONOrForm decodes the request either from a multipart "dto" field or
// from a plain JSON body.
func bindJSONOrForm(c echo.Context, dst any) error {
	if dto := c.FormValue("dto"); dto != "" {
		if err := json.Unmarshal([]byte(dto), dst); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid dto payload")
		}
		return nil
	}
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return nil
}

// formFile opens the named multipart file if present. The returned close func
// is always safe to defer; a missing file yields (nil, noop, nil).
func formFile(c echo.Context, name string) (*ports.FileUpload, func(), error) {
	noop := func() {}

	fh, err := c.FormFile(name)
	if err != nil {
		// Absent file or non-multipart request; both are fine.
		return nil, noop, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, echo.NewHTTPError(http.StatusBadRequest, "unreadable upload: "+name)
	}

	return &ports.FileUpload{
		Filename:    fh.Filename,
		ContentType: fileContentType(fh),
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func fileContentType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
