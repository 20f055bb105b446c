package ports

import (
	"context"
	"time"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

// ProfileInput carries the step-1 profile submission.
type ProfileInput struct {
	YearsOfExperience int
	PreferredTitle    string
	LicenseNumber     string
	Specialization    []string
	PortfolioLink     string
	// ProfilePicture is a caller-supplied URL used when no file is uploaded.
	ProfilePicture string
	PhoneNumber    string
}

// KycInput carries the step-3 identity and banking submission.
type KycInput struct {
	IDType            string
	IDNumber          string
	BankName          string
	AccountNumber     string
	AccountHolderName string
	// Fallback URLs used when the corresponding file is not uploaded.
	IDDocumentURL       string
	ProfessionalCertURL string
}

// KycFiles holds the optional uploads accompanying a KYC submission.
type KycFiles struct {
	IDDocument       *FileUpload
	ProfessionalCert *FileUpload
}

// AgentStatusResult is the compact status view of a registration.
type AgentStatusResult struct {
	ID                 string                    `json:"id"`
	RegistrationStatus domain.RegistrationStatus `json:"registration_status"`
	KycStatus          domain.KycStatus          `json:"kyc_status"`
	IsApproved         bool                      `json:"is_approved"`
	ApprovedAt         *time.Time                `json:"approved_at,omitempty"`
	RejectionReason    string                    `json:"rejection_reason,omitempty"`
}

// AgentDetail is the full aggregate view for admin and owner detail screens.
// KYC history is ordered most-recent-first.
type AgentDetail struct {
	Agent      *domain.Agent      `json:"agent"`
	User       *domain.User       `json:"user,omitempty"`
	Bio        string             `json:"bio,omitempty"`
	KycHistory []domain.KycRecord `json:"kyc_history"`
}

// ListAgentsInput carries the admin listing parameters.
type ListAgentsInput struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// ListAgentsResult is a page of agent summaries.
type ListAgentsResult struct {
	Items      []*domain.Agent `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// RegistrationService owns the agent registration state machine and its KYC
// verification pipeline.
type RegistrationService interface {
	Initialize(ctx context.Context, userID string) (*domain.Agent, error)
	SubmitProfile(ctx context.Context, userID string, in ProfileInput, picture *FileUpload) (*domain.Agent, error)
	SubmitBio(ctx context.Context, agentID, bio string) (*domain.Agent, error)
	SubmitKyc(ctx context.Context, agentID string, in KycInput, files KycFiles) (*domain.Agent, error)
	ApproveAgent(ctx context.Context, agentID, adminID string) (*domain.Agent, error)
	RejectAgent(ctx context.Context, agentID, adminID, reason string) (*domain.Agent, error)
	AddKycDocument(ctx context.Context, agentID string, doc domain.DocumentRef) (*domain.Agent, error)
	SetKycStatus(ctx context.Context, agentID string, status domain.KycStatus) (*domain.Agent, error)
	GetAgentByUserID(ctx context.Context, userID string) (*AgentDetail, error)
	GetAgentStatus(ctx context.Context, agentID string) (*AgentStatusResult, error)
	GetAgentDetail(ctx context.Context, agentID string) (*AgentDetail, error)
	ListAgents(ctx context.Context, in ListAgentsInput) (*ListAgentsResult, error)
	RemoveAgent(ctx context.Context, agentID string) error
}
