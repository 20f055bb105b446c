package ports

import (
	"context"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

// Notifier delivers email notifications. Every call is fire-and-forget from
// the engine's perspective: errors are logged by the caller, never propagated.
type Notifier interface {
	SendKycUploadedNotification(ctx context.Context, adminUser *domain.User, agent *domain.Agent) error
	SendAgentRegistrationSubmittedNotification(ctx context.Context, agentUser *domain.User, agent *domain.Agent) error
	SendAgentApprovalNotification(ctx context.Context, agentUser *domain.User, agent *domain.Agent, approved bool) error
	SendAgentRejectionNotification(ctx context.Context, agentUser *domain.User, agent *domain.Agent, reason string) error
	SendLoginVerificationEmail(ctx context.Context, email, firstName, code string) error
}
