package notification

import (
	"context"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

// Nop discards every notification. Used when SMTP is not configured and in
// tests.
type Nop struct{}

func NewNop() Nop { return Nop{} }

func (Nop) SendKycUploadedNotification(context.Context, *domain.User, *domain.Agent) error {
	return nil
}

func (Nop) SendAgentRegistrationSubmittedNotification(context.Context, *domain.User, *domain.Agent) error {
	return nil
}

func (Nop) SendAgentApprovalNotification(context.Context, *domain.User, *domain.Agent, bool) error {
	return nil
}

func (Nop) SendAgentRejectionNotification(context.Context, *domain.User, *domain.Agent, string) error {
	return nil
}

func (Nop) SendLoginVerificationEmail(context.Context, string, string, string) error {
	return nil
}
