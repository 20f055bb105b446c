package ports

import (
	"context"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

// AdminLoginResult reports that an OTP was issued for the given email.
type AdminLoginResult struct {
	Email     string `json:"email"`
	ExpiresIn string `json:"expires_in"`
}

// AdminSession is the outcome of a verified admin login.
type AdminSession struct {
	Token   string        `json:"admin_token"`
	User    *domain.User  `json:"user"`
	AdminID string        `json:"admin_id"`
	Admin   *domain.Admin `json:"admin,omitempty"`
}

// AgentSession is the outcome of an agent login.
type AgentSession struct {
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
	AgentID string       `json:"agent_id"`
}

// AuthService issues credentials for the moderation gateway and agent routes.
type AuthService interface {
	// MakeAdmin promotes an existing user to administrator.
	MakeAdmin(ctx context.Context, userID, role string) (*domain.Admin, error)
	// AdminLogin validates credentials and sends a one-time code by email.
	AdminLogin(ctx context.Context, email, password string) (*AdminLoginResult, error)
	// VerifyAdminLogin consumes the one-time code and issues an admin JWT.
	VerifyAdminLogin(ctx context.Context, email, code string) (*AdminSession, error)
	// AgentLogin authenticates an agent's owning user and issues an agent JWT.
	AgentLogin(ctx context.Context, email, password string) (*AgentSession, error)
}
