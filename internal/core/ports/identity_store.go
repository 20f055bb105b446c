package ports

import (
	"context"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

// IdentityStore is the narrow contract over the user-account system. The
// engine consumes it for identity lookup and for mirroring a submitted phone
// number; it never owns the records.
type IdentityStore interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error
}

// AdminDirectory resolves administrator accounts, used to fan out "new KYC
// submitted" notifications and to authorise moderation.
type AdminDirectory interface {
	// ListAdmins returns every admin with its User populated.
	ListAdmins(ctx context.Context) ([]*domain.Admin, error)
	FindAdminByUserID(ctx context.Context, userID string) (*domain.Admin, error)
	CreateAdmin(ctx context.Context, admin *domain.Admin) error
}
