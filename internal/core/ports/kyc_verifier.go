package ports

import (
	"context"

	"github.com/mejarc/agent-onboarding/internal/core/domain"
)

// VerificationResult is the provider's verdict on a document set.
type VerificationResult struct {
	Success    bool
	ProviderID string
	Notes      string
}

// KycVerifier judges whether submitted documents are valid. Implementations
// must bound every external call with a timeout and report transport failures
// as a non-success result or an error rather than blocking the registration
// path.
type KycVerifier interface {
	VerifyDocuments(ctx context.Context, documents []domain.DocumentRef) (VerificationResult, error)
}
