package ports

import (
	"context"
	"time"
)

// OTPStore keeps short-lived login verification codes.
type OTPStore interface {
	// Issue stores the code for the given email, replacing any previous one.
	Issue(ctx context.Context, email, code string, ttl time.Duration) error
	// Verify reports whether code matches the stored value. A match consumes
	// the code. A mismatch and a missing or expired code are indistinguishable,
	// both report false.
	Verify(ctx context.Context, email, code string) (bool, error)
}
