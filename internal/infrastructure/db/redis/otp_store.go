package redis

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore keeps login verification codes in Redis with a TTL, so expiry needs
// no sweeper. Key format: login_otp:<email>
type OTPStore struct {
	client *redis.Client
}

func NewOTPStore(client *redis.Client) *OTPStore {
	return &OTPStore{client: client}
}

// Issue stores the code for the given email, replacing any previous one.
func (s *OTPStore) Issue(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}
	return nil
}

// Verify compares code against the stored value and consumes it on a match.
// A missing, expired, or mismatched code reports false without error.
func (s *OTPStore) Verify(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.client.Get(ctx, s.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("verify otp: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return false, nil
	}

	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return true, nil
}

func (s *OTPStore) key(email string) string {
	return "login_otp:" + email
}
