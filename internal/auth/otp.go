package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursekit/coursekit-server/internal/apperr"
)

// OTPStore keeps one-time codes in Redis with an explicit TTL, keyed by
// email. Codes are single-use: a successful verify deletes the key.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPStore{client: client, ttl: ttl}
}

func otpKey(purpose, email string) string { return "otp:" + purpose + ":" + email }

// Issue generates a 6-digit code and stores it under the purpose+email key,
// replacing any previous code.
func (s *OTPStore) Issue(ctx context.Context, purpose, email string) (string, error) {
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, otpKey(purpose, email), code, s.ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the code and consumes it on success.
func (s *OTPStore) Verify(ctx context.Context, purpose, email, code string) error {
	key := otpKey(purpose, email)
	stored, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return apperr.BadRequest("code expired or never issued")
	}
	if err != nil {
		return err
	}
	if stored != code {
		return apperr.BadRequest("incorrect code")
	}
	return s.client.Del(ctx, key).Err()
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
