package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerificationStore keeps email verification tokens in Redis.
// Key format: verify:<token> -> user id
type VerificationStore struct {
	client *redis.Client
}

// NewVerificationStore creates a VerificationStore wrapping the given Redis client.
func NewVerificationStore(client *redis.Client) *VerificationStore {
	return &VerificationStore{client: client}
}

// Save stores token for userID; it expires after ttl.
func (s *VerificationStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("save verification token: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes token. Unknown tokens yield "".
func (s *VerificationStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("consume verification token: %w", err)
	}
	return userID, nil
}

func (s *VerificationStore) key(token string) string {
	return "verify:" + token
}
