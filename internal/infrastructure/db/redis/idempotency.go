package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

const (
	idempotencyTTL = time.Hour
	claimTTL       = time.Minute
	pendingMarker  = "pending"
)

// IdempotencyStore remembers issuance results per user and Idempotency-Key.
// Key format: idem:<user_id>:<key>. While an issuance runs the key holds
// pendingMarker; afterwards it holds the JSON result.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Claim takes the key with SETNX. A losing caller reads whatever the winner
// left behind.
func (s *IdempotencyStore) Claim(ctx context.Context, userID, key string) (*ports.QRIssuanceResult, bool, error) {
	k := s.key(userID, key)
	for attempt := 0; attempt < 2; attempt++ {
		won, err := s.client.SetNX(ctx, k, pendingMarker, claimTTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("idempotency claim: %w", err)
		}
		if won {
			return nil, true, nil
		}

		raw, err := s.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			// released or expired between SETNX and GET
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("idempotency read: %w", err)
		}
		if string(raw) == pendingMarker {
			return nil, false, domain.ErrRequestInProgress
		}

		var result ports.QRIssuanceResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, false, fmt.Errorf("idempotency decode: %w", err)
		}
		return &result, false, nil
	}
	return nil, false, domain.ErrRequestInProgress
}

// Save overwrites the claim with the result (expires after idempotencyTTL).
func (s *IdempotencyStore) Save(ctx context.Context, userID, key string, result *ports.QRIssuanceResult) error {
	return setJSON(ctx, s.client, s.key(userID, key), result, idempotencyTTL)
}

// Release deletes the claim so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, userID, key string) error {
	if err := s.client.Del(ctx, s.key(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(userID, key string) string {
	return fmt.Sprintf("idem:%s:%s", userID, key)
}
