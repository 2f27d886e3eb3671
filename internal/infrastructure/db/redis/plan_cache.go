package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qrforge/qr-service/internal/core/domain"
)

const (
	planCacheKey = "plans:catalog"
	planCacheTTL = 5 * time.Minute
)

// PlanCache holds the serialized catalog under a single key.
type PlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPlanCache(client *redis.Client) *PlanCache {
	return &PlanCache{client: client, ttl: planCacheTTL}
}

// cachedPlan keeps the rank, which the public JSON form of a plan omits.
type cachedPlan struct {
	Tier         string   `json:"tier"`
	Price        float64  `json:"price"`
	QRCodesLimit int      `json:"qrCodesLimit"`
	Features     []string `json:"features"`
	Rank         int      `json:"rank"`
}

func (c *PlanCache) Get(ctx context.Context) ([]domain.Plan, bool, error) {
	var cached []cachedPlan
	ok, err := getJSON(ctx, c.client, planCacheKey, &cached)
	if err != nil || !ok {
		return nil, false, err
	}

	plans := make([]domain.Plan, 0, len(cached))
	for _, p := range cached {
		plans = append(plans, domain.Plan(p))
	}
	return plans, true, nil
}

func (c *PlanCache) Set(ctx context.Context, plans []domain.Plan) error {
	cached := make([]cachedPlan, 0, len(plans))
	for _, p := range plans {
		cached = append(cached, cachedPlan(p))
	}
	return setJSON(ctx, c.client, planCacheKey, cached, c.ttl)
}

func (c *PlanCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, planCacheKey).Err(); err != nil {
		return fmt.Errorf("invalidate plan cache: %w", err)
	}
	return nil
}
