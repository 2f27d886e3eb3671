package ports

import (
	"context"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// PlanRepository stores the subscription catalog.
type PlanRepository interface {
	// List returns all plans ordered by rank. An empty slice means the
	// catalog has never been seeded.
	List(ctx context.Context) ([]domain.Plan, error)
	// Upsert writes plans keyed by tier. Writing identical content twice is
	// harmless.
	Upsert(ctx context.Context, plans []domain.Plan) error
}

// PlanCache is a read-through cache in front of the catalog.
type PlanCache interface {
	Get(ctx context.Context) ([]domain.Plan, bool, error)
	Set(ctx context.Context, plans []domain.Plan) error
	Invalidate(ctx context.Context) error
}
