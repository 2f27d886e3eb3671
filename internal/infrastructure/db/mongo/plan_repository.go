package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/qrforge/qr-service/internal/core/domain"
)

const collectionPlans = "plans"

// PlanRepository keeps the catalog keyed by tier.
type PlanRepository struct {
	store *DocumentStore
}

func NewPlanRepository(store *DocumentStore) *PlanRepository {
	return &PlanRepository{store: store}
}

type planDoc struct {
	Tier         string   `bson:"_id"`
	Price        float64  `bson:"price"`
	QRCodesLimit int      `bson:"qr_codes_limit"`
	Features     []string `bson:"features"`
	Rank         int      `bson:"rank"`
}

func (r *PlanRepository) List(ctx context.Context) ([]domain.Plan, error) {
	var docs []planDoc
	if err := r.store.Find(ctx, collectionPlans, bson.M{}, bson.D{{Key: "rank", Value: 1}}, &docs); err != nil {
		return nil, err
	}

	plans := make([]domain.Plan, 0, len(docs))
	for _, d := range docs {
		plans = append(plans, domain.Plan{
			Tier:         d.Tier,
			Price:        d.Price,
			QRCodesLimit: d.QRCodesLimit,
			Features:     d.Features,
			Rank:         d.Rank,
		})
	}
	return plans, nil
}

// Upsert replaces each plan by tier. Concurrent seeders write identical
// documents.
func (r *PlanRepository) Upsert(ctx context.Context, plans []domain.Plan) error {
	for _, p := range plans {
		doc := planDoc{
			Tier:         p.Tier,
			Price:        p.Price,
			QRCodesLimit: p.QRCodesLimit,
			Features:     p.Features,
			Rank:         p.Rank,
		}
		if err := r.store.Set(ctx, collectionPlans, p.Tier, doc); err != nil {
			return err
		}
	}
	return nil
}
