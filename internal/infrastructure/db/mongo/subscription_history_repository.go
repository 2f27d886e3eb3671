package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/qrforge/qr-service/internal/core/domain"
)

const collectionSubscriptionHistory = "subscription_history"

// SubscriptionHistoryRepository is append-only.
type SubscriptionHistoryRepository struct {
	store *DocumentStore
}

func NewSubscriptionHistoryRepository(store *DocumentStore) *SubscriptionHistoryRepository {
	return &SubscriptionHistoryRepository{store: store}
}

type subscriptionDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	PlanID       string    `bson:"plan_id"`
	PlanTier     string    `bson:"plan_tier"`
	Price        float64   `bson:"price"`
	SubscribedAt time.Time `bson:"subscribed_at"`
	Status       string    `bson:"status"`
}

func (r *SubscriptionHistoryRepository) Append(ctx context.Context, e *domain.SubscriptionHistoryEntry) error {
	return r.store.Insert(ctx, collectionSubscriptionHistory, subscriptionDoc{
		ID:           e.ID,
		UserID:       e.UserID,
		PlanID:       e.PlanID,
		PlanTier:     e.PlanTier,
		Price:        e.Price,
		SubscribedAt: e.SubscribedAt,
		Status:       e.Status,
	})
}

func (r *SubscriptionHistoryRepository) ListByUser(ctx context.Context, userID string) ([]domain.SubscriptionHistoryEntry, error) {
	var docs []subscriptionDoc
	sort := bson.D{{Key: "subscribed_at", Value: -1}, {Key: "_id", Value: -1}}
	if err := r.store.QueryByField(ctx, collectionSubscriptionHistory, "user_id", userID, sort, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.SubscriptionHistoryEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.SubscriptionHistoryEntry{
			ID:           d.ID,
			UserID:       d.UserID,
			PlanID:       d.PlanID,
			PlanTier:     d.PlanTier,
			Price:        d.Price,
			SubscribedAt: d.SubscribedAt.UTC(),
			Status:       d.Status,
		})
	}
	return out, nil
}

func (r *SubscriptionHistoryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.store.Collection(collectionSubscriptionHistory).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "subscribed_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("subscription_history indexes: %w", err)
	}
	return nil
}
