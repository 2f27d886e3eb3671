package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qrforge/qr-service/internal/core/domain"
)

const collectionUsers = "users"

type UserRepository struct {
	store *DocumentStore
}

func NewUserRepository(store *DocumentStore) *UserRepository {
	return &UserRepository{store: store}
}

type userDoc struct {
	ID                 string     `bson:"_id"`
	Email              string     `bson:"email"`
	Name               string     `bson:"name"`
	PasswordHash       string     `bson:"password_hash"`
	Role               string     `bson:"role"`
	SubscriptionTier   string     `bson:"subscription_tier"`
	SubscriptionActive bool       `bson:"subscription_active"`
	SubscriptionSince  *time.Time `bson:"subscription_since,omitempty"`
	QRCodesGenerated   int        `bson:"qr_codes_generated"`
	UsagePeriod        string     `bson:"usage_period"`
	CreatedAt          time.Time  `bson:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at"`
}

func toUserDoc(u *domain.User) userDoc {
	return userDoc{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		PasswordHash:       u.PasswordHash,
		Role:               u.Role,
		SubscriptionTier:   u.SubscriptionTier,
		SubscriptionActive: u.SubscriptionActive,
		SubscriptionSince:  u.SubscriptionSince,
		QRCodesGenerated:   u.QRCodesGenerated,
		UsagePeriod:        u.UsagePeriod,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (d userDoc) toDomain() *domain.User {
	var since *time.Time
	if d.SubscriptionSince != nil {
		t := d.SubscriptionSince.UTC()
		since = &t
	}
	return &domain.User{
		ID:                 d.ID,
		Email:              d.Email,
		Name:               d.Name,
		PasswordHash:       d.PasswordHash,
		Role:               d.Role,
		SubscriptionTier:   d.SubscriptionTier,
		SubscriptionActive: d.SubscriptionActive,
		SubscriptionSince:  since,
		QRCodesGenerated:   d.QRCodesGenerated,
		UsagePeriod:        d.UsagePeriod,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
	}
}

// Create relies on the unique email index; the insert either creates the
// account or reports the duplicate.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.store.Insert(ctx, collectionUsers, toUserDoc(user))
	if errors.Is(err, ErrDuplicateDocument) {
		return domain.ErrDuplicateAccount
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var doc userDoc
	if err := r.store.Get(ctx, collectionUsers, id, &doc); err != nil {
		return nil, mapUserErr(err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	if err := r.store.FindOne(ctx, collectionUsers, bson.M{"email": email}, &doc); err != nil {
		return nil, mapUserErr(err)
	}
	return doc.toDomain(), nil
}

// ReserveQuota increments the counter in a single conditional update. The
// filter admits the write only while the stored counter is below limit or
// belongs to another period; the pipeline restarts a stale period at 1.
func (r *UserRepository) ReserveQuota(ctx context.Context, userID string, limit int, period string, now time.Time) (int, error) {
	filter := bson.M{"_id": userID}
	if limit != domain.Unlimited {
		if limit <= 0 {
			return 0, domain.ErrQuotaExhausted
		}
		filter["$or"] = bson.A{
			bson.M{"usage_period": bson.M{"$ne": period}},
			bson.M{"qr_codes_generated": bson.M{"$lt": limit}},
		}
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "qr_codes_generated", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$usage_period", bson.D{{Key: "$literal", Value: period}}}}},
				bson.D{{Key: "$add", Value: bson.A{"$qr_codes_generated", 1}}},
				1,
			}}}},
			{Key: "usage_period", Value: bson.D{{Key: "$literal", Value: period}}},
			{Key: "updated_at", Value: now},
		}}},
	}

	var doc userDoc
	err := r.store.UpdateOneWhere(ctx, collectionUsers, filter, update, &doc)
	if errors.Is(err, ErrDocumentNotFound) {
		n, cErr := r.store.Count(ctx, collectionUsers, bson.M{"_id": userID})
		if cErr != nil {
			return 0, cErr
		}
		if n == 0 {
			return 0, domain.ErrUserNotFound
		}
		return 0, domain.ErrQuotaExhausted
	}
	if err != nil {
		return 0, err
	}
	return doc.QRCodesGenerated, nil
}

func (r *UserRepository) ReleaseQuota(ctx context.Context, userID string, period string) error {
	filter := bson.M{
		"_id":                userID,
		"usage_period":       period,
		"qr_codes_generated": bson.M{"$gt": 0},
	}
	err := r.store.UpdateOneWhere(ctx, collectionUsers, filter, bson.M{"$inc": bson.M{"qr_codes_generated": -1}}, nil)
	if errors.Is(err, ErrDocumentNotFound) {
		return nil
	}
	return err
}

func (r *UserRepository) UpdateSubscription(ctx context.Context, userID, tier string, since time.Time) error {
	err := r.store.Update(ctx, collectionUsers, userID, bson.M{
		"subscription_tier":   tier,
		"subscription_active": true,
		"subscription_since":  since,
		"updated_at":          since,
	})
	return mapUserErr(err)
}

func (r *UserRepository) ResetUsage(ctx context.Context, userID, period string, now time.Time) error {
	err := r.store.Update(ctx, collectionUsers, userID, bson.M{
		"qr_codes_generated": 0,
		"usage_period":       period,
		"updated_at":         now,
	})
	return mapUserErr(err)
}

// EnsureIndexes creates the unique email index that backs signup.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.store.Collection(collectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}
	return nil
}

func mapUserErr(err error) error {
	if errors.Is(err, ErrDocumentNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}
