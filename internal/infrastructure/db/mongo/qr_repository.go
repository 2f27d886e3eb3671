package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/qrforge/qr-service/internal/core/domain"
)

const collectionQRCodes = "qr_codes"

type QRCodeRepository struct {
	store *DocumentStore
}

func NewQRCodeRepository(store *DocumentStore) *QRCodeRepository {
	return &QRCodeRepository{store: store}
}

type qrDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Text        string    `bson:"text"`
	Color       string    `bson:"color"`
	GeneratedAt time.Time `bson:"generated_at"`
	EmailSent   bool      `bson:"email_sent"`
	EmailStatus string    `bson:"email_status,omitempty"`
	Downloads   int       `bson:"downloads"`
}

func (d qrDoc) toDomain() domain.QRRecord {
	return domain.QRRecord{
		ID:          d.ID,
		UserID:      d.UserID,
		Text:        d.Text,
		Color:       d.Color,
		GeneratedAt: d.GeneratedAt.UTC(),
		EmailSent:   d.EmailSent,
		EmailStatus: domain.EmailStatus(d.EmailStatus),
		Downloads:   d.Downloads,
	}
}

func (r *QRCodeRepository) Create(ctx context.Context, rec *domain.QRRecord) error {
	return r.store.Insert(ctx, collectionQRCodes, qrDoc{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Text:        rec.Text,
		Color:       rec.Color,
		GeneratedAt: rec.GeneratedAt,
		EmailSent:   rec.EmailSent,
		EmailStatus: string(rec.EmailStatus),
		Downloads:   rec.Downloads,
	})
}

func (r *QRCodeRepository) FindByID(ctx context.Context, id string) (*domain.QRRecord, error) {
	var doc qrDoc
	if err := r.store.Get(ctx, collectionQRCodes, id, &doc); err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, domain.ErrQRCodeNotFound
		}
		return nil, err
	}
	rec := doc.toDomain()
	return &rec, nil
}

// ListByUser returns the user's records, newest first.
func (r *QRCodeRepository) ListByUser(ctx context.Context, userID string) ([]domain.QRRecord, error) {
	var docs []qrDoc
	sort := bson.D{{Key: "generated_at", Value: -1}, {Key: "_id", Value: -1}}
	if err := r.store.QueryByField(ctx, collectionQRCodes, "user_id", userID, sort, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.QRRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *QRCodeRepository) IncrementDownloads(ctx context.Context, id string) error {
	err := r.store.UpdateOneWhere(ctx, collectionQRCodes, bson.M{"_id": id}, bson.M{"$inc": bson.M{"downloads": 1}}, nil)
	if errors.Is(err, ErrDocumentNotFound) {
		return domain.ErrQRCodeNotFound
	}
	return err
}

// EnsureIndexes creates the index serving history queries.
func (r *QRCodeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.store.Collection(collectionQRCodes).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "generated_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("qr_codes indexes: %w", err)
	}
	return nil
}
