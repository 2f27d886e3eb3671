package ports

import (
	"context"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// QRCodeRepository persists QR record metadata.
type QRCodeRepository interface {
	Create(ctx context.Context, record *domain.QRRecord) error
	FindByID(ctx context.Context, id string) (*domain.QRRecord, error)
	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.QRRecord, error)
	IncrementDownloads(ctx context.Context, id string) error
}
