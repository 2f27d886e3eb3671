package ports

import (
	"context"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// SubscriptionHistoryRepository is the append-only log of plan changes.
type SubscriptionHistoryRepository interface {
	Append(ctx context.Context, entry *domain.SubscriptionHistoryEntry) error
	// ListByUser returns entries newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.SubscriptionHistoryEntry, error)
}
