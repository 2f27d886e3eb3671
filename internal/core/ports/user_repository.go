package ports

import (
	"context"
	"time"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// Create inserts the user only if no account holds the same email.
	// Returns domain.ErrDuplicateAccount otherwise.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// ReserveQuota atomically increments the usage counter for period and
	// returns the new value. The increment is admitted only when the result
	// stays within limit (domain.Unlimited disables the bound). A counter
	// stored under a different period restarts at 1. Returns
	// domain.ErrQuotaExhausted when refused.
	ReserveQuota(ctx context.Context, userID string, limit int, period string, now time.Time) (int, error)
	// ReleaseQuota undoes one reservation made for period.
	ReleaseQuota(ctx context.Context, userID string, period string) error

	UpdateSubscription(ctx context.Context, userID, tier string, since time.Time) error
	ResetUsage(ctx context.Context, userID, period string, now time.Time) error
}
