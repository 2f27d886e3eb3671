package ports

import (
	"context"
	"time"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// AuthResult is returned by registration and login.
type AuthResult struct {
	Token string
	User  *domain.User
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	VerifyToken(token string) (*domain.Claims, error)
}

// AuthService hashes credentials and issues tokens.
type AuthService interface {
	TokenVerifier
	Register(ctx context.Context, email, password, name string) (*AuthResult, error)
	Authenticate(ctx context.Context, email, password string) (*AuthResult, error)
}

// AccountService owns user records.
type AccountService interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	RecordSubscriptionChange(ctx context.Context, userID string, plan domain.Plan) (*domain.SubscriptionHistoryEntry, error)
	ResetUsage(ctx context.Context, userID string) (*domain.User, error)
}

// PlanCatalog resolves subscription plans.
type PlanCatalog interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	// GetPlan never fails for an unknown tier: it falls back to the free
	// plan and marks the lookup accordingly.
	GetPlan(ctx context.Context, tier string) (domain.PlanLookup, error)
	// FindPlan is the strict lookup; unknown tiers yield domain.ErrPlanNotFound.
	FindPlan(ctx context.Context, tier string) (domain.Plan, error)
}

// IssueQRInput carries a generation request from the transport layer.
type IssueQRInput struct {
	UserID         string
	Text           string
	Color          string
	EmailTarget    string
	IdempotencyKey string
}

// Usage is the counter state reported back to the caller.
type Usage struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
}

// QRIssuanceResult is the completed issuance.
type QRIssuanceResult struct {
	QRID        string             `json:"qrId"`
	Image       []byte             `json:"image"`
	Usage       Usage              `json:"usage"`
	Message     string             `json:"message"`
	Warning     string             `json:"warning,omitempty"`
	EmailStatus domain.EmailStatus `json:"emailStatus"`
	Tier        string             `json:"tier"`
	// Replayed is true when the result came from the idempotency store.
	Replayed bool `json:"-"`
}

// QRDownload is a stored image together with its record.
type QRDownload struct {
	Record domain.QRRecord
	Image  []byte
}

// QRService meters and issues QR codes.
type QRService interface {
	Issue(ctx context.Context, input IssueQRInput) (*QRIssuanceResult, error)
	History(ctx context.Context, userID string) ([]domain.QRRecord, error)
	Download(ctx context.Context, userID, qrID string) (*QRDownload, error)
}

// SubscriptionResult is returned after a successful plan change.
type SubscriptionResult struct {
	Tier         string
	Features     []string
	SubscribedAt time.Time
}

// CurrentSubscription is the caller's plan together with their usage.
type CurrentSubscription struct {
	Plan         domain.Plan
	CurrentUsage int
	// Fallback is set when the stored tier is unknown and free was applied.
	Fallback bool
}

// SubscriptionService changes and reports subscriptions.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID, planID string) (*SubscriptionResult, error)
	Current(ctx context.Context, userID string) (*CurrentSubscription, error)
	History(ctx context.Context, userID string) ([]domain.SubscriptionHistoryEntry, error)
}
