package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

// SubscriptionService changes plans and reports the caller's standing.
type SubscriptionService struct {
	accounts ports.AccountService
	catalog  ports.PlanCatalog
	history  ports.SubscriptionHistoryRepository
	policy   domain.ResetPolicy
	log      zerolog.Logger
	now      func() time.Time
}

func NewSubscriptionService(
	accounts ports.AccountService,
	catalog ports.PlanCatalog,
	history ports.SubscriptionHistoryRepository,
	policy domain.ResetPolicy,
	log zerolog.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		accounts: accounts,
		catalog:  catalog,
		history:  history,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

// Subscribe moves the user to planID. The usage counter is not reset.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, planID string) (*ports.SubscriptionResult, error) {
	plan, err := s.catalog.FindPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	entry, err := s.accounts.RecordSubscriptionChange(ctx, userID, plan)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return &ports.SubscriptionResult{
		Tier:         plan.Tier,
		Features:     plan.Features,
		SubscribedAt: entry.SubscribedAt,
	}, nil
}

// Current reports the user's effective plan and usage.
func (s *SubscriptionService) Current(ctx context.Context, userID string) (*ports.CurrentSubscription, error) {
	user, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("current subscription: %w", err)
	}

	lookup, err := s.catalog.GetPlan(ctx, user.SubscriptionTier)
	if err != nil {
		return nil, fmt.Errorf("current subscription: %w", err)
	}

	return &ports.CurrentSubscription{
		Plan:         lookup.Plan,
		CurrentUsage: s.policy.EffectiveUsage(user, s.now().UTC()),
		Fallback:     lookup.Fallback(),
	}, nil
}

func (s *SubscriptionService) History(ctx context.Context, userID string) ([]domain.SubscriptionHistoryEntry, error) {
	entries, err := s.history.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("subscription history: %w", err)
	}
	return entries, nil
}
