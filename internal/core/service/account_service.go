package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

// AccountService owns user records and their subscription history.
type AccountService struct {
	users   ports.UserRepository
	history ports.SubscriptionHistoryRepository
	policy  domain.ResetPolicy
	log     zerolog.Logger
	now     func() time.Time
}

func NewAccountService(
	users ports.UserRepository,
	history ports.SubscriptionHistoryRepository,
	policy domain.ResetPolicy,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:   users,
		history: history,
		policy:  policy,
		log:     log,
		now:     time.Now,
	}
}

// CreateUser stores a new account on the free tier with an empty counter.
// Uniqueness of the email is enforced by the repository insert.
func (s *AccountService) CreateUser(ctx context.Context, email, name, passwordHash string) (*domain.User, error) {
	now := s.now().UTC()
	user := &domain.User{
		ID:               newID("user_"),
		Email:            domain.NormalizeEmail(email),
		Name:             name,
		PasswordHash:     passwordHash,
		Role:             domain.RoleUser,
		SubscriptionTier: domain.TierFree,
		QRCodesGenerated: 0,
		UsagePeriod:      s.policy.Period(now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *AccountService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

// RecordSubscriptionChange moves the user to plan and appends a history
// entry. The usage counter is carried over unchanged.
func (s *AccountService) RecordSubscriptionChange(ctx context.Context, userID string, plan domain.Plan) (*domain.SubscriptionHistoryEntry, error) {
	now := s.now().UTC()

	if err := s.users.UpdateSubscription(ctx, userID, plan.Tier, now); err != nil {
		return nil, fmt.Errorf("record subscription: %w", err)
	}

	entry := &domain.SubscriptionHistoryEntry{
		ID:           newID("sub_"),
		UserID:       userID,
		PlanID:       plan.Tier,
		PlanTier:     plan.Tier,
		Price:        plan.Price,
		SubscribedAt: now,
		Status:       domain.SubscriptionStatusActive,
	}
	if err := s.history.Append(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("tier", plan.Tier).Msg("subscription applied but history append failed")
		return nil, fmt.Errorf("record subscription: append history: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("tier", plan.Tier).Msg("subscription changed")
	return entry, nil
}

// ResetUsage zeroes the user's counter for the current period.
func (s *AccountService) ResetUsage(ctx context.Context, userID string) (*domain.User, error) {
	if !s.policy.AllowsManualReset() {
		return nil, domain.ErrResetNotAllowed
	}

	now := s.now().UTC()
	if err := s.users.ResetUsage(ctx, userID, s.policy.Period(now), now); err != nil {
		return nil, fmt.Errorf("reset usage: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("usage counter reset")
	return s.GetUser(ctx, userID)
}
