package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

// CatalogService serves subscription plans, seeding the defaults on first
// read of an empty store.
type CatalogService struct {
	repo  ports.PlanRepository
	cache ports.PlanCache
	log   zerolog.Logger
}

// NewCatalogService returns a catalog backed by repo. cache may be nil.
func NewCatalogService(repo ports.PlanRepository, cache ports.PlanCache, log zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, log: log}
}

// ListPlans returns the catalog in display order.
func (s *CatalogService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	if s.cache != nil {
		plans, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("plan cache read failed, falling back to store")
		} else if ok && len(plans) > 0 {
			return plans, nil
		}
	}

	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	if len(plans) == 0 {
		plans = domain.DefaultPlans()
		if err := s.repo.Upsert(ctx, plans); err != nil {
			return nil, fmt.Errorf("seed plans: %w", err)
		}
		s.log.Info().Int("count", len(plans)).Msg("subscription catalog seeded")
		s.invalidate(ctx)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, plans); err != nil {
			s.log.Warn().Err(err).Msg("plan cache write failed")
		}
	}
	return plans, nil
}

// invalidate drops a cached catalog that predates a store write, so a failed
// refill leaves no stale entry behind.
func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("plan cache invalidation failed")
	}
}

// GetPlan resolves tier, falling back to the free plan when it is unknown.
func (s *CatalogService) GetPlan(ctx context.Context, tier string) (domain.PlanLookup, error) {
	plans, err := s.ListPlans(ctx)
	if err != nil {
		return domain.PlanLookup{}, err
	}

	if plan, ok := findTier(plans, tier); ok {
		return domain.PlanLookup{Plan: plan, Requested: tier, Source: domain.KnownPlan}, nil
	}

	free, ok := findTier(plans, domain.TierFree)
	if !ok {
		return domain.PlanLookup{}, fmt.Errorf("get plan %q: free fallback missing: %w", tier, domain.ErrPlanNotFound)
	}

	s.log.Warn().Str("tier", tier).Msg("unknown subscription tier, applying free plan")
	return domain.PlanLookup{Plan: free, Requested: tier, Source: domain.UnknownPlanFallback}, nil
}

// FindPlan is the strict lookup used when a caller names a plan explicitly.
func (s *CatalogService) FindPlan(ctx context.Context, tier string) (domain.Plan, error) {
	plans, err := s.ListPlans(ctx)
	if err != nil {
		return domain.Plan{}, err
	}
	plan, ok := findTier(plans, tier)
	if !ok {
		return domain.Plan{}, domain.ErrPlanNotFound
	}
	return plan, nil
}

func findTier(plans []domain.Plan, tier string) (domain.Plan, bool) {
	for _, p := range plans {
		if p.Tier == tier {
			return p, true
		}
	}
	return domain.Plan{}, false
}
