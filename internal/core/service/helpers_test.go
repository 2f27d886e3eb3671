package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// testStack wires every service against in-memory stubs.
type testStack struct {
	users    *stubUserRepo
	codes    *stubQRRepo
	plans    *stubPlanRepo
	history  *stubHistoryRepo
	encoder  *stubEncoder
	mailer   *stubMailer
	images   *stubImageStore
	idem     *stubIdempotency
	accounts *AccountService
	catalog  *CatalogService
	qr       *QRService
	subs     *SubscriptionService
}

func newTestStack(policy domain.ResetPolicy) *testStack {
	st := &testStack{
		users:   newStubUserRepo(),
		codes:   newStubQRRepo(),
		plans:   &stubPlanRepo{},
		history: &stubHistoryRepo{},
		encoder: &stubEncoder{},
		mailer:  &stubMailer{},
		images:  newStubImageStore(),
		idem:    newStubIdempotency(),
	}
	log := zerolog.Nop()
	st.accounts = NewAccountService(st.users, st.history, policy, log)
	st.catalog = NewCatalogService(st.plans, nil, log)
	st.qr = NewQRService(QRServiceDeps{
		Users:       st.users,
		Codes:       st.codes,
		Catalog:     st.catalog,
		Encoder:     st.encoder,
		Mailer:      st.mailer,
		Images:      st.images,
		Idempotency: st.idem,
	}, policy, log)
	st.subs = NewSubscriptionService(st.accounts, st.catalog, st.history, policy, log)
	return st
}

// seedUser stores a user on tier with the given counter in the current period.
func (st *testStack) seedUser(t *testing.T, id, tier string, generated int) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		ID:               id,
		Email:            id + "@example.com",
		Name:             id,
		Role:             domain.RoleUser,
		SubscriptionTier: tier,
		QRCodesGenerated: generated,
		UsagePeriod:      st.qr.policy.Period(now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	st.users.put(u)
	return u
}

func testCtx() context.Context { return context.Background() }
