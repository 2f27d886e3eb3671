package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.User
	findErr  error // if set, FindByID returns this error
	resErr   error // if set, ReserveQuota returns this error
	released int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) put(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = cloneUser(u)
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == user.Email {
			return domain.ErrDuplicateAccount
		}
	}
	r.byID[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// ReserveQuota mirrors the conditional update of the Mongo repository.
func (r *stubUserRepo) ReserveQuota(_ context.Context, userID string, limit int, period string, _ time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resErr != nil {
		return 0, r.resErr
	}
	u, ok := r.byID[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	if u.UsagePeriod != period {
		u.UsagePeriod = period
		u.QRCodesGenerated = 0
	}
	if limit != domain.Unlimited && u.QRCodesGenerated >= limit {
		return 0, domain.ErrQuotaExhausted
	}
	u.QRCodesGenerated++
	return u.QRCodesGenerated, nil
}

func (r *stubUserRepo) ReleaseQuota(_ context.Context, userID string, period string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.UsagePeriod == period && u.QRCodesGenerated > 0 {
		u.QRCodesGenerated--
	}
	r.released++
	return nil
}

func (r *stubUserRepo) UpdateSubscription(_ context.Context, userID, tier string, since time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.SubscriptionTier = tier
	u.SubscriptionActive = true
	u.SubscriptionSince = &since
	return nil
}

func (r *stubUserRepo) ResetUsage(_ context.Context, userID, period string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.QRCodesGenerated = 0
	u.UsagePeriod = period
	return nil
}

func (r *stubUserRepo) usage(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].QRCodesGenerated
}

type stubQRRepo struct {
	mu        sync.Mutex
	records   map[string]*domain.QRRecord
	createErr error
}

func newStubQRRepo() *stubQRRepo {
	return &stubQRRepo{records: make(map[string]*domain.QRRecord)}
}

func (r *stubQRRepo) Create(_ context.Context, rec *domain.QRRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *stubQRRepo) FindByID(_ context.Context, id string) (*domain.QRRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrQRCodeNotFound
	}
	clone := *rec
	return &clone, nil
}

func (r *stubQRRepo) ListByUser(_ context.Context, userID string) ([]domain.QRRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.QRRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	return out, nil
}

func (r *stubQRRepo) IncrementDownloads(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return domain.ErrQRCodeNotFound
	}
	rec.Downloads++
	return nil
}

func (r *stubQRRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type stubPlanRepo struct {
	mu        sync.Mutex
	plans     []domain.Plan
	listCalls int
	upserts   int
	listErr   error
}

func (r *stubPlanRepo) List(_ context.Context) ([]domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]domain.Plan(nil), r.plans...), nil
}

func (r *stubPlanRepo) Upsert(_ context.Context, plans []domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	r.plans = append([]domain.Plan(nil), plans...)
	return nil
}

type stubPlanCache struct {
	plans         []domain.Plan
	getErr        error
	setErr        error
	invalidations int
}

func (c *stubPlanCache) Get(_ context.Context) ([]domain.Plan, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	return c.plans, c.plans != nil, nil
}

func (c *stubPlanCache) Set(_ context.Context, plans []domain.Plan) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.plans = plans
	return nil
}

func (c *stubPlanCache) Invalidate(_ context.Context) error {
	c.plans = nil
	c.invalidations++
	return nil
}

type stubHistoryRepo struct {
	mu        sync.Mutex
	entries   []domain.SubscriptionHistoryEntry
	appendErr error
}

func (r *stubHistoryRepo) Append(_ context.Context, e *domain.SubscriptionHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.entries = append(r.entries, *e)
	return nil
}

func (r *stubHistoryRepo) ListByUser(_ context.Context, userID string) ([]domain.SubscriptionHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SubscriptionHistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Integration stubs
// ---------------------------------------------------------------------------

// stubEncoder returns a deterministic payload derived from its inputs.
type stubEncoder struct {
	err   error
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (e *stubEncoder) Encode(text string, opts domain.RenderOptions) ([]byte, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.err != nil {
		return nil, e.err
	}
	return []byte("png:" + opts.Colors.Foreground + ":" + text), nil
}

type stubMailer struct {
	mu   sync.Mutex
	sent []domain.Email
	err  error
}

func (m *stubMailer) Send(_ context.Context, email domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

type stubImageStore struct {
	mu     sync.Mutex
	images map[string][]byte
	putErr error
}

func newStubImageStore() *stubImageStore {
	return &stubImageStore{images: make(map[string][]byte)}
}

func (s *stubImageStore) Put(_ context.Context, id string, png []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.images[id] = png
	return nil
}

func (s *stubImageStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[id]
	if !ok {
		return nil, errors.New("no such object")
	}
	return img, nil
}

// stubIdempotency mirrors the claim protocol of the Redis store: a nil entry
// is a pending claim.
type stubIdempotency struct {
	mu       sync.Mutex
	entries  map[string]*ports.QRIssuanceResult
	claimErr error
	releases int
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{entries: make(map[string]*ports.QRIssuanceResult)}
}

func (s *stubIdempotency) Claim(_ context.Context, userID, key string) (*ports.QRIssuanceResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return nil, false, s.claimErr
	}
	r, ok := s.entries[userID+"/"+key]
	if !ok {
		s.entries[userID+"/"+key] = nil
		return nil, true, nil
	}
	if r == nil {
		return nil, false, domain.ErrRequestInProgress
	}
	clone := *r
	return &clone, false, nil
}

func (s *stubIdempotency) Save(_ context.Context, userID, key string, result *ports.QRIssuanceResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *result
	s.entries[userID+"/"+key] = &clone
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID+"/"+key)
	s.releases++
	return nil
}
