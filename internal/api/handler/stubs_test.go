package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qrforge/qr-service/internal/api/middleware"
	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn     func(ctx context.Context, email, password, name string) (*ports.AuthResult, error)
	authenticateFn func(ctx context.Context, email, password string) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password, name string) (*ports.AuthResult, error) {
	return s.registerFn(ctx, email, password, name)
}

func (s *stubAuthService) Authenticate(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.authenticateFn(ctx, email, password)
}

func (s *stubAuthService) VerifyToken(string) (*domain.Claims, error) {
	return nil, domain.ErrInvalidToken
}

type stubAccountService struct {
	users    map[string]*domain.User
	resetErr error
	resets   []string
}

func (s *stubAccountService) CreateUser(context.Context, string, string, string) (*domain.User, error) {
	panic("not used")
}

func (s *stubAccountService) GetUser(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubAccountService) FindByEmail(context.Context, string) (*domain.User, error) {
	panic("not used")
}

func (s *stubAccountService) RecordSubscriptionChange(context.Context, string, domain.Plan) (*domain.SubscriptionHistoryEntry, error) {
	panic("not used")
}

func (s *stubAccountService) ResetUsage(ctx context.Context, id string) (*domain.User, error) {
	if s.resetErr != nil {
		return nil, s.resetErr
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resets = append(s.resets, id)
	u.QRCodesGenerated = 0
	return u, nil
}

type stubQRService struct {
	issueFn    func(ctx context.Context, in ports.IssueQRInput) (*ports.QRIssuanceResult, error)
	historyFn  func(ctx context.Context, userID string) ([]domain.QRRecord, error)
	downloadFn func(ctx context.Context, userID, qrID string) (*ports.QRDownload, error)
}

func (s *stubQRService) Issue(ctx context.Context, in ports.IssueQRInput) (*ports.QRIssuanceResult, error) {
	return s.issueFn(ctx, in)
}

func (s *stubQRService) History(ctx context.Context, userID string) ([]domain.QRRecord, error) {
	return s.historyFn(ctx, userID)
}

func (s *stubQRService) Download(ctx context.Context, userID, qrID string) (*ports.QRDownload, error) {
	return s.downloadFn(ctx, userID, qrID)
}

type stubCatalog struct {
	plans []domain.Plan
}

func (s *stubCatalog) ListPlans(context.Context) ([]domain.Plan, error) {
	return s.plans, nil
}

func (s *stubCatalog) GetPlan(ctx context.Context, tier string) (domain.PlanLookup, error) {
	panic("not used")
}

func (s *stubCatalog) FindPlan(ctx context.Context, tier string) (domain.Plan, error) {
	panic("not used")
}

type stubSubscriptionService struct {
	subscribeFn func(ctx context.Context, userID, planID string) (*ports.SubscriptionResult, error)
	currentFn   func(ctx context.Context, userID string) (*ports.CurrentSubscription, error)
	history     []domain.SubscriptionHistoryEntry
}

func (s *stubSubscriptionService) Subscribe(ctx context.Context, userID, planID string) (*ports.SubscriptionResult, error) {
	return s.subscribeFn(ctx, userID, planID)
}

func (s *stubSubscriptionService) Current(ctx context.Context, userID string) (*ports.CurrentSubscription, error) {
	return s.currentFn(ctx, userID)
}

func (s *stubSubscriptionService) History(context.Context, string) ([]domain.SubscriptionHistoryEntry, error) {
	return s.history, nil
}

// newTestContext builds an Echo context with the validator installed. A
// non-empty userID simulates the Auth middleware.
func newTestContext(method, path, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.ContextUserID, userID)
	}
	return c, rec
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
