package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/qrforge/qr-service/internal/core/domain"
)

func newTestAuth(t *testing.T) (*AuthService, *testStack) {
	t.Helper()
	st := newTestStack(domain.ResetLifetime)
	return NewAuthService(st.accounts, "secret", time.Hour, zerolog.Nop()), st
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, st := newTestAuth(t)

	res, err := svc.Register(testCtx(), "  Alice@Example.com ", "pass123", "Alice")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected token")
	}
	u := res.User
	if u.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}
	if u.SubscriptionTier != domain.TierFree || u.QRCodesGenerated != 0 || u.Role != domain.RoleUser {
		t.Errorf("unexpected defaults: tier=%s count=%d role=%s", u.SubscriptionTier, u.QRCodesGenerated, u.Role)
	}
	if u.PasswordHash == "pass123" {
		t.Fatal("raw password stored")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	claims, err := svc.VerifyToken(res.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != u.ID || claims.Email != u.Email {
		t.Errorf("claims = %+v, want id %s", claims, u.ID)
	}
	if _, err := st.users.FindByID(testCtx(), u.ID); err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
}

func TestAuthService_Register_DuplicateNormalizedEmail(t *testing.T) {
	svc, _ := newTestAuth(t)

	if _, err := svc.Register(testCtx(), "bob@example.com", "pw", "Bob"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(testCtx(), "BOB@example.com ", "other", "Bobby")
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	svc, _ := newTestAuth(t)

	_, err := svc.Register(testCtx(), "a@example.com", "", "A")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, _ := newTestAuth(t)
	if _, err := svc.Register(testCtx(), "carol@example.com", "right", "Carol"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		res, err := svc.Authenticate(testCtx(), "Carol@example.com", "right")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if res.Token == "" || res.User.Email != "carol@example.com" {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, errWrong := svc.Authenticate(testCtx(), "carol@example.com", "wrong")
		_, errUnknown := svc.Authenticate(testCtx(), "nobody@example.com", "right")
		if !errors.Is(errWrong, domain.ErrInvalidCredentials) || !errors.Is(errUnknown, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for both, got %v / %v", errWrong, errUnknown)
		}
		if errWrong.Error() != errUnknown.Error() {
			t.Fatalf("error messages differ: %q vs %q", errWrong, errUnknown)
		}
	})
}

func TestAuthService_VerifyToken_Rejects(t *testing.T) {
	svc, _ := newTestAuth(t)
	user := &domain.User{ID: "user_1", Email: "u@example.com"}

	valid, err := svc.generateToken(user)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.generateToken(user)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	svc.now = time.Now

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "user_1",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	other := NewAuthService(nil, "other-secret", time.Hour, zerolog.Nop())
	foreign, err := other.generateToken(user)
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"alg none", none},
		{"wrong secret", foreign},
		{"garbage", "not-a-token"},
		{"tampered", valid + "x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.VerifyToken(tc.token); !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := svc.VerifyToken(valid); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
}
