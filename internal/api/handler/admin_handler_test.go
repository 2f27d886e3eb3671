package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/qrforge/qr-service/internal/core/domain"
)

func TestAdminHandler_GetUser(t *testing.T) {
	accounts := &stubAccountService{users: map[string]*domain.User{
		"user_7": {ID: "user_7", Email: "x@example.com"},
	}}
	h := NewAdminHandler(accounts)

	c, rec := newTestContext(http.MethodGet, "/v1/admin/users/user_7", "", "admin_1")
	c.SetParamNames("id")
	c.SetParamValues("user_7")
	if err := h.GetUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp meResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.User.ID != "user_7" {
		t.Fatalf("unexpected user %+v", resp.User)
	}
}

func TestAdminHandler_ResetUsage(t *testing.T) {
	t.Run("resets counter", func(t *testing.T) {
		accounts := &stubAccountService{users: map[string]*domain.User{
			"user_7": {ID: "user_7", QRCodesGenerated: 3},
		}}
		c, rec := newTestContext(http.MethodPost, "/v1/admin/users/user_7/usage/reset", "", "admin_1")
		c.SetParamNames("id")
		c.SetParamValues("user_7")

		if err := NewAdminHandler(accounts).ResetUsage(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if len(accounts.resets) != 1 {
			t.Fatalf("expected one reset, got %d", len(accounts.resets))
		}

		var resp meResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.User.QRCodesGenerated != 0 {
			t.Fatalf("expected counter 0, got %d", resp.User.QRCodesGenerated)
		}
	})

	t.Run("disabled by policy", func(t *testing.T) {
		accounts := &stubAccountService{resetErr: domain.ErrResetNotAllowed}
		c, _ := newTestContext(http.MethodPost, "/v1/admin/users/user_7/usage/reset", "", "admin_1")
		c.SetParamNames("id")
		c.SetParamValues("user_7")

		if err := NewAdminHandler(accounts).ResetUsage(c); !errors.Is(err, domain.ErrResetNotAllowed) {
			t.Fatalf("expected ErrResetNotAllowed, got %v", err)
		}
	})
}
