package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

func TestQRHandler_Generate_Success(t *testing.T) {
	var got ports.IssueQRInput
	stub := &stubQRService{
		issueFn: func(ctx context.Context, in ports.IssueQRInput) (*ports.QRIssuanceResult, error) {
			got = in
			return &ports.QRIssuanceResult{
				QRID:        "qr_1",
				Image:       []byte("png-bytes"),
				Usage:       ports.Usage{Current: 1, Limit: 3},
				Message:     "QR code generated successfully",
				EmailStatus: domain.EmailSkipped,
				Tier:        domain.TierFree,
			}, nil
		},
	}
	h := NewQRHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/v1/qr/generate", `{"text":"https://example.com","color":"#112233"}`, "user_1")
	c.Request().Header.Set("Idempotency-Key", "req-1")

	if err := h.Generate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.UserID != "user_1" || got.Text != "https://example.com" || got.Color != "#112233" || got.IdempotencyKey != "req-1" {
		t.Fatalf("unexpected input: %+v", got)
	}

	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !strings.HasPrefix(resp.QRImage, pngDataURLPrefix) {
		t.Fatalf("expected data url, got %q", resp.QRImage)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(resp.QRImage, pngDataURLPrefix))
	if err != nil || string(decoded) != "png-bytes" {
		t.Fatalf("image not round-tripped: %q %v", decoded, err)
	}
	if resp.Usage.Current != 1 || resp.Usage.Limit != 3 || resp.QRID != "qr_1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if rec.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("fresh issuance must not be flagged as replay")
	}
}

func TestQRHandler_Generate_Replay(t *testing.T) {
	stub := &stubQRService{
		issueFn: func(ctx context.Context, in ports.IssueQRInput) (*ports.QRIssuanceResult, error) {
			return &ports.QRIssuanceResult{QRID: "qr_1", Replayed: true, Tier: domain.TierFree}, nil
		},
	}
	h := NewQRHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/v1/qr/generate", `{"text":"hello"}`, "user_1")
	if err := h.Generate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay header")
	}
}

func TestQRHandler_Generate_Rejections(t *testing.T) {
	limitErr := &domain.LimitExceededError{Tier: domain.TierFree, CurrentUsage: 3, Limit: 3}

	tests := []struct {
		name    string
		body    string
		userID  string
		svcErr  error
		check   func(t *testing.T, err error)
		callSvc bool
	}{
		{
			name:   "missing claims",
			body:   `{"text":"hello"}`,
			userID: "",
			check: func(t *testing.T, err error) {
				if code := httpStatus(err); code != http.StatusUnauthorized {
					t.Fatalf("expected 401, got %d", code)
				}
			},
		},
		{
			name:   "empty text",
			body:   `{"text":""}`,
			userID: "user_1",
			check: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) || ve.Fields[0].Field != "text" {
					t.Fatalf("expected text validation error, got %v", err)
				}
			},
		},
		{
			name:   "bad colour",
			body:   `{"text":"hello","color":"red"}`,
			userID: "user_1",
			check: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) || ve.Fields[0].Field != "color" {
					t.Fatalf("expected color validation error, got %v", err)
				}
			},
		},
		{
			name:   "bad email target",
			body:   `{"text":"hello","emailTarget":"nope"}`,
			userID: "user_1",
			check: func(t *testing.T, err error) {
				var ve *domain.ValidationError
				if !errors.As(err, &ve) || ve.Fields[0].Field != "emailTarget" {
					t.Fatalf("expected emailTarget validation error, got %v", err)
				}
			},
		},
		{
			name:    "limit exceeded",
			body:    `{"text":"hello"}`,
			userID:  "user_1",
			svcErr:  limitErr,
			callSvc: true,
			check: func(t *testing.T, err error) {
				var le *domain.LimitExceededError
				if !errors.As(err, &le) || le.CurrentUsage != 3 || le.Limit != 3 {
					t.Fatalf("expected limit error, got %v", err)
				}
			},
		},
		{
			name:    "encoding failure",
			body:    `{"text":"hello"}`,
			userID:  "user_1",
			svcErr:  domain.ErrEncodingFailure,
			callSvc: true,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrEncodingFailure) {
					t.Fatalf("expected ErrEncodingFailure, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			stub := &stubQRService{
				issueFn: func(ctx context.Context, in ports.IssueQRInput) (*ports.QRIssuanceResult, error) {
					called = true
					return nil, tt.svcErr
				},
			}
			h := NewQRHandler(stub)

			c, _ := newTestContext(http.MethodPost, "/v1/qr/generate", tt.body, tt.userID)
			tt.check(t, h.Generate(c))
			if called != tt.callSvc {
				t.Fatalf("service called = %v, want %v", called, tt.callSvc)
			}
		})
	}
}

func TestQRHandler_History(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("records", func(t *testing.T) {
		stub := &stubQRService{
			historyFn: func(ctx context.Context, userID string) ([]domain.QRRecord, error) {
				return []domain.QRRecord{
					{ID: "qr_2", UserID: userID, Text: "b", GeneratedAt: now},
					{ID: "qr_1", UserID: userID, Text: "a", GeneratedAt: now.Add(-time.Hour)},
				}, nil
			},
		}
		c, rec := newTestContext(http.MethodGet, "/v1/qr/history", "", "user_1")
		if err := NewQRHandler(stub).History(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}

		var resp historyResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.Count != 2 || resp.QRCodes[0].ID != "qr_2" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("empty list is an array", func(t *testing.T) {
		stub := &stubQRService{
			historyFn: func(ctx context.Context, userID string) ([]domain.QRRecord, error) {
				return nil, nil
			},
		}
		c, rec := newTestContext(http.MethodGet, "/v1/qr/history", "", "user_1")
		if err := NewQRHandler(stub).History(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if !strings.Contains(rec.Body.String(), `"qrCodes":[]`) {
			t.Fatalf("expected empty array, got %s", rec.Body.String())
		}
	})
}

func TestQRHandler_Download(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G'}
	stub := &stubQRService{
		downloadFn: func(ctx context.Context, userID, qrID string) (*ports.QRDownload, error) {
			if userID != "user_1" {
				return nil, domain.ErrQRCodeNotFound
			}
			return &ports.QRDownload{Record: domain.QRRecord{ID: qrID, UserID: userID}, Image: image}, nil
		},
	}
	h := NewQRHandler(stub)

	t.Run("owner", func(t *testing.T) {
		c, rec := newTestContext(http.MethodGet, "/v1/qr/qr_1/download", "", "user_1")
		c.SetParamNames("id")
		c.SetParamValues("qr_1")

		if err := h.Download(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("expected image/png, got %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="qr_1.png"` {
			t.Fatalf("unexpected disposition %q", cd)
		}
		if !bytes.Equal(rec.Body.Bytes(), image) {
			t.Fatalf("unexpected body")
		}
	})

	t.Run("other user", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/v1/qr/qr_1/download", "", "user_2")
		c.SetParamNames("id")
		c.SetParamValues("qr_1")

		if err := h.Download(c); !errors.Is(err, domain.ErrQRCodeNotFound) {
			t.Fatalf("expected ErrQRCodeNotFound, got %v", err)
		}
	})
}
