package ports

import (
	"context"

	"github.com/qrforge/qr-service/internal/core/domain"
)

// QREncoder renders text into a PNG image. Equal inputs must produce equal
// bytes.
type QREncoder interface {
	Encode(text string, opts domain.RenderOptions) ([]byte, error)
}

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, email domain.Email) error
}

// ImageStore keeps rendered QR images keyed by record id.
type ImageStore interface {
	Put(ctx context.Context, qrID string, png []byte) error
	Get(ctx context.Context, qrID string) ([]byte, error)
}

// IdempotencyStore guards issuance per (user, Idempotency-Key).
type IdempotencyStore interface {
	// Claim reserves the key and reports true when the caller owns it.
	// A completed key yields its stored result; a key still held by another
	// caller yields domain.ErrRequestInProgress.
	Claim(ctx context.Context, userID, key string) (*QRIssuanceResult, bool, error)
	// Save replaces the claim with the finished result.
	Save(ctx context.Context, userID, key string, result *QRIssuanceResult) error
	// Release drops a claim whose issuance failed.
	Release(ctx context.Context, userID, key string) error
}
