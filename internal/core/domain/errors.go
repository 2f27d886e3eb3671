package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateAccount   = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrQRCodeNotFound     = errors.New("qr code not found")
	ErrEncodingFailure    = errors.New("qr encoding failed")
	ErrForbidden          = errors.New("access forbidden")
	ErrResetNotAllowed    = errors.New("usage reset is disabled by policy")

	// ErrRequestInProgress refuses a retry whose Idempotency-Key is still
	// held by an unfinished issuance.
	ErrRequestInProgress = errors.New("request in progress")

	// ErrQuotaExhausted is returned by repositories when a conditional
	// counter increment was refused. Services turn it into a
	// LimitExceededError.
	ErrQuotaExhausted = errors.New("quota exhausted")
)

// LimitExceededError refuses an issuance because the plan quota is used up.
// It carries enough data for a client to prompt an upgrade.
type LimitExceededError struct {
	Tier         string
	CurrentUsage int
	Limit        int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("qr code limit reached (%d/%d on %s plan)", e.CurrentUsage, e.Limit, e.Tier)
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level input failures.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}
