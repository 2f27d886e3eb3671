package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models a registered account together with its metering state.
type User struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	PasswordHash       string     `json:"-"`
	Role               string     `json:"role"`
	SubscriptionTier   string     `json:"subscriptionTier"`
	SubscriptionActive bool       `json:"subscriptionActive"`
	SubscriptionSince  *time.Time `json:"subscriptionSince,omitempty"`
	QRCodesGenerated   int        `json:"qrCodesGenerated"`
	UsagePeriod        string     `json:"usagePeriod,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// NormalizeEmail lower-cases and trims an address so that uniqueness checks
// and logins compare the same representation.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Claims is the identity carried by a bearer token.
type Claims struct {
	UserID string
	Email  string
}
