package handler

import (
	"time"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"     validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Role               string     `json:"role"`
	SubscriptionTier   string     `json:"subscriptionTier"`
	SubscriptionActive bool       `json:"subscriptionActive"`
	SubscriptionSince  *time.Time `json:"subscriptionSince,omitempty"`
	QRCodesGenerated   int        `json:"qrCodesGenerated"`
	CreatedAt          time.Time  `json:"createdAt"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type meResponse struct {
	Success bool         `json:"success"`
	User    userResponse `json:"user"`
}

// --- QR ---

type generateRequest struct {
	Text        string `json:"text"        validate:"required,max=2000"`
	Color       string `json:"color"       validate:"omitempty,hexcolor"`
	EmailTarget string `json:"emailTarget" validate:"omitempty,email"`
}

type generateResponse struct {
	Success     bool               `json:"success"`
	QRImage     string             `json:"qrImage"`
	QRID        string             `json:"qrId"`
	Usage       ports.Usage        `json:"usage"`
	Message     string             `json:"message"`
	Warning     string             `json:"warning,omitempty"`
	EmailStatus domain.EmailStatus `json:"emailStatus"`
}

type historyResponse struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	QRCodes []domain.QRRecord `json:"qrCodes"`
}

// --- Subscriptions ---

type plansResponse struct {
	Success bool          `json:"success"`
	Plans   []domain.Plan `json:"plans"`
}

type subscribeRequest struct {
	PlanID string `json:"planId" validate:"required"`
}

type subscriptionView struct {
	Tier         string    `json:"tier"`
	Features     []string  `json:"features"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

type subscribeResponse struct {
	Success      bool             `json:"success"`
	Message      string           `json:"message"`
	Subscription subscriptionView `json:"subscription"`
}

type currentSubscriptionView struct {
	Tier         string   `json:"tier"`
	Price        float64  `json:"price"`
	QRCodesLimit int      `json:"qrCodesLimit"`
	Features     []string `json:"features"`
	CurrentUsage int      `json:"currentUsage"`
	Fallback     bool     `json:"fallback,omitempty"`
}

type currentSubscriptionResponse struct {
	Success      bool                    `json:"success"`
	Subscription currentSubscriptionView `json:"subscription"`
}

type subscriptionHistoryResponse struct {
	Success bool                              `json:"success"`
	Count   int                               `json:"count"`
	History []domain.SubscriptionHistoryEntry `json:"history"`
}
