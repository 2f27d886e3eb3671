package handler

import (
	"encoding/base64"

	"github.com/qrforge/qr-service/internal/core/domain"
	"github.com/qrforge/qr-service/internal/core/ports"
)

const pngDataURLPrefix = "data:image/png;base64,"

// toUserResponse strips credentials from the stored account.
func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		SubscriptionTier:   u.SubscriptionTier,
		SubscriptionActive: u.SubscriptionActive,
		SubscriptionSince:  u.SubscriptionSince,
		QRCodesGenerated:   u.QRCodesGenerated,
		CreatedAt:          u.CreatedAt,
	}
}

func toGenerateResponse(r *ports.QRIssuanceResult) generateResponse {
	return generateResponse{
		Success:     true,
		QRImage:     pngDataURLPrefix + base64.StdEncoding.EncodeToString(r.Image),
		QRID:        r.QRID,
		Usage:       r.Usage,
		Message:     r.Message,
		Warning:     r.Warning,
		EmailStatus: r.EmailStatus,
	}
}

func toCurrentSubscriptionView(cur *ports.CurrentSubscription) currentSubscriptionView {
	return currentSubscriptionView{
		Tier:         cur.Plan.Tier,
		Price:        cur.Plan.Price,
		QRCodesLimit: cur.Plan.QRCodesLimit,
		Features:     cur.Plan.Features,
		CurrentUsage: cur.CurrentUsage,
		Fallback:     cur.Fallback,
	}
}
