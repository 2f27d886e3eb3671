package domain

import "time"

const SubscriptionStatusActive = "active"

// SubscriptionHistoryEntry is an append-only record of a plan change.
type SubscriptionHistoryEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	PlanID       string    `json:"planId"`
	PlanTier     string    `json:"planTier"`
	Price        float64   `json:"price"`
	SubscribedAt time.Time `json:"subscribedAt"`
	Status       string    `json:"status"`
}
