package domain

// Plan tiers shipped with the default catalog.
const (
	TierFree    = "free"
	TierBasic   = "basic"
	TierPremium = "premium"
)

// Unlimited is the qrCodesLimit sentinel for plans without a generation cap.
const Unlimited = -1

// FeatureEmailDelivery unlocks sending generated codes by email.
const FeatureEmailDelivery = "Email Delivery"

// Plan is a subscription level in the catalog.
type Plan struct {
	Tier         string   `json:"tier"`
	Price        float64  `json:"price"`
	QRCodesLimit int      `json:"qrCodesLimit"`
	Features     []string `json:"features"`
	Rank         int      `json:"-"`
}

// HasFeature reports whether the plan grants the named capability.
func (p Plan) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Bounded reports whether the plan caps generation at all.
func (p Plan) Bounded() bool {
	return p.QRCodesLimit != Unlimited
}

// Admits reports whether one more code may be issued on top of usage.
func (p Plan) Admits(usage int) bool {
	return !p.Bounded() || usage < p.QRCodesLimit
}

// DefaultPlans returns the catalog seeded into an empty store, in display order.
func DefaultPlans() []Plan {
	return []Plan{
		{
			Tier:         TierFree,
			Price:        0,
			QRCodesLimit: 3,
			Features:     []string{"Basic QR Generation", "Standard Colors"},
			Rank:         0,
		},
		{
			Tier:         TierBasic,
			Price:        9.99,
			QRCodesLimit: 50,
			Features:     []string{"Custom Colors", "QR Analytics", FeatureEmailDelivery},
			Rank:         1,
		},
		{
			Tier:         TierPremium,
			Price:        19.99,
			QRCodesLimit: Unlimited,
			Features:     []string{"All Basic Features", "Priority Support", "API Access", FeatureEmailDelivery},
			Rank:         2,
		},
	}
}

// PlanSource tells whether a lookup hit the requested tier or fell back.
type PlanSource int

const (
	KnownPlan PlanSource = iota
	UnknownPlanFallback
)

// PlanLookup is the result of resolving a user's tier against the catalog.
// An unknown tier resolves to the free plan with Source set to
// UnknownPlanFallback.
type PlanLookup struct {
	Plan      Plan
	Requested string
	Source    PlanSource
}

// Fallback reports whether the requested tier was not in the catalog.
func (l PlanLookup) Fallback() bool {
	return l.Source == UnknownPlanFallback
}
