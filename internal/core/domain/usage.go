package domain

import (
	"fmt"
	"strings"
	"time"
)

// ResetPolicy decides whether and when a user's generation counter restarts.
type ResetPolicy string

const (
	// ResetLifetime never resets automatically; administrators may reset.
	ResetLifetime ResetPolicy = "lifetime"
	// ResetMonthly restarts the counter at each UTC calendar month.
	ResetMonthly ResetPolicy = "monthly"
	// ResetNever forbids any reset, including administrative ones.
	ResetNever ResetPolicy = "never"
)

// ParseResetPolicy validates a configured policy name.
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch p := ResetPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ResetLifetime, ResetMonthly, ResetNever:
		return p, nil
	case "":
		return ResetLifetime, nil
	default:
		return "", fmt.Errorf("unknown usage reset policy %q", s)
	}
}

// Period returns the metering period a counter written at now belongs to.
// Only the monthly policy partitions usage; the others share the empty period.
func (p ResetPolicy) Period(now time.Time) string {
	if p == ResetMonthly {
		return now.UTC().Format("2006-01")
	}
	return ""
}

// EffectiveUsage is the counter value that applies at now. A counter from an
// earlier period counts as zero.
func (p ResetPolicy) EffectiveUsage(u *User, now time.Time) int {
	if u.UsagePeriod != p.Period(now) {
		return 0
	}
	return u.QRCodesGenerated
}

// AllowsManualReset reports whether administrators may zero a counter.
func (p ResetPolicy) AllowsManualReset() bool {
	return p != ResetNever
}
