package entitlements

import (
	"strings"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPremium    Plan = "premium"
	PlanPremiumMax Plan = "premium_max"
)

// MaxLinks returns the link quota for a plan. 0 means unlimited.
func MaxLinks(plan Plan) int64 {
	switch plan {
	case PlanPremiumMax:
		return 0
	case PlanPremium:
		return 1000
	default:
		return 50
	}
}

// AllowsCustomSlug reports whether a plan may pick its own slugs instead of
// generated ones.
func AllowsCustomSlug(plan Plan) bool {
	switch plan {
	case PlanPremium, PlanPremiumMax:
		return true
	default:
		return false
	}
}

// Normalize maps a raw plan string from user settings to a known plan.
func Normalize(raw string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(raw))) {
	case PlanPremium:
		return PlanPremium
	case PlanPremiumMax:
		return PlanPremiumMax
	default:
		return PlanFree
	}
}

// CanCreateLink checks a user's current link count against the plan quota.
func CanCreateLink(plan Plan, currentCount int64) bool {
	max := MaxLinks(plan)
	return max == 0 || currentCount < max
}
