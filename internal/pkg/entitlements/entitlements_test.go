package entitlements

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]Plan{
		"":            PlanFree,
		"free":        PlanFree,
		"Premium":     PlanPremium,
		" premium ":   PlanPremium,
		"premium_max": PlanPremiumMax,
		"unknown":     PlanFree,
	}
	for raw, want := range cases {
		if got := Normalize(raw); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestCanCreateLink(t *testing.T) {
	if !CanCreateLink(PlanFree, 49) {
		t.Error("free plan should allow creation below the quota")
	}
	if CanCreateLink(PlanFree, 50) {
		t.Error("free plan should block creation at the quota")
	}
	if !CanCreateLink(PlanPremiumMax, 1_000_000) {
		t.Error("premium_max should be unlimited")
	}
}

func TestAllowsCustomSlug(t *testing.T) {
	if AllowsCustomSlug(PlanFree) {
		t.Error("free plan must not allow custom slugs")
	}
	if !AllowsCustomSlug(PlanPremium) || !AllowsCustomSlug(PlanPremiumMax) {
		t.Error("premium plans should allow custom slugs")
	}
}
