package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestMerchantHasCredentials(t *testing.T) {
	m := &Merchant{
		UserID:      1,
		ShopDomain:  strPtr("demo.myshopify.com"),
		AccessToken: strPtr("shpat_test"),
		TokenStatus: TokenStatusActive,
	}
	assert.True(t, m.HasCredentials())

	m.TokenStatus = TokenStatusInvalid
	assert.False(t, m.HasCredentials())

	m.TokenStatus = TokenStatusActive
	m.AccessToken = nil
	assert.False(t, m.HasCredentials())
}

func TestMerchantIsBillable(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	cases := []struct {
		name     string
		merchant Merchant
		want     bool
	}{
		{"active subscription", Merchant{SubscriptionStatus: SubscriptionStatusActive}, true},
		{"trial without deadline", Merchant{SubscriptionStatus: SubscriptionStatusTrial}, true},
		{"trial still running", Merchant{SubscriptionStatus: SubscriptionStatusTrial, TrialEndsAt: &future}, true},
		{"trial over", Merchant{SubscriptionStatus: SubscriptionStatusTrial, TrialEndsAt: &past}, false},
		{"cancelled", Merchant{SubscriptionStatus: SubscriptionStatusCancelled}, false},
		{"expired", Merchant{SubscriptionStatus: SubscriptionStatusExpired}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.merchant.IsBillable(), tc.name)
	}
}
