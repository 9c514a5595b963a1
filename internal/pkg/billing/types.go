package billing

import (
	"context"

	"github.com/ManuelReschke/LinkFox/internal/pkg/shopify"
)

// ShopifyAPI is the slice of the Shopify Admin client the billing service
// needs. Kept as an interface so tests can swap in a fake.
type ShopifyAPI interface {
	CreateRecurringCharge(ctx context.Context, shopDomain, token string, params shopify.ChargeParams) (*shopify.RecurringCharge, error)
	ActivateRecurringCharge(ctx context.Context, shopDomain, token string, chargeID int64) (*shopify.RecurringCharge, error)
	CancelRecurringCharge(ctx context.Context, shopDomain, token string, chargeID int64) error
	GetShopInfo(ctx context.Context, shopDomain, token string) (*shopify.ShopInfo, error)
}

// PlanConfig describes the single recurring plan the app sells. TrialDays
// drives the local trial window on the merchant row only.
type PlanConfig struct {
	Name      string
	Price     float64
	TrialDays int
	ReturnURL string
	Test      bool
}

func shopifyChargeParams(plan PlanConfig) shopify.ChargeParams {
	return shopify.ChargeParams{
		Name:      plan.Name,
		Price:     plan.Price,
		ReturnURL: plan.ReturnURL,
		// The trial lives in merchants.trial_starts_at/trial_ends_at. The
		// platform charge must not stack a second trial on top of it.
		TrialDays: 0,
		Test:      plan.Test,
	}
}

// ChargeIntent is the outcome of a charge creation request. When the user has
// no connected shop NeedsConnection is set and the other fields are empty.
type ChargeIntent struct {
	NeedsConnection bool   `json:"needs_connection"`
	ChargeID        int64  `json:"charge_id,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}
