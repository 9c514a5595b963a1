package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ChargeParams describes a recurring application charge to create.
type ChargeParams struct {
	Name      string
	Price     float64
	ReturnURL string
	TrialDays int
	Test      bool
}

// RecurringCharge mirrors the platform's recurring_application_charge object.
// Only the fields the billing flow needs are kept; price arrives as a string.
type RecurringCharge struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	Status          string `json:"status"`
	ConfirmationURL string `json:"confirmation_url"`
	TrialDays       int    `json:"trial_days"`
}

// ShopInfo is the subset of the shop resource used for token validation.
type ShopInfo struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Domain          string `json:"domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
	PlanName        string `json:"plan_name"`
}

type chargeEnvelope struct {
	RecurringApplicationCharge *RecurringCharge `json:"recurring_application_charge"`
}

// CreateRecurringCharge creates a pending recurring charge and returns it with
// the confirmation URL the merchant must visit to approve billing.
func (c *Client) CreateRecurringCharge(ctx context.Context, shopDomain, token string, params ChargeParams) (*RecurringCharge, error) {
	payload := map[string]any{
		"recurring_application_charge": map[string]any{
			"name":       params.Name,
			"price":      fmt.Sprintf("%.2f", params.Price),
			"return_url": params.ReturnURL,
			"trial_days": params.TrialDays,
			"test":       params.Test,
		},
	}

	resp, err := c.Request(ctx, shopDomain, token, "recurring_application_charges.json", http.MethodPost, payload)
	if err != nil {
		return nil, err
	}

	var envelope chargeEnvelope
	if err := json.Unmarshal(resp.Data, &envelope); err != nil {
		return nil, &InvalidResponseError{Operation: "createRecurringCharge", Missing: "recurring_application_charge"}
	}
	charge := envelope.RecurringApplicationCharge
	if charge == nil || charge.ID == 0 {
		return nil, &InvalidResponseError{Operation: "createRecurringCharge", Missing: "recurring_application_charge.id"}
	}
	if charge.ConfirmationURL == "" {
		return nil, &InvalidResponseError{Operation: "createRecurringCharge", Missing: "recurring_application_charge.confirmation_url"}
	}
	return charge, nil
}

// ActivateRecurringCharge activates a merchant-approved charge. Billing only
// becomes effective after this call succeeds.
func (c *Client) ActivateRecurringCharge(ctx context.Context, shopDomain, token string, chargeID int64) (*RecurringCharge, error) {
	endpoint := fmt.Sprintf("recurring_application_charges/%d/activate.json", chargeID)
	resp, err := c.Request(ctx, shopDomain, token, endpoint, http.MethodPost, nil)
	if err != nil {
		return nil, err
	}

	var envelope chargeEnvelope
	if err := json.Unmarshal(resp.Data, &envelope); err != nil {
		return nil, &InvalidResponseError{Operation: "activateRecurringCharge", Missing: "recurring_application_charge"}
	}
	charge := envelope.RecurringApplicationCharge
	if charge == nil || charge.ID == 0 {
		return nil, &InvalidResponseError{Operation: "activateRecurringCharge", Missing: "recurring_application_charge.id"}
	}
	if charge.Status == "" {
		return nil, &InvalidResponseError{Operation: "activateRecurringCharge", Missing: "recurring_application_charge.status"}
	}
	return charge, nil
}

// CancelRecurringCharge deletes a recurring charge on the platform side.
func (c *Client) CancelRecurringCharge(ctx context.Context, shopDomain, token string, chargeID int64) error {
	endpoint := fmt.Sprintf("recurring_application_charges/%d.json", chargeID)
	_, err := c.Request(ctx, shopDomain, token, endpoint, http.MethodDelete, nil)
	return err
}

// GetShopInfo fetches the shop resource. Used as the lightweight token
// validation probe.
func (c *Client) GetShopInfo(ctx context.Context, shopDomain, token string) (*ShopInfo, error) {
	resp, err := c.Request(ctx, shopDomain, token, "shop.json", http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Shop *ShopInfo `json:"shop"`
	}
	if err := json.Unmarshal(resp.Data, &envelope); err != nil {
		return nil, &InvalidResponseError{Operation: "getShopInfo", Missing: "shop"}
	}
	if envelope.Shop == nil || envelope.Shop.ID == 0 {
		return nil, &InvalidResponseError{Operation: "getShopInfo", Missing: "shop.id"}
	}
	if envelope.Shop.MyshopifyDomain == "" {
		return nil, &InvalidResponseError{Operation: "getShopInfo", Missing: "shop.myshopify_domain"}
	}
	return envelope.Shop, nil
}
