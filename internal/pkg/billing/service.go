package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ManuelReschke/LinkFox/app/models"
	"gorm.io/gorm"
)

// Service drives the recurring charge lifecycle against Shopify: create a
// pending charge, activate it after merchant approval, cancel it, and tear
// everything down on uninstall.
type Service struct {
	repo Repository
	api  ShopifyAPI
	plan PlanConfig
}

// NewService creates a billing service from an injected repository and API
// client.
func NewService(repo Repository, api ShopifyAPI, plan PlanConfig) *Service {
	return &Service{repo: repo, api: api, plan: plan}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, api ShopifyAPI, plan PlanConfig) *Service {
	return NewService(NewRepository(db), api, plan)
}

// ConnectShop persists the credentials obtained from a completed OAuth
// exchange and returns the merchant record.
func (s *Service) ConnectShop(ctx context.Context, userID uint, shopDomain, accessToken string) (*models.Merchant, error) {
	_ = ctx
	if userID == 0 || strings.TrimSpace(shopDomain) == "" || strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("user_id, shop_domain and access_token are required")
	}
	merchant, err := s.repo.SaveShopCredentials(userID, shopDomain, accessToken, s.plan.TrialDays)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=billing msg=\"shop connected\" user_id=%d shop=%s", userID, shopDomain)
	return merchant, nil
}

// CreateCharge creates a pending recurring charge for the user's connected
// shop. When no shop is connected the intent asks the caller to start the
// OAuth flow instead; no charge exists until the merchant confirms it on the
// returned URL.
func (s *Service) CreateCharge(ctx context.Context, userID uint) (*ChargeIntent, error) {
	if userID == 0 {
		return nil, errors.New("user_id is required")
	}

	merchant, err := s.repo.GetMerchantByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ChargeIntent{NeedsConnection: true}, nil
		}
		return nil, err
	}
	if !merchant.HasCredentials() {
		return &ChargeIntent{NeedsConnection: true}, nil
	}

	charge, err := s.api.CreateRecurringCharge(ctx, *merchant.ShopDomain, *merchant.AccessToken, shopifyChargeParams(s.plan))
	if err != nil {
		return nil, fmt.Errorf("failed to create recurring charge: %w", err)
	}

	return &ChargeIntent{
		ChargeID:        charge.ID,
		ConfirmationURL: charge.ConfirmationURL,
	}, nil
}

// ConfirmCharge activates a merchant-approved charge and flips the local
// subscription to active. Status and charge ID change together or not at all.
func (s *Service) ConfirmCharge(ctx context.Context, userID uint, chargeID int64) error {
	if userID == 0 || chargeID == 0 {
		return errors.New("user_id and charge_id are required")
	}

	merchant, err := s.repo.GetMerchantByUserID(userID)
	if err != nil {
		return err
	}
	if !merchant.HasCredentials() {
		return errors.New("no connected shop for user")
	}

	charge, err := s.api.ActivateRecurringCharge(ctx, *merchant.ShopDomain, *merchant.AccessToken, chargeID)
	if err != nil {
		return fmt.Errorf("failed to activate charge %d: %w", chargeID, err)
	}
	if charge.Status != "active" {
		return fmt.Errorf("charge %d not active after activation, status=%s", chargeID, charge.Status)
	}

	if err := s.repo.ActivateSubscription(merchant.ID, chargeID, s.plan.Name); err != nil {
		return err
	}
	log.Printf("level=info component=billing msg=\"subscription activated\" user_id=%d charge_id=%d", userID, chargeID)
	return nil
}

// Cancel ends the user's subscription. The remote cancellation is best
// effort: Shopify cancels charges itself on uninstall, so a failed remote
// call must not keep the local state alive.
func (s *Service) Cancel(ctx context.Context, userID uint) error {
	if userID == 0 {
		return errors.New("user_id is required")
	}

	merchant, err := s.repo.GetMerchantByUserID(userID)
	if err != nil {
		return err
	}

	if merchant.ChargeID != nil && merchant.HasCredentials() {
		if err := s.api.CancelRecurringCharge(ctx, *merchant.ShopDomain, *merchant.AccessToken, *merchant.ChargeID); err != nil {
			log.Printf("level=warn component=billing msg=\"remote charge cancellation failed\" user_id=%d charge_id=%d err=%v", userID, *merchant.ChargeID, err)
		}
	}

	return s.repo.CancelSubscription(merchant.ID)
}

// HandleUninstall purges billing state for the shop and revokes every token
// attached to it. Called from the app/uninstalled webhook; both halves are
// idempotent so redeliveries are safe.
func (s *Service) HandleUninstall(ctx context.Context, shopDomain string) error {
	_ = ctx
	if strings.TrimSpace(shopDomain) == "" {
		return errors.New("shop_domain is required")
	}

	if err := s.repo.PurgeShopData(shopDomain); err != nil {
		return fmt.Errorf("failed to purge shop data for %s: %w", shopDomain, err)
	}

	merchant, err := s.repo.GetMerchantByShopDomain(shopDomain)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No live token left for the shop, nothing to revoke.
			return nil
		}
		return err
	}
	if err := s.repo.RevokeToken(merchant.ID); err != nil {
		return fmt.Errorf("failed to revoke token for %s: %w", shopDomain, err)
	}

	log.Printf("level=info component=billing msg=\"shop uninstalled\" shop=%s", shopDomain)
	return nil
}

// RecordWebhookEvent appends a processing result to the webhook ledger and
// reports whether the row was newly created.
func (s *Service) RecordWebhookEvent(ctx context.Context, webhookID *string, shopDomain, topic, status, errorMessage string) (bool, error) {
	_ = ctx
	event := &models.ShopWebhookEvent{
		WebhookID:    webhookID,
		ShopDomain:   shopDomain,
		Topic:        topic,
		Status:       status,
		ErrorMessage: errorMessage,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// HasProcessedWebhook reports whether a webhook delivery was already handled.
func (s *Service) HasProcessedWebhook(ctx context.Context, webhookID string) (bool, error) {
	_ = ctx
	if strings.TrimSpace(webhookID) == "" {
		return false, nil
	}
	return s.repo.HasWebhookEvent(webhookID)
}
