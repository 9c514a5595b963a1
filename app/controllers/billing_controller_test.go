package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/billing"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shopify"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

type fakeBillingRepo struct {
	merchant *models.Merchant // single-user fixture
}

func (f *fakeBillingRepo) GetMerchantByUserID(userID uint) (*models.Merchant, error) {
	if f.merchant != nil && f.merchant.UserID == userID {
		return f.merchant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBillingRepo) GetMerchantByShopDomain(string) (*models.Merchant, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBillingRepo) SaveShopCredentials(uint, string, string, int) (*models.Merchant, error) {
	return f.merchant, nil
}

func (f *fakeBillingRepo) ActivateSubscription(merchantID uint, chargeID int64, planName string) error {
	f.merchant.SubscriptionStatus = models.SubscriptionStatusActive
	f.merchant.ChargeID = &chargeID
	f.merchant.PlanName = planName
	return nil
}

func (f *fakeBillingRepo) CancelSubscription(uint) error {
	f.merchant.SubscriptionStatus = models.SubscriptionStatusCancelled
	f.merchant.ChargeID = nil
	return nil
}

func (f *fakeBillingRepo) MarkTokenInvalid(uint) error                { return nil }
func (f *fakeBillingRepo) UpdateTokenValidated(uint, time.Time) error { return nil }
func (f *fakeBillingRepo) RevokeToken(uint) error                     { return nil }
func (f *fakeBillingRepo) PurgeShopData(string) error                 { return nil }
func (f *fakeBillingRepo) HasWebhookEvent(string) (bool, error)       { return false, nil }
func (f *fakeBillingRepo) CreateWebhookEventIfNotExists(*models.ShopWebhookEvent) (bool, error) {
	return true, nil
}

type fakeBillingAPI struct{}

func (fakeBillingAPI) CreateRecurringCharge(_ context.Context, shopDomain, _ string, _ shopify.ChargeParams) (*shopify.RecurringCharge, error) {
	return &shopify.RecurringCharge{ID: 100, Status: "pending", ConfirmationURL: "https://" + shopDomain + "/admin/charges/confirm"}, nil
}

func (fakeBillingAPI) ActivateRecurringCharge(_ context.Context, _, _ string, chargeID int64) (*shopify.RecurringCharge, error) {
	return &shopify.RecurringCharge{ID: chargeID, Status: "active"}, nil
}

func (fakeBillingAPI) CancelRecurringCharge(context.Context, string, string, int64) error {
	return nil
}

func (fakeBillingAPI) GetShopInfo(_ context.Context, shopDomain, _ string) (*shopify.ShopInfo, error) {
	return &shopify.ShopInfo{ID: 1, MyshopifyDomain: shopDomain}, nil
}

func billingTestMerchant(userID uint) *models.Merchant {
	shop := "demo.myshopify.com"
	token := "shpat_test"
	chargeID := int64(100)
	return &models.Merchant{
		ID:                 1,
		UserID:             userID,
		ShopDomain:         &shop,
		AccessToken:        &token,
		TokenStatus:        models.TokenStatusActive,
		SubscriptionStatus: models.SubscriptionStatusActive,
		ChargeID:           &chargeID,
	}
}

func newBillingTestApp(t *testing.T, repo billing.Repository) *fiber.App {
	t.Helper()
	prev := billingService
	billingService = billing.NewService(repo, fakeBillingAPI{}, billing.PlanConfig{Name: "LinkFox Pro", Price: 9.99, TrialDays: 7, ReturnURL: "https://linkfox.test/billing/confirm"})
	t.Cleanup(func() { billingService = prev })

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{UserID: 1, Username: "tester", IsLoggedIn: true})
		return c.Next()
	})
	app.Post("/billing/cancel", HandleBillingCancel)
	app.Get("/billing/confirm", HandleBillingConfirm)
	return app
}

func TestBillingCancel_RespondsWithSuccessFlag(t *testing.T) {
	repo := &fakeBillingRepo{merchant: billingTestMerchant(1)}
	app := newBillingTestApp(t, repo)

	req := httptest.NewRequest("POST", "/billing/cancel", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, models.SubscriptionStatusCancelled, repo.merchant.SubscriptionStatus)
}

func TestBillingCancel_NoSubscription(t *testing.T) {
	app := newBillingTestApp(t, &fakeBillingRepo{})

	req := httptest.NewRequest("POST", "/billing/cancel", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestBillingConfirm_LogsUserIDMismatch(t *testing.T) {
	repo := &fakeBillingRepo{merchant: billingTestMerchant(1)}
	repo.merchant.SubscriptionStatus = models.SubscriptionStatusTrial
	repo.merchant.ChargeID = nil
	app := newBillingTestApp(t, repo)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	req := httptest.NewRequest("GET", "/billing/confirm?charge_id=100&user_id=99", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The session identity wins; the stray parameter only leaves a trace.
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Contains(t, buf.String(), "does not match session")
	assert.Equal(t, models.SubscriptionStatusActive, repo.merchant.SubscriptionStatus)
}
