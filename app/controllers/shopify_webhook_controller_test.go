package controllers

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shopify"
)

const testWebhookSecret = "whsec_test"

type recordedEvent struct {
	webhookID *string
	shop      string
	topic     string
	status    string
	errMsg    string
}

type fakeWebhookService struct {
	processed    map[string]bool
	uninstalls   []string
	uninstallErr error
	events       []recordedEvent
}

func newFakeWebhookService() *fakeWebhookService {
	return &fakeWebhookService{processed: make(map[string]bool)}
}

func (f *fakeWebhookService) HasProcessedWebhook(_ context.Context, webhookID string) (bool, error) {
	return f.processed[webhookID], nil
}

func (f *fakeWebhookService) HandleUninstall(_ context.Context, shopDomain string) error {
	if f.uninstallErr != nil {
		return f.uninstallErr
	}
	f.uninstalls = append(f.uninstalls, shopDomain)
	return nil
}

func (f *fakeWebhookService) RecordWebhookEvent(_ context.Context, webhookID *string, shopDomain, topic, status, errorMessage string) (bool, error) {
	f.events = append(f.events, recordedEvent{webhookID: webhookID, shop: shopDomain, topic: topic, status: status, errMsg: errorMessage})
	if webhookID != nil {
		if f.processed[*webhookID] {
			return false, nil
		}
		f.processed[*webhookID] = true
	}
	return true, nil
}

func newWebhookTestApp(svc *fakeWebhookService) *fiber.App {
	app := fiber.New()
	wc := NewShopifyWebhookController(svc, testWebhookSecret)
	app.Post("/webhooks/shopify", wc.Handle)
	return app
}

func doWebhook(t *testing.T, app *fiber.App, body []byte, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhooks/shopify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func signedHeaders(body []byte, topic, shop, webhookID string) map[string]string {
	h := map[string]string{
		"X-Shopify-Topic":       topic,
		"X-Shopify-Shop-Domain": shop,
		"X-Shopify-Hmac-Sha256": shopify.ComputeWebhookSignature(body, testWebhookSecret),
	}
	if webhookID != "" {
		h["X-Shopify-Webhook-Id"] = webhookID
	}
	return h
}

func TestWebhookMissingHeaders(t *testing.T) {
	svc := newFakeWebhookService()
	app := newWebhookTestApp(svc)

	body := []byte(`{}`)
	headers := signedHeaders(body, "app/uninstalled", "test-shop.myshopify.com", "wh-1")
	delete(headers, "X-Shopify-Hmac-Sha256")

	status := doWebhook(t, app, body, headers)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, svc.events)
}

func TestWebhookInvalidSignature(t *testing.T) {
	svc := newFakeWebhookService()
	app := newWebhookTestApp(svc)

	body := []byte(`{}`)
	headers := signedHeaders(body, "app/uninstalled", "test-shop.myshopify.com", "wh-1")
	headers["X-Shopify-Hmac-Sha256"] = shopify.ComputeWebhookSignature(body, "wrong-secret")

	status := doWebhook(t, app, body, headers)

	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Empty(t, svc.uninstalls)
	// forged deliveries must not reach the ledger
	assert.Empty(t, svc.events)
}

func TestWebhookMalformedBody(t *testing.T) {
	svc := newFakeWebhookService()
	app := newWebhookTestApp(svc)

	body := []byte(`{not json`)
	status := doWebhook(t, app, body, signedHeaders(body, "app/uninstalled", "test-shop.myshopify.com", "wh-1"))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, svc.events)
}

func TestWebhookInvalidShopDomain(t *testing.T) {
	svc := newFakeWebhookService()
	app := newWebhookTestApp(svc)

	body := []byte(`{}`)
	status := doWebhook(t, app, body, signedHeaders(body, "app/uninstalled", "evil.example.com", "wh-1"))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, svc.events)
}

func TestWebhookUninstallProcessed(t *testing.T) {
	svc := newFakeWebhookService()
	app := newWebhookTestApp(svc)

	body := []byte(`{"id":123}`)
	status := doWebhook(t, app, body, signedHeaders(body, "app/uninstalled", "test-shop.myshopify.com", "wh-1"))

	assert.Equal(t, fiber.StatusOK, status)
	require.Equal(t, []string{"test-shop.myshopify.com"}, svc.uninstalls)
	require.Len(t, svc.events, 1)
	assert.Equal(t, models.WebhookEventStatusProcessed, svc.events[0].status)
	assert.Equal(t, "app/uninstalled", svc.events[0].topic)
	require.NotNil(t, svc.events[0].webhookID)
	assert.Equal(t, "wh-1", *svc.events[0].webhookID)
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	svc := newFakeWebhookService()
	app := newWebhookTestApp(svc)

	body := []byte(`{"id":123}`)
	headers := signedHeaders(body, "app/uninstalled", "test-shop.myshopify.com", "wh-dup")

	first := doWebhook(t, app, body, headers)
	second := doWebhook(t, app, body, headers)

	assert.Equal(t, fiber.StatusOK, first)
	assert.Equal(t, fiber.StatusOK, second)
	// the second delivery short-circuits before dispatch and ledger write
	assert.Len(t, svc.uninstalls, 1)
	assert.Len(t, svc.events, 1)
}

func TestWebhookDispatchFailure(t *testing.T) {
	svc := newFakeWebhookService()
	svc.uninstallErr = errors.New("db down")
	app := newWebhookTestApp(svc)

	body := []byte(`{"id":123}`)
	status := doWebhook(t, app, body, signedHeaders(body, "app/uninstalled", "test-shop.myshopify.com", "wh-2"))

	assert.Equal(t, fiber.StatusInternalServerError, status)
	require.Len(t, svc.events, 1)
	assert.Equal(t, models.WebhookEventStatusFailed, svc.events[0].status)
	assert.Equal(t, "db down", svc.events[0].errMsg)
}

func TestWebhookUnknownTopicAcknowledged(t *testing.T) {
	svc := newFakeWebhookService()
	app := newWebhookTestApp(svc)

	body := []byte(`{"id":9}`)
	status := doWebhook(t, app, body, signedHeaders(body, "orders/create", "test-shop.myshopify.com", "wh-3"))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, svc.uninstalls)
	require.Len(t, svc.events, 1)
	assert.Equal(t, models.WebhookEventStatusProcessed, svc.events[0].status)
}

func TestWebhookWithoutWebhookID(t *testing.T) {
	svc := newFakeWebhookService()
	app := newWebhookTestApp(svc)

	body := []byte(`{"id":9}`)
	status := doWebhook(t, app, body, signedHeaders(body, "orders/create", "test-shop.myshopify.com", ""))

	assert.Equal(t, fiber.StatusOK, status)
	require.Len(t, svc.events, 1)
	assert.Nil(t, svc.events[0].webhookID)
}
