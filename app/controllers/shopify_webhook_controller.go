package controllers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shopify"
)

const (
	headerWebhookTopic     = "X-Shopify-Topic"
	headerWebhookShop      = "X-Shopify-Shop-Domain"
	headerWebhookSignature = "X-Shopify-Hmac-Sha256"
	headerWebhookID        = "X-Shopify-Webhook-Id"

	topicAppUninstalled = "app/uninstalled"
)

// webhookBillingService is the slice of the billing service the webhook
// handler needs. Narrow on purpose so tests can fake it.
type webhookBillingService interface {
	HasProcessedWebhook(ctx context.Context, webhookID string) (bool, error)
	HandleUninstall(ctx context.Context, shopDomain string) error
	RecordWebhookEvent(ctx context.Context, webhookID *string, shopDomain, topic, status, errorMessage string) (bool, error)
}

// ShopifyWebhookController ingests webhook deliveries from Shopify. It
// verifies the HMAC signature before trusting anything in the request, dedups
// deliveries via the ledger, and answers 500 on processing failures so
// Shopify redelivers.
type ShopifyWebhookController struct {
	svc    webhookBillingService
	secret string
}

var shopifyWebhooks *ShopifyWebhookController

func NewShopifyWebhookController(svc webhookBillingService, webhookSecret string) *ShopifyWebhookController {
	return &ShopifyWebhookController{svc: svc, secret: webhookSecret}
}

// HandleShopifyWebhook is the route entry point for the wired controller.
func HandleShopifyWebhook(c *fiber.Ctx) error {
	if shopifyWebhooks == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Webhook handling is not configured"})
	}
	return shopifyWebhooks.Handle(c)
}

// Handle processes a single webhook delivery.
func (wc *ShopifyWebhookController) Handle(c *fiber.Ctx) error {
	// Take a copy of the raw body: the signature covers the exact bytes on
	// the wire and fiber may reuse its buffer.
	body := make([]byte, len(c.Body()))
	copy(body, c.Body())

	topic := c.Get(headerWebhookTopic)
	shopHeader := c.Get(headerWebhookShop)
	signature := c.Get(headerWebhookSignature)
	webhookID := c.Get(headerWebhookID)

	if topic == "" || shopHeader == "" || signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing webhook headers"})
	}

	// Unverified deliveries are rejected without touching the ledger, an
	// attacker must not be able to occupy webhook IDs.
	if wc.secret == "" || !shopify.VerifyWebhookSignature(body, signature, wc.secret) {
		log.Printf("[ShopifyWebhook] msg=\"signature verification failed\" topic=%s shop=%s", topic, shopHeader)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Invalid webhook signature"})
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid webhook payload"})
	}

	shopDomain, err := shopify.NormalizeShopDomain(shopHeader)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid shop domain"})
	}

	ctx := c.Context()

	if webhookID != "" {
		seen, err := wc.svc.HasProcessedWebhook(ctx, webhookID)
		if err != nil {
			log.Printf("[ShopifyWebhook] msg=\"ledger lookup failed\" webhook_id=%s error=%v", webhookID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Webhook processing failed"})
		}
		if seen {
			return c.JSON(fiber.Map{"message": "already processed"})
		}
	}

	var idPtr *string
	if webhookID != "" {
		idPtr = &webhookID
	}

	if err := wc.dispatch(ctx, topic, shopDomain); err != nil {
		log.Printf("[ShopifyWebhook] msg=\"processing failed\" topic=%s shop=%s error=%v", topic, shopDomain, err)
		if _, recErr := wc.svc.RecordWebhookEvent(ctx, idPtr, shopDomain, topic, models.WebhookEventStatusFailed, err.Error()); recErr != nil {
			log.Printf("[ShopifyWebhook] msg=\"ledger write failed\" topic=%s shop=%s error=%v", topic, shopDomain, recErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Webhook processing failed"})
	}

	if _, err := wc.svc.RecordWebhookEvent(ctx, idPtr, shopDomain, topic, models.WebhookEventStatusProcessed, ""); err != nil {
		// The work itself succeeded. Failing the response now would make
		// Shopify redeliver a webhook we already handled.
		log.Printf("[ShopifyWebhook] msg=\"ledger write failed\" topic=%s shop=%s error=%v", topic, shopDomain, err)
	}

	return c.JSON(fiber.Map{"message": "ok"})
}

// dispatch routes a verified delivery to its handler. Unknown topics are
// acknowledged, Shopify must not redeliver topics we do not care about.
func (wc *ShopifyWebhookController) dispatch(ctx context.Context, topic, shopDomain string) error {
	switch topic {
	case topicAppUninstalled:
		return wc.svc.HandleUninstall(ctx, shopDomain)
	default:
		return nil
	}
}
