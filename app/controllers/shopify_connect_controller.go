package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/LinkFox/internal/pkg/billing"
	"github.com/ManuelReschke/LinkFox/internal/pkg/constants"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shopify"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

// package level wiring for the Shopify controllers, set once at startup
var (
	shopifyCfg     *shopify.Config
	billingService *billing.Service
	tokenManager   *billing.TokenManager
	oauthHTTP      = &http.Client{Timeout: 15 * time.Second}
)

// InitializeShopifyControllers wires the Shopify configuration and billing
// service into the connect, billing and webhook handlers.
func InitializeShopifyControllers(cfg *shopify.Config, svc *billing.Service, tm *billing.TokenManager) {
	shopifyCfg = cfg
	billingService = svc
	tokenManager = tm

	secret := ""
	if cfg != nil {
		secret = cfg.WebhookSecret
	}
	shopifyWebhooks = NewShopifyWebhookController(svc, secret)
}

type installRequest struct {
	Shop string `json:"shop"`
}

// HandleShopifyInstall starts the OAuth install flow and returns the
// authorize URL the user has to visit on their shop.
func HandleShopifyInstall(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}
	if shopifyCfg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Shopify integration is not configured"})
	}

	var req installRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	installURL, err := shopify.BuildInstallURL(shopifyCfg, userCtx.UserID, req.Shop)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	return c.JSON(fiber.Map{"install_url": installURL})
}

// HandleShopifyCallback completes the OAuth flow. Shopify redirects the
// merchant's browser here with code, shop and the state we issued earlier.
func HandleShopifyCallback(c *fiber.Ctx) error {
	if shopifyCfg == nil || billingService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Shopify integration is not configured"})
	}

	state, err := shopify.DecodeInstallState(c.Query("state"), time.Now())
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Invalid or expired install request. Please start again."}
		return flash.WithError(c, fm).Redirect(constants.UserSettingsRoute)
	}

	shopDomain, err := shopify.NormalizeShopDomain(c.Query("shop"))
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Invalid shop domain."}
		return flash.WithError(c, fm).Redirect(constants.UserSettingsRoute)
	}

	token, err := shopify.ExchangeCode(c.Context(), shopifyCfg, oauthHTTP, shopDomain, c.Query("code"))
	if err != nil {
		log.Printf("[ShopifyCallback] msg=\"code exchange failed\" shop=%s error=%v", shopDomain, err)
		fm := fiber.Map{"type": "error", "message": "Connecting the shop failed. Please try again."}
		return flash.WithError(c, fm).Redirect(constants.UserSettingsRoute)
	}

	if _, err := billingService.ConnectShop(c.Context(), state.UserID, shopDomain, token); err != nil {
		log.Printf("[ShopifyCallback] msg=\"storing credentials failed\" shop=%s user_id=%d error=%v", shopDomain, state.UserID, err)
		fm := fiber.Map{"type": "error", "message": "Connecting the shop failed. Please try again."}
		return flash.WithError(c, fm).Redirect(constants.UserSettingsRoute)
	}

	fm := fiber.Map{"type": "success", "message": "Shop connected."}
	return flash.WithSuccess(c, fm).Redirect(constants.UserSettingsRoute)
}
