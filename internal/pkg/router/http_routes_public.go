package router

import (
	"github.com/ManuelReschke/LinkFox/app/controllers"
	"github.com/ManuelReschke/LinkFox/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Shopify OAuth return leg. The browser arrives here from the shop's
	// authorize page, outside of any CSRF-protected form flow.
	app.Get("/shopify/callback", controllers.HandleShopifyCallback)

	// Platform webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/shopify", controllers.HandleShopifyWebhook)
}
