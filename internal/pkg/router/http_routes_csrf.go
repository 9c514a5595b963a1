package router

import (
	"strings"
	"time"

	"github.com/ManuelReschke/LinkFox/app/controllers"
	"github.com/ManuelReschke/LinkFox/internal/pkg/env"
	"github.com/ManuelReschke/LinkFox/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			// API routes and webhooks authenticate without cookies
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Post("/login", loggedInMiddleware, controllers.HandleAuthLogin)
	group.Post("/register", loggedInMiddleware, controllers.HandleAuthRegister)
	group.Get("/activate", loggedInMiddleware, controllers.HandleAuthActivate)

	group.Get("/user/profile", middleware.RequireAuth, controllers.HandleGetUserAccount)
	group.Post("/user/settings/api-key", middleware.RequireAuth, controllers.HandleUserAPIKeyGenerate)
	group.Post("/user/settings/api-key/revoke", middleware.RequireAuth, controllers.HandleUserAPIKeyRevoke)

	// Link management for the web session
	group.Get("/user/links", middleware.RequireAuth, controllers.HandleLinkList)
	group.Post("/user/links", middleware.RequireAuth, controllers.HandleLinkCreate)
	group.Get("/user/links/:uuid", middleware.RequireAuth, controllers.HandleLinkGet)
	group.Post("/user/links/update/:uuid", middleware.RequireAuth, controllers.HandleLinkUpdate)
	group.Post("/user/links/delete/:uuid", middleware.RequireAuth, controllers.HandleLinkDelete)

	// Shopify connect + billing (browser flows)
	group.Post("/user/shopify/install", middleware.RequireAuth, controllers.HandleShopifyInstall)
	group.Get("/billing/confirm", middleware.RequireAuth, controllers.HandleBillingConfirm)
	group.Post("/billing/cancel", middleware.RequireAuth, controllers.HandleBillingCancel)
}
