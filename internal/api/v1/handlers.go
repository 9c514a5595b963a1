package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/LinkFox/app/controllers"
)

// Pong is the response of the ping endpoint.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists every operation of the public v1 API.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetUserProfile(c *fiber.Ctx) error
	GetLinks(c *fiber.Ctx) error
	PostLink(c *fiber.Ctx) error
	GetLink(c *fiber.Ctx) error
	PutLink(c *fiber.Ctx) error
	DeleteLink(c *fiber.Ctx) error
	PostShopifyInstall(c *fiber.Ctx) error
	PostBillingCharge(c *fiber.Ctx) error
	PostBillingCancel(c *fiber.Ctx) error
}

// RegisterHandlers attaches all v1 operations to the given router group.
// Authentication middleware is applied by the caller per path prefix.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	router.Get("/ping", si.GetPing)

	router.Get("/user/profile", si.GetUserProfile)

	router.Get("/links", si.GetLinks)
	router.Post("/links", si.PostLink)
	router.Get("/links/:uuid", si.GetLink)
	router.Put("/links/:uuid", si.PutLink)
	router.Delete("/links/:uuid", si.DeleteLink)

	router.Post("/shopify/install", si.PostShopifyInstall)
	router.Post("/billing/charge", si.PostBillingCharge)
	router.Post("/billing/cancel", si.PostBillingCancel)
}

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetUserProfile returns account information for the authenticated user (API key).
// Security is enforced via API key middleware attached in the router.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// GetLinks lists the authenticated user's links.
func (s *APIServer) GetLinks(c *fiber.Ctx) error {
	return controllers.HandleLinkList(c)
}

// PostLink creates a new short link.
func (s *APIServer) PostLink(c *fiber.Ctx) error {
	return controllers.HandleLinkCreate(c)
}

// GetLink returns a single link by UUID.
func (s *APIServer) GetLink(c *fiber.Ctx) error {
	return controllers.HandleLinkGet(c)
}

// PutLink updates a link by UUID.
func (s *APIServer) PutLink(c *fiber.Ctx) error {
	return controllers.HandleLinkUpdate(c)
}

// DeleteLink removes a link by UUID.
func (s *APIServer) DeleteLink(c *fiber.Ctx) error {
	return controllers.HandleLinkDelete(c)
}

// PostShopifyInstall starts the Shopify OAuth install flow.
func (s *APIServer) PostShopifyInstall(c *fiber.Ctx) error {
	return controllers.HandleShopifyInstall(c)
}

// PostBillingCharge creates a pending recurring charge.
func (s *APIServer) PostBillingCharge(c *fiber.Ctx) error {
	return controllers.HandleBillingCharge(c)
}

// PostBillingCancel cancels the active subscription.
func (s *APIServer) PostBillingCancel(c *fiber.Ctx) error {
	return controllers.HandleBillingCancel(c)
}
