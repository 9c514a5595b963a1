package controllers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/ManuelReschke/LinkFox/internal/pkg/constants"
	"github.com/ManuelReschke/LinkFox/internal/pkg/usercontext"
)

// HandleBillingCharge creates a pending recurring charge for the current
// user. When no shop is connected yet the response tells the client to start
// the install flow first instead of failing.
func HandleBillingCharge(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}
	if billingService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Billing is not configured"})
	}

	intent, err := billingService.CreateCharge(c.Context(), userCtx.UserID)
	if err != nil {
		log.Printf("[Billing] msg=\"charge creation failed\" user_id=%d error=%v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_error", "message": "Could not create the charge"})
	}

	return c.JSON(intent)
}

// HandleBillingConfirm is the browser return URL after the merchant approved
// the charge in the Shopify admin.
func HandleBillingConfirm(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Redirect(constants.LoginRoute)
	}
	if billingService == nil {
		fm := fiber.Map{"type": "error", "message": "Billing is not configured."}
		return flash.WithError(c, fm).Redirect(constants.UserSettingsRoute)
	}

	chargeID, err := strconv.ParseInt(c.Query("charge_id"), 10, 64)
	if err != nil || chargeID <= 0 {
		fm := fiber.Map{"type": "error", "message": "Missing or invalid charge reference."}
		return flash.WithError(c, fm).Redirect(constants.UserSettingsRoute)
	}

	// The session decides whose subscription gets activated. A user_id query
	// parameter that disagrees with it is worth a trace in the logs.
	if q := c.Query("user_id"); q != "" && q != strconv.FormatUint(uint64(userCtx.UserID), 10) {
		log.Printf("[Billing] msg=\"user_id query parameter does not match session\" session_user_id=%d query_user_id=%s", userCtx.UserID, q)
	}

	if err := billingService.ConfirmCharge(c.Context(), userCtx.UserID, chargeID); err != nil {
		log.Printf("[Billing] msg=\"charge confirmation failed\" user_id=%d charge_id=%d error=%v", userCtx.UserID, chargeID, err)
		fm := fiber.Map{"type": "error", "message": "Activating the subscription failed. Please try again."}
		return flash.WithError(c, fm).Redirect(constants.UserSettingsRoute)
	}

	fm := fiber.Map{"type": "success", "message": "Subscription active."}
	return flash.WithSuccess(c, fm).Redirect(constants.UserSettingsRoute)
}

// HandleBillingCancel cancels the current subscription. The local state is
// always updated even when the remote cancellation fails.
func HandleBillingCancel(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Authentication required"})
	}
	if billingService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Billing is not configured"})
	}

	if err := billingService.Cancel(c.Context(), userCtx.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No subscription found"})
		}
		log.Printf("[Billing] msg=\"cancellation failed\" user_id=%d error=%v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Cancellation failed"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Subscription cancelled"})
}
