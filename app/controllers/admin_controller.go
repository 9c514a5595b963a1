package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/repository"
	"github.com/ManuelReschke/LinkFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/LinkFox/internal/pkg/statistics"
)

// AdminController serves the JSON admin endpoints: platform statistics and
// the Redis queue monitor.
type AdminController struct {
	queueRepo repository.QueueRepository
}

var adminController *AdminController

// InitializeAdminController wires the admin controller with repositories.
func InitializeAdminController() {
	adminController = &AdminController{
		queueRepo: repository.GetGlobalFactory().GetQueueRepository(),
	}
}

// HandleAdminStats returns the cached platform statistics.
func HandleAdminStats(c *fiber.Ctx) error {
	stats := statistics.GetStatisticsData()
	return c.JSON(fiber.Map{
		"total_users":  stats.TotalUsers,
		"total_links":  stats.TotalLinks,
		"total_clicks": stats.TotalClicks,
		"today_links":  stats.TodayLinks,
	})
}

// HandleAdminQueuesData lists all Redis keys with value preview and TTL.
func HandleAdminQueuesData(c *fiber.Ctx) error {
	if adminController == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Admin controller not initialized"})
	}

	keys, err := adminController.queueRepo.GetAllKeys()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to list keys"})
	}

	items := make([]fiber.Map, 0, len(keys))
	for _, key := range keys {
		value, _ := adminController.queueRepo.GetValue(key)
		ttl, _ := adminController.queueRepo.GetTTL(key)
		items = append(items, fiber.Map{
			"key":   key,
			"value": value,
			"ttl":   ttl.Seconds(),
		})
	}

	return c.JSON(fiber.Map{"keys": items, "total": len(items)})
}

// HandleAdminQueueDelete removes a single Redis key.
func HandleAdminQueueDelete(c *fiber.Ctx) error {
	if adminController == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Admin controller not initialized"})
	}

	key := c.Params("key")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing key"})
	}

	deleted, err := adminController.queueRepo.DeleteKey(key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete key"})
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}

// HandleAdminFlushCounters forces the click counters to be written to the
// database immediately instead of waiting for the next flush interval.
func HandleAdminFlushCounters(c *fiber.Ctx) error {
	if err := counter.FlushAll(); err != nil {
		log.Printf("[Admin] msg=\"counter flush failed\" error=%v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Counter flush failed"})
	}
	return c.JSON(fiber.Map{"message": "counters flushed"})
}
