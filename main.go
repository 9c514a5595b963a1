package main

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/contrib/swagger"

	"github.com/ManuelReschke/LinkFox/app/controllers"
	"github.com/ManuelReschke/LinkFox/internal/pkg/billing"
	"github.com/ManuelReschke/LinkFox/internal/pkg/cache"
	"github.com/ManuelReschke/LinkFox/internal/pkg/database"
	"github.com/ManuelReschke/LinkFox/internal/pkg/env"
	"github.com/ManuelReschke/LinkFox/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/LinkFox/internal/pkg/router"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shopify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	app := NewApplication()

	// periodically move the Redis click counters into the database
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if err := counter.FlushAll(); err != nil {
				log.Printf("level=warn component=counter msg=\"flush failed\" err=%v", err)
			}
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	setupShopify()

	app := fiber.New(fiber.Config{
		BodyLimit: 1048576, // 1 MiB, JSON payloads only
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// setupShopify wires the Shopify client, billing service and token manager
// into the controllers. Without credentials the integration stays disabled
// and the rest of the app runs normally.
func setupShopify() {
	cfg, err := shopify.LoadConfigFromEnv()
	if err != nil {
		log.Printf("level=warn component=shopify msg=\"integration disabled\" err=%v", err)
		return
	}

	price, err := strconv.ParseFloat(env.GetEnv("BILLING_PLAN_PRICE", "9.99"), 64)
	if err != nil {
		price = 9.99
	}
	trialDays, err := strconv.Atoi(env.GetEnv("BILLING_TRIAL_DAYS", "7"))
	if err != nil {
		trialDays = 7
	}
	plan := billing.PlanConfig{
		Name:      env.GetEnv("BILLING_PLAN_NAME", "LinkFox Pro"),
		Price:     price,
		TrialDays: trialDays,
		ReturnURL: cfg.AppURL + "/billing/confirm",
		Test:      env.IsDev(),
	}

	client := shopify.NewClient(cfg.APIVersion)
	repo := billing.NewRepository(database.GetDB())
	svc := billing.NewService(repo, client, plan)
	tm := billing.NewTokenManager(repo, client)
	controllers.InitializeShopifyControllers(cfg, svc, tm)
}
