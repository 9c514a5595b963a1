package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/LinkFox/app/controllers"
)

func InstallRouter(app *fiber.App) {
	// Install HttpRouter first to initialize session store and the global
	// UserContext middleware. Then register API routes which depend on that
	// middleware. The public slug redirect goes last: it is a catch-all on
	// the root path and must not shadow any other route.
	setup(app, NewHttpRouter(), NewApiRouter())

	app.Get("/:slug", controllers.HandleLinkRedirect)
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
