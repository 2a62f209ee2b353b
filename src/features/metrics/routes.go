package metrics

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)
	app.Get("/stats/overview", handler.HandleOverview)
	app.Get("/metrics", PrometheusHandler())
}
