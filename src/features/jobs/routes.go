package jobs

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, service *Service, admin fiber.Handler) {
	handler := NewHandler(service)
	jobs := app.Group("/jobs")
	jobs.Get("/", handler.HandleListJobs)
	jobs.Post("/cleanup", admin, handler.HandleCleanupJobs)
	jobs.Get("/:id", handler.HandleJobStatus)
	jobs.Get("/:id/logs", handler.HandleJobLogs)
	jobs.Post("/:id/cancel", admin, handler.HandleCancelJob)
}
