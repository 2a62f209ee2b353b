package indexing

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, service *Service, watch *WatchManager, admin fiber.Handler) {
	handler := NewHandler(service, watch)
	index := app.Group("/index")
	index.Post("/", admin, handler.HandleStartIndex)
	index.Post("/cancel", admin, handler.HandleCancelIndex)
	index.Get("/status", handler.HandleIndexStatus)
	index.Get("/watcher", handler.HandleWatcherStatus)
	index.Post("/watcher/toggle", admin, handler.HandleWatcherToggle)
}
