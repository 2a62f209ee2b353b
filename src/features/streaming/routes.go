package streaming

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)
	app.Get("/tracks/:id/stream", handler.HandleTrackStream)
	app.Get("/albums/:id/cover", handler.HandleAlbumCover)
	app.Get("/artists/:id/image", handler.HandleArtistImage)
	app.Get("/artists/:id/background", handler.HandleArtistBackground)
}
