package library

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)
	lib := app.Group("/library")

	lib.Get("/tracks", handler.HandleListTracks)
	lib.Get("/tracks/count", handler.HandleTracksCount)
	lib.Get("/tracks/:id", handler.HandleGetTrack)
	lib.Get("/tracks/:id/plays", handler.HandleTrackPlays)

	lib.Get("/albums", handler.HandleListAlbums)
	lib.Get("/albums/count", handler.HandleAlbumsCount)
	lib.Get("/albums/:id", handler.HandleGetAlbum)

	lib.Get("/artists", handler.HandleListArtists)
	lib.Get("/artists/count", handler.HandleArtistsCount)
	lib.Get("/artists/:id", handler.HandleGetArtist)
}
