package library

import (
	"errors"
	"log/slog"
	"time"

	"fermata/src/music"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Handler handles HTTP requests for the library feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new library handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type trackView struct {
	ID       string  `json:"id"`
	Path     string  `json:"path"`
	Filename string  `json:"filename"`
	Title    string  `json:"title,omitempty"`
	Artist   string  `json:"artist,omitempty"`
	AlbumID  string  `json:"albumId,omitempty"`
	Genre    string  `json:"genre,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	MIMEType string  `json:"mimeType"`
	Added    string  `json:"addedDate"`
	Modified string  `json:"modifiedDate"`
}

func trackViewOf(track *music.Track) trackView {
	return trackView{
		ID:       track.ID,
		Path:     track.Path,
		Filename: track.Filename,
		Title:    track.Title,
		Artist:   track.Artist,
		AlbumID:  track.AlbumID,
		Genre:    track.Genre,
		Duration: track.Duration,
		MIMEType: track.MIMEType,
		Added:    track.AddedDate.Format(time.RFC3339),
		Modified: track.ModifiedDate.Format(time.RFC3339),
	}
}

type albumView struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Year     int    `json:"year,omitempty"`
	HasCover bool   `json:"hasCover"`
}

func albumViewOf(album *music.Album) albumView {
	return albumView{
		ID:       album.ID,
		Title:    album.Title,
		Artist:   album.Artist,
		Year:     album.Year,
		HasCover: album.CoverPath != "",
	}
}

type artistView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	HasImage      bool   `json:"hasImage"`
	HasBackground bool   `json:"hasBackground"`
}

func artistViewOf(artist *music.Artist) artistView {
	return artistView{
		ID:            artist.ID,
		Name:          artist.Name,
		HasImage:      artist.ImagePath != "",
		HasBackground: artist.BackgroundPath != "",
	}
}

// pagination reads page/limit query params; pages are 1-based.
func pagination(c *fiber.Ctx) (limit, offset int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, (page - 1) * limit
}

func (h *Handler) HandleListTracks(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	tracks, total, err := h.service.GetTracksPaginated(c.Context(), limit, offset)
	if err != nil {
		return h.serverError(c, err)
	}
	views := make([]trackView, 0, len(tracks))
	for _, track := range tracks {
		views = append(views, trackViewOf(track))
	}
	return c.JSON(fiber.Map{"tracks": views, "total": total})
}

func (h *Handler) HandleGetTrack(c *fiber.Ctx) error {
	track, err := h.service.GetTrack(c.Context(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(trackViewOf(track))
}

func (h *Handler) HandleTracksCount(c *fiber.Ctx) error {
	count, err := h.service.GetTracksCount(c.Context())
	if err != nil {
		return h.serverError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *Handler) HandleTrackPlays(c *fiber.Ctx) error {
	plays, err := h.service.GetPlayCount(c.Context(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(fiber.Map{"plays": plays})
}

func (h *Handler) HandleListAlbums(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	albums, total, err := h.service.GetAlbumsPaginated(c.Context(), limit, offset)
	if err != nil {
		return h.serverError(c, err)
	}
	views := make([]albumView, 0, len(albums))
	for _, album := range albums {
		views = append(views, albumViewOf(album))
	}
	return c.JSON(fiber.Map{"albums": views, "total": total})
}

func (h *Handler) HandleGetAlbum(c *fiber.Ctx) error {
	album, err := h.service.GetAlbum(c.Context(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(albumViewOf(album))
}

func (h *Handler) HandleAlbumsCount(c *fiber.Ctx) error {
	count, err := h.service.GetAlbumsCount(c.Context())
	if err != nil {
		return h.serverError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *Handler) HandleListArtists(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	artists, total, err := h.service.GetArtistsPaginated(c.Context(), limit, offset)
	if err != nil {
		return h.serverError(c, err)
	}
	views := make([]artistView, 0, len(artists))
	for _, artist := range artists {
		views = append(views, artistViewOf(artist))
	}
	return c.JSON(fiber.Map{"artists": views, "total": total})
}

func (h *Handler) HandleGetArtist(c *fiber.Ctx) error {
	artist, err := h.service.GetArtist(c.Context(), c.Params("id"))
	if err != nil {
		return h.lookupError(c, err)
	}
	return c.JSON(artistViewOf(artist))
}

func (h *Handler) HandleArtistsCount(c *fiber.Ctx) error {
	count, err := h.service.GetArtistsCount(c.Context())
	if err != nil {
		return h.serverError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *Handler) lookupError(c *fiber.Ctx, err error) error {
	if errors.Is(err, music.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	return h.serverError(c, err)
}

func (h *Handler) serverError(c *fiber.Ctx, err error) error {
	slog.Error("library request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
