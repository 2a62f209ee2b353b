package streaming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fermata/src/features/metrics"
	"fermata/src/music"
	"github.com/gofiber/fiber/v2"
)

// Handler handles HTTP requests for the streaming feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new streaming handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleTrackStream serves a track's audio honoring the Range header.
// 200 for full content, 206 for a byte span, 404 when the track or its
// file is gone, 416 for a malformed or unsatisfiable range.
func (h *Handler) HandleTrackStream(c *fiber.Ctx) error {
	asset, err := h.service.ResolveTrack(c.Context(), c.Params("id"))
	if err != nil {
		return h.resolveError(c, AssetTrack, err)
	}

	rng, err := ParseRange(c.Get(fiber.HeaderRange), asset.Size)
	if err != nil {
		metrics.StreamRequests.WithLabelValues(string(AssetTrack), "416").Inc()
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", asset.Size))
		return c.SendStatus(fiber.StatusRequestedRangeNotSatisfiable)
	}

	reader, err := h.service.Open(asset, rng)
	if err != nil {
		slog.Error("HandleTrackStream: failed to open asset", "path", asset.Path, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}

	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, asset.MIMEType)
	c.Set(fiber.HeaderCacheControl, "no-cache")

	if rng == nil {
		metrics.StreamRequests.WithLabelValues(string(AssetTrack), "200").Inc()
		c.Status(fiber.StatusOK)
		return c.SendStream(reader, int(asset.Size))
	}

	metrics.StreamRequests.WithLabelValues(string(AssetTrack), "206").Inc()
	c.Status(fiber.StatusPartialContent)
	c.Set(fiber.HeaderContentRange, rng.ContentRange(asset.Size))
	return c.SendStream(reader, int(rng.Length()))
}

// HandleAlbumCover serves an album's cover image.
func (h *Handler) HandleAlbumCover(c *fiber.Ctx) error {
	return h.serveImage(c, AssetAlbumCover, h.service.ResolveAlbumCover)
}

// HandleArtistImage serves an artist's portrait image.
func (h *Handler) HandleArtistImage(c *fiber.Ctx) error {
	return h.serveImage(c, AssetArtistImage, h.service.ResolveArtistImage)
}

// HandleArtistBackground serves an artist's background image.
func (h *Handler) HandleArtistBackground(c *fiber.Ctx) error {
	return h.serveImage(c, AssetArtistBackground, h.service.ResolveArtistBackground)
}

// serveImage streams an image asset in full. Images never change once
// written, so they get an immutable cache policy.
func (h *Handler) serveImage(c *fiber.Ctx, kind AssetKind, resolve func(ctx context.Context, id string) (*Asset, error)) error {
	asset, err := resolve(c.Context(), c.Params("id"))
	if err != nil {
		return h.resolveError(c, kind, err)
	}

	reader, err := h.service.Open(asset, nil)
	if err != nil {
		slog.Error("serveImage: failed to open asset", "path", asset.Path, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}

	metrics.StreamRequests.WithLabelValues(string(kind), "200").Inc()
	c.Set(fiber.HeaderContentType, asset.MIMEType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.SendStream(reader, int(asset.Size))
}

func (h *Handler) resolveError(c *fiber.Ctx, kind AssetKind, err error) error {
	if errors.Is(err, music.ErrNotFound) {
		metrics.StreamRequests.WithLabelValues(string(kind), "404").Inc()
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	slog.Error("resolveError: catalog lookup failed", "kind", kind, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
}
