package indexing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// Handler handles HTTP requests for the indexing feature.
type Handler struct {
	service *Service
	watch   *WatchManager
}

// NewHandler creates a new indexing handler.
func NewHandler(service *Service, watch *WatchManager) *Handler {
	return &Handler{service: service, watch: watch}
}

// HandleStartIndex starts an indexing run and streams its progress as
// newline-delimited JSON until the terminal event. The run itself is a
// background job; a client that goes away mid-stream does not stop it.
func (h *Handler) HandleStartIndex(c *fiber.Ctx) error {
	events, err := h.service.Start()
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("HandleStartIndex: failed to start run", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		encoder := json.NewEncoder(w)
		for event := range events {
			if err := encoder.Encode(event); err != nil {
				h.service.Unsubscribe(events)
				return
			}
			if err := w.Flush(); err != nil {
				// Client went away; the run keeps going without us.
				h.service.Unsubscribe(events)
				return
			}
		}
	}))
	return nil
}

// HandleIndexStatus reports whether a run is active.
func (h *Handler) HandleIndexStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"running": h.service.Running()})
}

// HandleCancelIndex requests cancellation of the active run.
func (h *Handler) HandleCancelIndex(c *fiber.Ctx) error {
	if err := h.service.Cancel(); err != nil {
		if errors.Is(err, ErrNoRun) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "cancelling"})
}

// HandleWatcherStatus reports whether the media root watcher is enabled.
func (h *Handler) HandleWatcherStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"enabled": h.watch.Enabled()})
}

// HandleWatcherToggle flips the media root watcher on or off.
func (h *Handler) HandleWatcherToggle(c *fiber.Ctx) error {
	if h.watch.Enabled() {
		h.watch.Disable()
		return c.JSON(fiber.Map{"enabled": false})
	}
	// The watcher outlives this request, so it is not tied to its context.
	if err := h.watch.Enable(context.Background()); err != nil {
		slog.Error("HandleWatcherToggle: failed to enable watcher", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"enabled": true})
}
