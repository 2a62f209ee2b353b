package hosting

import (
	"fmt"
	"log/slog"

	"fermata/src/features/auth"
	"fermata/src/features/config"
	"fermata/src/features/indexing"
	"fermata/src/features/jobs"
	"fermata/src/features/library"
	"fermata/src/features/metrics"
	"fermata/src/features/streaming"
	"github.com/gofiber/fiber/v2"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server and registers all feature routes.
func NewServer(
	cfg *config.Manager,
	authService *auth.Service,
	indexingService *indexing.Service,
	watchManager *indexing.WatchManager,
	streamingService *streaming.Service,
	libraryService *library.Service,
	metricsService *metrics.Service,
	jobService *jobs.Service,
) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
		AppName:               "Fermata",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
		// Streams are delivered chunk by chunk; responses are never
		// buffered whole, so the body limit only guards request bodies.
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	admin := authService.RequireAdmin()

	indexing.RegisterRoutes(app, indexingService, watchManager, admin)
	streaming.RegisterRoutes(app, streamingService)
	library.RegisterRoutes(app, libraryService)
	metrics.RegisterRoutes(app, metricsService)
	jobs.RegisterRoutes(app, jobService, admin)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}
