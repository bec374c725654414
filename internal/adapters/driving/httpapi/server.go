// Package httpapi exposes the assistant over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
	"github.com/custodia-labs/troubleshoot/internal/logger"
)

// AppName is reported by the health endpoint.
const AppName = "troubleshoot"

// DefaultBodyLimit bounds uploads.
const DefaultBodyLimit = 64 << 20

// Config configures the HTTP server.
type Config struct {
	Version   string
	BodyLimit int
}

// Server serves the HTTP API.
type Server struct {
	app       *fiber.App
	assistant driving.AssistantService
	ingest    driving.IngestService
	validate  *validator.Validate
	version   string
}

// New creates the server and registers its routes. The ingest service is
// optional; without it the document routes are not registered.
func New(assistant driving.AssistantService, ingest driving.IngestService, cfg Config) *Server {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	s := &Server{
		assistant: assistant,
		ingest:    ingest,
		validate:  validator.New(),
		version:   cfg.Version,
	}

	s.app = fiber.New(fiber.Config{
		AppName:      AppName,
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  30 * time.Second,
		ErrorHandler: errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
	}))
	s.app.Use(requestLogger)

	s.Register(s.app)
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

// Register sets up the API routes.
func (s *Server) Register(router fiber.Router) {
	api := router.Group("/api/v1")

	api.Get("/health", s.Health)
	api.Post("/retrieve", s.Retrieve)
	api.Post("/ask", s.Ask)
	api.Post("/summarize", s.Summarize)
	api.Get("/tables/search", s.SearchTables)

	if s.ingest != nil {
		api.Get("/documents", s.ListDocuments)
		api.Post("/documents", s.UploadDocument)
		api.Delete("/documents/:name", s.RemoveDocument)
	}
}

func requestLogger(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	logger.Debug("%s %s %d (%s)", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start))
	return err
}

// errorHandler maps domain errors to HTTP status codes.
func errorHandler(c fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Warn("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrUnsupportedType):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrIngestionFailure):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEmbeddingFailure), errors.Is(err, domain.ErrGenerationBackend):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
