// Package api exposes the reconciliation engine over HTTP.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"fundrecon/config"
	"fundrecon/pkg/compare"
	"fundrecon/pkg/readers"
	"fundrecon/pkg/table"
	"fundrecon/version"
)

// ServerOptions configure the HTTP server.
type ServerOptions struct {
	Port    string
	Prefork bool
}

// Server holds the Fiber app instance
type Server struct {
	app  *fiber.App
	opts ServerOptions
}

// compareRequest is the body of POST /compare: two CSV paths reachable by
// the server plus the comparison policy.
type compareRequest struct {
	File1            string   `json:"file1"`
	File2            string   `json:"file2"`
	Type             string   `json:"type"`
	KeyColumns       []string `json:"key_columns"`
	IgnoreColumns    []string `json:"ignore_columns"`
	FloatTolerance   *float64 `json:"float_tolerance"`
	IgnoreCase       bool     `json:"ignore_case"`
	IgnoreWhitespace *bool    `json:"ignore_whitespace"`
}

// NewServer initializes a new Fiber instance.
func NewServer(opts ServerOptions) *Server {
	app := fiber.New(fiber.Config{
		IdleTimeout:  10 * time.Second, // Prevents idle connections
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		Prefork:      opts.Prefork,
	})

	// Middleware
	app.Use(recover.New())     // Auto-recovers from panics
	app.Use(fiberlogger.New()) // Logs all requests

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "fundrecon API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Post("/compare", handleCompare)

	return &Server{app: app, opts: opts}
}

// handleCompare loads both CSV files and runs the engine, returning the
// summary and the headline anomalies.
func handleCompare(c *fiber.Ctx) error {
	var req compareRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.File1 == "" || req.File2 == "" {
		return fiber.NewError(fiber.StatusBadRequest, "file1 and file2 are required")
	}

	cfg := config.Default()
	cfg.KeyColumns = req.KeyColumns
	cfg.IgnoreColumns = req.IgnoreColumns
	cfg.IgnoreCase = req.IgnoreCase
	if req.FloatTolerance != nil {
		cfg.FloatTolerance = *req.FloatTolerance
	}
	if req.IgnoreWhitespace != nil {
		cfg.IgnoreWhitespace = *req.IgnoreWhitespace
	}

	typ := compare.Full
	if req.Type != "" {
		typ = compare.Type(req.Type)
	}

	comparator, err := compare.New(cfg)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	df1, err := loadCSV(c.Context(), req.File1)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	df2, err := loadCSV(c.Context(), req.File2)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	result, err := comparator.Compare(df1, df2, typ)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(fiber.Map{
		"comparison_type": result.ComparisonType,
		"summary":         result.Summary,
		"key_differences": compare.ExtractKeyDifferences(result),
	})
}

func loadCSV(ctx context.Context, path string) (*table.Table, error) {
	loader, err := readers.DefaultFactory.Create(readers.Config{Type: "csv", Path: path})
	if err != nil {
		return nil, err
	}
	defer loader.Close()
	return loader.Load(ctx)
}

// Start runs the Fiber server.
func (s *Server) Start() error {
	port := s.opts.Port
	if port == "" {
		port = "3000" // Default port
	}
	return s.app.Listen(":" + port)
}

// GetApp exposes the underlying Fiber app, mainly for tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
