package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/reslide/pkg/domain/interfaces"
	"github.com/m-mizutani/reslide/pkg/infra/canvas/memory"
)

// CanvasFactory creates the canvas one request reconstructs onto
type CanvasFactory func() (interfaces.Canvas, error)

// config holds internal HTTP server configuration
type config struct {
	addr          string
	maxUploadSize int64
	sharedSecret  string
	newCanvas     CanvasFactory
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithMaxUploadSize limits the request body of /rebuild
func WithMaxUploadSize(n int64) Option {
	return func(c *config) {
		c.maxUploadSize = n
	}
}

// WithSharedSecret requires an X-Reslide-Signature-256 header on /rebuild
func WithSharedSecret(secret string) Option {
	return func(c *config) {
		c.sharedSecret = secret
	}
}

// WithCanvasFactory replaces the per-request in-memory canvas
func WithCanvasFactory(f CanvasFactory) Option {
	return func(c *config) {
		c.newCanvas = f
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	rebuildUC interfaces.RebuildUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:          "localhost:8080",
		maxUploadSize: 64 << 20,
		newCanvas: func() (interfaces.Canvas, error) {
			return memory.New(), nil
		},
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Reconstruction endpoint
	rebuildHandler := NewRebuildHandler(rebuildUC, cfg)
	router.Post("/rebuild", rebuildHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
