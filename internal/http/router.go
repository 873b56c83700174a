package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"

	"subsidyscout/internal/analyzer"
	"subsidyscout/internal/config"
	"subsidyscout/internal/metrics"
)

type Server struct {
	app      *fiber.App
	config   *config.Config
	analyzer analyzer.Analyzer
	redis    *redis.Client
	logger   *slog.Logger

	llmProvider string
	llmModel    string
}

type Option func(*Server)

// WithRedis uses rdb for rate limiting and deep health checks instead of
// a client built from the config.
func WithRedis(rdb *redis.Client) Option {
	return func(s *Server) { s.redis = rdb }
}

// WithLLMIdentity records which provider and model serve the analyses,
// for request logs.
func WithLLMIdentity(provider, model string) Option {
	return func(s *Server) {
		s.llmProvider = provider
		s.llmModel = model
	}
}

func NewServer(cfg *config.Config, an analyzer.Analyzer, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			// Analyses routinely take longer than fasthttp's defaults allow.
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
		}),
		config:   cfg,
		analyzer: an,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}

	// Redis client for rate limiting and health checks
	if s.redis == nil && cfg.Redis.URL != "" {
		if opt, err := redis.ParseURL(cfg.Redis.URL); err == nil {
			s.redis = redis.NewClient(opt)
		} else if logger != nil {
			logger.Warn("invalid redis url, rate limiting disabled", "error", err)
		}
	}

	s.app.Use(requestLogMiddleware(logger))

	s.app.Get("/healthz", s.healthHandler)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	v1 := s.app.Group("/v1", rateLimitMiddleware(cfg, s.redis))
	v1.Post("/analyze", s.analyzeHandler)

	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	if s.logger != nil {
		s.logger.Info("listening", "addr", addr)
	}
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for running analyses
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if s.redis != nil {
		_ = s.redis.Close()
	}
	return err
}
