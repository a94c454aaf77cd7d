package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/merchkit/countdown/internal/app/service"
	inthttp "github.com/merchkit/countdown/internal/http/handler"
	"github.com/merchkit/countdown/internal/http/middleware"
	"github.com/merchkit/countdown/internal/http/util"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
type Dependencies struct {
	Logger    *zap.Logger
	Postgres  *pgxpool.Pool
	Redis     *redis.Client
	NATS      *nats.Conn
	JetStream nats.JetStreamContext
	Timers    service.TimerService
	Sessions  *util.SessionSigner
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.CORS())
	s.app.Use(middleware.Session(s.deps.Sessions, s.deps.Logger))
}

func (s *Server) registerRoutes() {
	var limiter fiber.Handler
	if s.deps.Redis != nil {
		limiter = middleware.RateLimit(s.deps.Redis, middleware.StorefrontRateLimitConfig(), s.deps.Logger)
	}

	storefrontHandler := inthttp.NewStorefrontHandler(inthttp.StorefrontDeps{
		Logger:    s.deps.Logger,
		Timers:    s.deps.Timers,
		Pool:      s.deps.Postgres,
		RateLimit: limiter,
	})
	storefrontHandler.Register(s.app)

	adminHandler := inthttp.NewAdminHandler(inthttp.AdminDeps{
		Logger: s.deps.Logger,
		Timers: s.deps.Timers,
	})
	adminHandler.Register(s.app)
}
