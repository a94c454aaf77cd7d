package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/merchkit/countdown/config"
	appmodel "github.com/merchkit/countdown/internal/app/model"
	apprepository "github.com/merchkit/countdown/internal/app/repository"
	appserver "github.com/merchkit/countdown/internal/app/server"
	appservice "github.com/merchkit/countdown/internal/app/service"
	"github.com/merchkit/countdown/internal/http/util"
	"github.com/merchkit/countdown/internal/infra/logger"
	infraNATS "github.com/merchkit/countdown/internal/infra/nats"
	infraPostgres "github.com/merchkit/countdown/internal/infra/postgres"
	infraPrometheus "github.com/merchkit/countdown/internal/infra/prometheus"
	infraRedis "github.com/merchkit/countdown/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	isDev := os.Getenv("APP_ENV") != "production"
	log := logger.MustInit(logger.Config{
		Development: isDev,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Configuration loaded successfully",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.String("postgres_db", cfg.Postgres.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.String("nats_host", cfg.NATS.Host),
		zap.Int("nats_port", cfg.NATS.Port),
	)

	gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to open GORM connection", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.Timer{}); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pool.Close()

	log.Info("Connected to Postgres successfully")

	redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis successfully")

	natsConn, js, err := infraNATS.Connect(cfg.NATS)
	if err != nil {
		log.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Drain()
	log.Info("Connected to NATS successfully", zap.Bool("jetstream_ready", js != nil))

	if !isDev {
		promServer := infraPrometheus.NewServer(cfg.Prometheus)
		go func() {
			log.Info("Starting Prometheus metrics server",
				zap.Int("port", cfg.Prometheus.Port))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Skipping Prometheus metrics server in development mode")
	}

	timerRepo := apprepository.NewTimerRepository(gormDB)

	filter := appservice.NewProductFilter(cfg.Cache.ExpectedProducts, 0.01)
	pairs, err := timerRepo.StoreProducts(ctx)
	if err != nil {
		log.Warn("Failed to seed product filter, serving without it", zap.Error(err))
		filter = nil
	} else {
		filter.Seed(pairs)
		log.Info("Product filter seeded", zap.Int("pairs", len(pairs)))
	}

	cache := appservice.NewActiveCache(redisClient, cfg.Cache.ActiveTTL, log)
	publisher := appservice.NewChangePublisher(js)

	timers := appservice.NewTimerService(appservice.Deps{
		Repo:      timerRepo,
		Cache:     cache,
		Filter:    filter,
		Publisher: publisher,
		Logger:    log,
	})

	consumer := appservice.NewChangeConsumer(js, log, cache, filter)
	if err := consumer.Start(); err != nil {
		log.Error("Failed to start timer change consumer", zap.Error(err))
	}

	sweeper := appservice.NewExpirySweeper(log, timerRepo, cfg.Sweep.Retention, cfg.Sweep.Interval)
	sweeper.Start()
	defer sweeper.Stop()

	sessions := util.NewSessionSigner([]byte(cfg.Session.Secret), cfg.Session.TTL)
	if cfg.Session.Secret == "" {
		log.Warn("SESSION_SECRET is not set; merchant sessions are disabled")
		sessions = nil
	}

	srv := appserver.New(appserver.Dependencies{
		Logger:    log,
		Postgres:  pool,
		Redis:     redisClient,
		NATS:      natsConn,
		JetStream: js,
		Timers:    timers,
		Sessions:  sessions,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("Fiber server exited", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down HTTP server cleanly", zap.Error(err))
		}
	}
}
