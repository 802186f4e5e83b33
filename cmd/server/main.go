package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-calendar/internal/cache"
	"todo-calendar/internal/config"
	"todo-calendar/internal/database"
	"todo-calendar/internal/logging"
	"todo-calendar/internal/middleware"
	"todo-calendar/internal/models"
	"todo-calendar/internal/monitoring"
	"todo-calendar/internal/router"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", "err", err)
	}
	defer app.Close()

	go func() {
		logger.Info("listening", "addr", app.server.Addr, "env", cfg.Server.Environment)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}

type app struct {
	server *http.Server
	pool   *database.DatabasePool
	cache  cache.Cache
}

// newApp opens storage and builds the HTTP server. Background work such as
// rate limiter cleanup stops when ctx is cancelled.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		Logger:          logging.GormLogger(logger.WithPrefix("gorm"), 200*time.Millisecond),
	})
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(models.All()...); err != nil {
		pool.Close()
		return nil, err
	}

	var primary cache.Cache
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    "todo:",
		})
		if err := redisCache.Health(); err != nil {
			logger.Warn("redis unreachable, serving from memory until it recovers", "addr", cfg.GetRedisAddr(), "err", err)
		}
		primary = redisCache
	}
	store := cache.NewFallbackCache(primary, nil, logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
		go limiter.Run(ctx)
	}

	engine, err := router.New(router.Dependencies{
		Config:  cfg,
		Pool:    pool,
		Cache:   store,
		Logger:  logger,
		Monitor: monitoring.NewMonitor(),
		Limiter: limiter,
	})
	if err != nil {
		store.Close()
		pool.Close()
		return nil, err
	}

	return &app{
		server: &http.Server{
			Addr:         cfg.GetServerAddr(),
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		pool:  pool,
		cache: store,
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.cache.Close(), a.pool.Close())
}
