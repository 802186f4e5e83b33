// Package router wires repositories, services and handlers into the gin
// engine served by cmd/server.
package router

import (
	"context"
	"errors"
	"slices"
	"time"

	"todo-calendar/internal/cache"
	"todo-calendar/internal/config"
	"todo-calendar/internal/database"
	"todo-calendar/internal/handlers"
	"todo-calendar/internal/logging"
	"todo-calendar/internal/middleware"
	"todo-calendar/internal/monitoring"
	"todo-calendar/internal/repositories"
	"todo-calendar/internal/services"
	"todo-calendar/internal/web"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Config *config.Config
	Pool   *database.DatabasePool
	// Cache backs login throttling and token revocation. Nil disables both.
	Cache   cache.Cache
	Logger  *log.Logger
	Monitor *monitoring.Monitor
	// Limiter is applied to every route when set.
	Limiter *middleware.RateLimiter
}

func New(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil || deps.Pool == nil || deps.Pool.DB == nil {
		return nil, errors.New("router: config and database pool are required")
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Monitor == nil {
		deps.Monitor = monitoring.NewMonitor()
	}

	cfg := deps.Config
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	templates, err := web.Templates()
	if err != nil {
		return nil, err
	}

	db := deps.Pool.DB
	userRepository := repositories.NewUserRepository()
	taskRepository := repositories.NewTaskRepository()

	authService := services.NewAuthService(userRepository, deps.Cache, services.AuthOptions{
		Secret:        []byte(cfg.Auth.JWTSecret),
		TokenTTL:      cfg.Auth.AccessTokenTTL,
		MaxFailures:   cfg.Auth.LoginMaxFailures,
		LockoutWindow: cfg.Auth.LoginLockout,
	})
	registerService := services.NewRegisterService(userRepository, cfg.Auth.BCryptCost)
	taskService := services.NewTaskService(taskRepository, loc)
	dashboardService := services.NewDashboardService(userRepository, taskRepository, loc)

	pageHandler := handlers.NewPageHandler(db, dashboardService, taskService)
	registerHandler := handlers.NewRegisterHandler(db, registerService)
	taskHandler := handlers.NewTaskHandler(db, taskService)
	authHandler := handlers.NewAuthHandler(authService)
	authn := middleware.NewAuthenticator(db, authService, userRepository, cfg.Auth.Realm)

	monitor := deps.Monitor
	monitor.RegisterHealthCheck("database", deps.Pool.HealthContext)
	monitor.RegisterStats("database", deps.Pool.Stats)
	if deps.Cache != nil {
		store := deps.Cache
		monitor.RegisterHealthCheck("cache", func(context.Context) error { return store.Health() })
		monitor.RegisterStats("cache", store.Stats)
	}

	r := gin.New()
	r.SetHTMLTemplate(templates)
	r.Use(middleware.RecoveryWithLog())
	r.Use(middleware.RequestID())
	r.Use(logging.RequestLogger(deps.Logger))
	r.Use(monitor.Middleware())
	r.Use(cors.New(corsConfig(cfg.CORS)))
	if deps.Limiter != nil {
		r.Use(deps.Limiter.Middleware())
	}

	r.GET("/healthz", monitor.HealthHandler())
	r.GET("/readyz", monitor.ReadinessHandler())
	r.GET("/livez", monitor.LivenessHandler())
	r.GET("/metrics", monitor.MetricsHandler())

	r.GET("/", pageHandler.Index)
	r.GET("/register", registerHandler.Form)
	r.POST("/register", registerHandler.Registration)

	protected := r.Group("/", authn.Require(middleware.SchemeAny))
	{
		protected.GET("/admin", pageHandler.Admin)
		protected.GET("/todo/:username/:year/:month/:day", pageHandler.Detail)
		protected.POST("/done", taskHandler.MarkDone)
		protected.POST("/add", taskHandler.Add)
		protected.GET("/delete/:id", taskHandler.Delete)
		protected.GET("/get", taskHandler.GetTasks)
		protected.POST("/add_task", taskHandler.CreateTask)
	}

	r.POST("/token", authn.Require(middleware.SchemeBasic), authHandler.Token)
	r.POST("/logout", authn.Require(middleware.SchemeBearer), authHandler.Logout)

	return r, nil
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        c.MaxAge,
	}
	if len(c.AllowedOrigins) == 0 || slices.Contains(c.AllowedOrigins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	if cc.MaxAge <= 0 {
		cc.MaxAge = 12 * time.Hour
	}
	return cc
}
