package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/infra/config"
	"github.com/Paige668/memory-coach/internal/transport/http/handlers"
	"github.com/Paige668/memory-coach/internal/transport/http/middleware"
	"github.com/Paige668/memory-coach/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Pins          *usecase.PinService
	Auth          *usecase.AuthService
	PinManagement *usecase.PinManagementService
	Reset         *usecase.ResetService
	Profiles      *usecase.ProfileService
	Reminders     *usecase.ReminderService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config   *config.AppConfig
	Logger   *zap.Logger
	Services ServiceSet
	Database DatabaseChecker
	Cache    CacheChecker
	Metrics  *middleware.HTTPMetrics
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	sessionMiddleware := middleware.RequireSession(deps.Services.Auth)

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(deps.Services.Pins, deps.Services.Auth)
		authHandler.RegisterRoutes(api.Group("/auth"))

		pinHandler := handlers.NewPinHandler(deps.Services.PinManagement)
		pinGroup := api.Group("/pin")
		pinGroup.Use(sessionMiddleware)
		pinHandler.RegisterRoutes(pinGroup)

		resetHandler := handlers.NewResetHandler(deps.Services.Reset)
		resetHandler.RegisterRoutes(pinGroup.Group("/reset"))

		profileHandler := handlers.NewProfileHandler(deps.Services.Profiles)
		profileGroup := api.Group("")
		profileGroup.Use(sessionMiddleware)
		profileHandler.RegisterRoutes(profileGroup)

		reminderHandler := handlers.NewReminderHandler(deps.Services.Reminders)
		reminderGroup := api.Group("/reminders")
		reminderGroup.Use(sessionMiddleware)
		reminderHandler.RegisterRoutes(reminderGroup)
	}

	return r
}
