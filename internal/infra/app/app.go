package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Paige668/memory-coach/internal/core/port"
	"github.com/Paige668/memory-coach/internal/infra/config"
	"github.com/Paige668/memory-coach/internal/infra/database"
	kafkainfra "github.com/Paige668/memory-coach/internal/infra/kafka"
	"github.com/Paige668/memory-coach/internal/infra/logger"
	"github.com/Paige668/memory-coach/internal/infra/notify"
	redisinfra "github.com/Paige668/memory-coach/internal/infra/redis"
	"github.com/Paige668/memory-coach/internal/infra/security"
	postgresrepo "github.com/Paige668/memory-coach/internal/repository/postgres"
	redisrepo "github.com/Paige668/memory-coach/internal/repository/redis"
	"github.com/Paige668/memory-coach/internal/transport/http/middleware"
	"github.com/Paige668/memory-coach/internal/transport/http/routes"
	"github.com/Paige668/memory-coach/internal/usecase"
	"github.com/Paige668/memory-coach/internal/worker"
)

// Application wires configuration, storage, services and transports together.
type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	pool       *pgxpool.Pool
	redis      *redisinfra.Client
	producer   *kafkainfra.Producer
	dispatcher *worker.Dispatcher
}

// New builds the application graph.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	sessionManager, err := security.NewSessionManager(cfg.Session.Secret, cfg.Session.Issuer)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init session manager: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	resetCodes := redisrepo.NewResetCodeRepository(redisClient.Client(), cfg.Redis.ResetCodePrefix)

	rateLimitTTL := cfg.Pin.SendWindow * 2
	if rateLimitTTL <= 0 {
		rateLimitTTL = 2 * time.Hour
	}
	rateLimits := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       rateLimitTTL,
	})

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	notifier := notify.NewRegistry(log)
	if cfg.SMTP.Host != "" {
		notifier.Register("email", notify.NewEmailSender(cfg.SMTP))
	} else {
		log.Warn("smtp host not configured, email delivery disabled")
	}
	if cfg.Telegram.BotToken != "" {
		telegramSender, err := notify.NewTelegramSender(cfg.Telegram.BotToken)
		if err != nil {
			log.Warn("failed to init telegram sender", zap.Error(err))
		} else {
			notifier.Register("telegram", telegramSender)
		}
	}

	pinService := usecase.NewPinService(cfg, repos.Users, rateLimits, notifier, eventPublisher, log)
	authService := usecase.NewAuthService(cfg, repos.Users, sessionManager, log)
	pinManagementService := usecase.NewPinManagementService(repos.Users, log)
	resetService := usecase.NewResetService(cfg, repos.Users, resetCodes, notifier, log)
	profileService := usecase.NewProfileService(repos.Users, log)
	reminderService := usecase.NewReminderService(cfg, repos.Reminders, repos.Users, notifier, eventPublisher, log)

	dispatcher := worker.NewDispatcher(reminderService, cfg.Reminder.DispatchInterval, log)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		log.Warn("failed to init http metrics", zap.Error(err))
		httpMetrics = nil
	}

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Database: pool,
		Cache:    redisClient,
		Metrics:  httpMetrics,
		Services: routes.ServiceSet{
			Pins:          pinService,
			Auth:          authService,
			PinManagement: pinManagementService,
			Reset:         resetService,
			Profiles:      profileService,
			Reminders:     reminderService,
		},
	})

	return &Application{
		cfg:        cfg,
		engine:     engine,
		logger:     log,
		pool:       pool,
		redis:      redisClient,
		producer:   producer,
		dispatcher: dispatcher,
	}, nil
}

// Run starts the HTTP server and the reminder dispatcher and blocks until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Warn("failed to close kafka producer", zap.Error(err))
			}
		}
	}()

	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	defer stopDispatcher()
	go a.dispatcher.Run(dispatcherCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting memory coach API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		stopDispatcher()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
