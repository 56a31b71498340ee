package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq" // PostgreSQL driver

	"docket/internal/config"
	"docket/internal/constants"
	"docket/internal/dedup"
	"docket/internal/delivery"
	"docket/internal/directory"
	"docket/internal/dispatch"
	"docket/internal/logger"
	"docket/internal/message"
	"docket/internal/preference"
	"docket/internal/recipient"
	"docket/pkg/bootstrap"
	"docket/pkg/circuitbreaker"
	"docket/pkg/health"
	"docket/pkg/metrics"
	"docket/pkg/middleware"
	"docket/pkg/models"
	"docket/pkg/ratelimit"
	"docket/pkg/tracing"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	base           *bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	redisClient    *redis.Client
	dispatcher     *dispatch.Service
	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	a.initPipeline()

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	if a.config.Broker.Enabled {
		if err := a.base.InitBroker("dispatch-service"); err != nil {
			return fmt.Errorf("failed to initialize broker: %w", err)
		}
	}

	tp, err := tracing.Init(a.config.Tracing, "dispatch-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		a.logger.WarnwCtx(ctx, "Redis connection failed, caches disabled", "error", err)
	} else {
		a.redisClient = redisClient
	}

	return nil
}

// initPipeline wires the dispatch pipeline bottom-up: directory lookups
// behind cache and breaker decorators, then dedup, message building,
// recipient resolution, preference evaluation and delivery routing.
func (a *App) initPipeline() {
	var dir directory.Directory = directory.NewPostgresDirectory(a.db)
	if a.redisClient != nil && a.config.Cache.Enabled {
		dir = directory.NewCachedDirectory(dir, a.redisClient, a.config.Cache.TTL, a.logger)
	}
	if a.config.CircuitBreaker.Enabled {
		dir = directory.NewBreakerDirectory(dir, a.breakerConfig("directory"))
	}

	guard := dedup.NewService(dedup.NewRepository(a.db), a.config.Dedup, a.logger)
	builder := message.NewBuilder(dir, a.logger)
	resolver := recipient.NewResolver(dir, a.logger)

	var prefsRepo preference.Repository = preference.NewPostgresRepository(a.db)
	if a.redisClient != nil && a.config.Cache.Enabled {
		prefsRepo = preference.NewCachedRepository(prefsRepo, a.redisClient, a.config.Cache.TTL, a.logger)
	}
	engine := preference.NewEngine(prefsRepo, a.logger)

	var provider delivery.Provider
	if a.config.Provider.APIKey != "" {
		provider = delivery.NewHTTPProvider(a.config.Provider, a.breakerConfig("push-provider"), a.logger)
		a.logger.Info("Push provider configured")
	} else {
		a.logger.Info("No push provider credential, using direct-write delivery")
	}

	store := delivery.NewPostgresNotificationStore(a.db)
	router := delivery.NewRouter(provider, engine, store, a.logger)

	a.dispatcher = dispatch.NewService(guard, builder, resolver, router, a.logger)
}

func (a *App) breakerConfig(name string) circuitbreaker.Config {
	cbCfg := circuitbreaker.DefaultConfig(name)
	if a.config.CircuitBreaker.MaxRequests > 0 {
		cbCfg.MaxRequests = a.config.CircuitBreaker.MaxRequests
	}
	if a.config.CircuitBreaker.Interval > 0 {
		cbCfg.Interval = a.config.CircuitBreaker.Interval
	}
	if a.config.CircuitBreaker.Timeout > 0 {
		cbCfg.Timeout = a.config.CircuitBreaker.Timeout
	}
	return cbCfg
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.config.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.config.RateLimit.RPS,
			Burst:           a.config.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		a.logger.InfowCtx(context.Background(), "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
		metrics.RegisterRateLimitMetrics()
	}

	handler := dispatch.NewHandler(a.dispatcher, a.logger)
	handler.RegisterRoutes(router)

	metrics.RegisterDispatchMetrics()
	metrics.RegisterCircuitBreakerMetrics()
	if a.config.Broker.Enabled {
		metrics.RegisterBrokerMetrics()
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router = router
	return nil
}

func (a *App) initServer() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.config.Server.WriteTimeoutSeconds,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		a.logger.InfowCtx(groupCtx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.config.Broker.Enabled && a.base.Consumer != nil {
		topic := a.config.Broker.Kafka.InputTopic
		if topic == "" {
			topic = constants.DefaultInputTopic
		}
		group.Go(func() error {
			a.logger.InfowCtx(groupCtx, "Consuming change events", "topic", topic)
			return a.base.Consumer.Consume(groupCtx, topic, func(msgCtx context.Context, event models.ChangeEvent) error {
				_, err := a.dispatcher.Process(msgCtx, event)
				return err
			})
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		return a.Shutdown(context.Background())
	})

	return group.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	errs = append(errs, a.base.ShutdownBroker()...)
	errs = append(errs, a.dbConnector.ShutdownDatabases(shutdownCtx, a.redisClient, a.db)...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
