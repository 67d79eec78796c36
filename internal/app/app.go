package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"task-tracker/backend/internal/auth"
	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/security"
	"task-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const serviceName = "task-tracker"

// Application holds the wired dependencies of one server process.
type Application struct {
	cfg    *config.Config
	logger *slog.Logger

	pool    *database.DatabasePool
	cache   *cache.RedisCache
	monitor *monitoring.Monitor

	identity *services.IdentityService
	tasks    services.Tasks

	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: logging.New(logging.Config{
			Service: serviceName,
			Env:     cfg.Server.Environment,
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
		}),
		monitor: monitoring.NewMonitor(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.pool.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

func (app *Application) initDatabase() error {
	pool, err := database.NewDatabasePool(database.PoolConfigFrom(app.cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.pool = pool

	if err := database.Migrate(pool.DB); err != nil {
		_ = pool.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.monitor.RegisterHealthCheck("database", pool.HealthContext, true)
	app.monitor.RegisterStats("database", pool.Stats)
	app.logger.Info("database ready", "driver", app.cfg.Database.Driver)
	return nil
}

func (app *Application) initServices() error {
	secret, generated, err := auth.ResolveSecret(app.cfg.Auth.JWTSecret, app.cfg.IsProduction())
	if err != nil {
		return err
	}
	if generated {
		app.logger.Warn("JWT_SECRET not set, using a random per-process key; tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenManager(secret, app.cfg.Auth.AccessTokenTTL, app.cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	hasher, err := security.NewHasher(app.cfg.Auth.PasswordHasher, app.cfg.Auth.BCryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	timeout := app.cfg.Database.StoreTimeout
	app.identity = services.NewIdentityService(
		repositories.NewUserRepository(app.pool.DB, timeout),
		hasher,
		tokens,
	)

	var tasks services.Tasks = services.NewTaskService(repositories.NewTaskRepository(app.pool.DB, timeout))
	if app.cfg.Redis.Enabled {
		app.cache = cache.NewRedisCache(app.cacheConfig(), cache.NewCircuitBreaker(nil))
		app.monitor.RegisterHealthCheck("redis", app.cache.Health, false)
		app.monitor.RegisterStats("cache", app.cache.Stats)
		tasks = services.NewCachedTaskService(tasks, app.cache, app.cfg.Redis.TaskCacheTTL)
		app.logger.Info("task cache enabled", "addr", app.cfg.GetRedisAddr(), "ttl", app.cfg.Redis.TaskCacheTTL.String())
	}
	app.tasks = tasks
	return nil
}

func (app *Application) cacheConfig() *cache.CacheConfig {
	cc := cache.DefaultCacheConfig()
	cc.Addr = app.cfg.GetRedisAddr()
	cc.Password = app.cfg.Redis.Password
	cc.DB = app.cfg.Redis.DB
	cc.PoolSize = app.cfg.Redis.PoolSize
	cc.MinIdleConns = app.cfg.Redis.MinIdleConns
	cc.MaxRetries = app.cfg.Redis.MaxRetries
	cc.DialTimeout = app.cfg.Redis.DialTimeout
	cc.ReadTimeout = app.cfg.Redis.ReadTimeout
	cc.WriteTimeout = app.cfg.Redis.WriteTimeout
	return cc
}

func (app *Application) initHTTP() {
	if app.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app.router = handlers.NewRouter(handlers.RouterConfig{
		Logger:     app.logger,
		Identity:   app.identity,
		Tasks:      app.tasks,
		Monitor:    app.monitor,
		Env:        app.cfg.Server.Environment,
		CORSOrigin: app.cfg.Server.CORSOrigin,
	})

	app.server = &http.Server{
		Addr:         app.cfg.GetServerAddr(),
		Handler:      app.router,
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
	}
}

// Handler exposes the router for in-process tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run serves until SIGINT/SIGTERM or a server error, then shuts down.
func (app *Application) Run() error {
	app.logger.Info("task tracker starting", "addr", app.server.Addr)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig.String())
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}
	return nil
}

func (app *Application) Shutdown() error {
	app.logger.Info("shutting down task tracker")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
	defer cancel()

	if app.server != nil {
		if err := app.server.Shutdown(ctx); err != nil {
			app.logger.Error("graceful server shutdown failed", "error", err)
			_ = app.server.Close()
		}
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing cache", "error", err)
		}
	}

	if err := app.pool.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("task tracker stopped")
	return nil
}
