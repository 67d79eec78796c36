package handlers

import (
	"log/slog"
	"strings"
	"time"

	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Authority signs users up and in and resolves their bearer tokens.
type Authority interface {
	Identity
	middleware.Authenticator
}

type RouterConfig struct {
	Logger     *slog.Logger
	Identity   Authority
	Tasks      services.Tasks
	Monitor    *monitoring.Monitor
	Env        string
	CORSOrigin string
}

// NewRouter mounts the public auth routes, the bearer-protected task routes
// and the operational probes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	monitor := cfg.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	router := gin.New()
	router.Use(logging.Middleware(logger))
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitor.Middleware())
	if corsHandler := newCORS(cfg.Env, cfg.CORSOrigin); corsHandler != nil {
		router.Use(corsHandler)
	}

	router.GET("/healthz", monitor.HealthHandler())
	router.GET("/readyz", monitor.ReadinessHandler())
	router.GET("/livez", monitor.LivenessHandler())
	router.GET("/metrics", monitor.MetricsHandler())

	authHandler := NewAuthHandler(cfg.Identity)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.SignUp)
		authGroup.POST("/signin", authHandler.SignIn)
	}

	taskHandler := NewTaskHandler(cfg.Tasks)
	tasks := router.Group("/tasks")
	tasks.Use(middleware.Authenticate(cfg.Identity))
	{
		tasks.GET("", taskHandler.ListTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/:id", taskHandler.GetTask)
		tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	return router
}

// newCORS allows every origin outside production. In production only the
// configured comma-separated origins are allowed, and none when unset.
func newCORS(env, origins string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	if env != "production" {
		config.AllowAllOrigins = true
		return cors.New(config)
	}

	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			config.AllowOrigins = append(config.AllowOrigins, origin)
		}
	}
	if len(config.AllowOrigins) == 0 {
		return nil
	}
	return cors.New(config)
}
