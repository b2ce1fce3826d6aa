package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/internal/ratelimit"
	"github.com/layer-3/walletauth/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// RouterConfig holds the dependencies of the HTTP surface
type RouterConfig struct {
	AuthService *service.AuthService
	Log         logrus.FieldLogger

	// Limiter throttles /auth; nil disables rate limiting
	Limiter *ratelimit.Limiter

	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer prometheus.Gatherer
}

// SetupRouter sets up the Gin router
func SetupRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Log))

	handlers := NewAuthHandlers(cfg.AuthService, cfg.Log)

	router.GET("/healthz", handlers.Health)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// Auth routes
	auth := router.Group("/auth")
	if cfg.Limiter != nil {
		auth.Use(cfg.Limiter.Middleware())
	}
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/verify", handlers.Verify)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(cfg.AuthService, cfg.Log))
	{
		api.GET("/me", handlers.Me)
	}

	return router
}

// WithCORS wraps the router for browser wallets calling from allowed origins
func WithCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return handler
	}
	co := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	})
	return co.Handler(handler)
}
