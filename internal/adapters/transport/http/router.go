package http

import (
	stdhttp "net/http"
	"time"

	"github.com/aminkhaleghi1994/todo-app/internal/adapters/transport/http/middleware"
	appsvc "github.com/aminkhaleghi1994/todo-app/internal/app/auth/service"
	"github.com/aminkhaleghi1994/todo-app/internal/infra/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	rateLimitCacheSize = 10_000
	rateLimitTTL       = time.Hour
)

// NewRouter builds the gin engine serving /health, /metrics and the
// versioned user API.
func NewRouter(cfg *config.Config, svc appsvc.Service, log *zap.Logger) *gin.Engine {
	router := gin.New()
	_ = router.SetTrustedProxies(nil)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	if cfg.RateLimit > 0 {
		router.Use(middleware.NewHTTPRateLimitPerIP(cfg.RateLimit, cfg.RateBurst, rateLimitCacheSize, rateLimitTTL))
	}
	if c, ok := corsConfig(cfg); ok {
		router.Use(cors.New(c))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	NewHandler(svc, log).Register(router.Group("/api/v1"))
	return router
}

func corsConfig(cfg *config.Config) (cors.Config, bool) {
	if len(cfg.AllowedOrigins) == 0 {
		return cors.Config{}, false
	}
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", "WWW-Authenticate"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c, true
}
