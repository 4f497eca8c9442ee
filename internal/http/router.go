package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"market-insights/backend-go/internal/config"
	"market-insights/backend-go/internal/handlers"
)

func NewRouter(cfg config.Config, api *handlers.API, log *zap.Logger) *gin.Engine {
	return newRouter(cfg, api, log, clockwork.NewRealClock())
}

func newRouter(cfg config.Config, api *handlers.API, log *zap.Logger, clock clockwork.Clock) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn("invalid trusted proxies, trusting none", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(withRateLimit(cfg.RateLimitPerMin, clock))
	r.Use(withRequestID())
	r.Use(withLogging(log))
	r.Use(withRecovery(log))

	g := r.Group("/api")
	g.GET("/health", api.Health)
	g.GET("/insights", api.Insights)
	g.GET("/latest", api.Latest)
	g.GET("/movers", api.Movers)
	g.GET("/raw/:endpoint", api.Raw)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "X-Cache"},
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
