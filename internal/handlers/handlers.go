package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"market-insights/backend-go/internal/config"
	"market-insights/backend-go/internal/services"
)

// Endpoints are the logical origin endpoints; each one is also its cache key.
var Endpoints = []string{services.InsightsKey, "latest", "movers"}

type API struct {
	cfg      config.Config
	cache    services.Cache
	fetcher  *services.Fetcher
	insights *services.InsightsService
	log      *zap.Logger
}

func New(cfg config.Config, cache services.Cache, fetcher *services.Fetcher, insights *services.InsightsService, log *zap.Logger) *API {
	return &API{
		cfg:      cfg,
		cache:    cache,
		fetcher:  fetcher,
		insights: insights,
		log:      log,
	}
}

func knownEndpoint(name string) bool {
	for _, e := range Endpoints {
		if e == name {
			return true
		}
	}
	return false
}

func timeboxed(c *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), d)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
