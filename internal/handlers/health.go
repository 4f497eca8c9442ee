package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"market-insights/backend-go/internal/models"
	"market-insights/backend-go/internal/services"
)

// Health reports cache readiness. A down cache only degrades the service, so
// ok stays true.
func (a *API) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	missing := []string{}
	deps := map[string]models.DepStatus{}
	mode := "uncached"
	switch cache := a.cache.(type) {
	case nil:
		deps["cache"] = models.DepStatus{Ok: false, Error: "disabled"}
	case services.ReadyChecker:
		if cache.Ready(ctx) {
			mode = "cached"
			deps["cache"] = models.DepStatus{Ok: true}
		} else {
			missing = append(missing, "cache_unreachable")
			deps["cache"] = models.DepStatus{Ok: false, Error: "not ready"}
		}
	default:
		mode = "cached"
		deps["cache"] = models.DepStatus{Ok: true}
	}

	c.JSON(http.StatusOK, models.HealthResponse{
		Ok:          true,
		TsISO:       nowISO(),
		Service:     "backend-go",
		Version:     os.Getenv("SERVICE_VERSION"),
		CacheMode:   mode,
		DepsStatus:  deps,
		DataMissing: missing,
		Timeline:    a.insights.Days(),
		Env: map[string]bool{
			"DB_SERVER_HOST": os.Getenv("DB_SERVER_HOST") != "",
			"REDIS_HOST":     os.Getenv("REDIS_HOST") != "",
			"REDIS_PORT":     os.Getenv("REDIS_PORT") != "",
		},
	})
}
