package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"market-insights/backend-go/internal/models"
)

const placeholderMovers = 10

// Movers hands the origin payload through untouched; the typed model only
// backs the placeholder.
func (a *API) Movers(c *gin.Context) {
	ctx, cancel := timeboxed(c, a.cfg.OriginTimeout)
	defer cancel()

	res, err := a.fetcher.Fetch(ctx, "movers")
	if err != nil {
		a.log.Error("movers fetch failed", zap.Error(err))
		c.JSON(http.StatusOK, emptyMovers())
		return
	}
	c.Data(http.StatusOK, "application/json", res.Body)
}

func emptyMovers() models.MoversResponse {
	return models.MoversResponse{Count: 0, Items: make([]models.Mover, placeholderMovers)}
}
