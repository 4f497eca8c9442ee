package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"market-insights/backend-go/internal/models"
)

const placeholderOHLC = 50

func (a *API) Latest(c *gin.Context) {
	ctx, cancel := timeboxed(c, a.cfg.OriginTimeout)
	defer cancel()

	res, err := a.fetcher.Fetch(ctx, "latest")
	if err != nil {
		a.log.Error("latest fetch failed", zap.Error(err))
		c.JSON(http.StatusOK, emptyLatest())
		return
	}
	var up models.OHLCUpstreamResponse
	if err := json.Unmarshal(res.Body, &up); err != nil {
		a.log.Error("latest decode failed", zap.Error(err))
		c.JSON(http.StatusOK, emptyLatest())
		return
	}
	c.JSON(http.StatusOK, toOHLCResponse(up))
}

func toOHLCResponse(up models.OHLCUpstreamResponse) models.OHLCResponse {
	items := make([]models.OHLC, 0, len(up.Items))
	for _, it := range up.Items {
		items = append(items, models.OHLC{
			Datetime:  it.Datetime,
			Timestamp: it.Timestamp,
			Ticker:    it.Ticker,
			Company:   it.Name,
			Open:      it.Open,
			High:      it.High,
			Low:       it.Low,
			Close:     it.Close,
			Volume:    it.Volume,
		})
	}
	return models.OHLCResponse{Count: up.Count, Items: items}
}

// emptyLatest keeps the table layout on the client intact when the origin is
// down.
func emptyLatest() models.OHLCResponse {
	return models.OHLCResponse{Count: 0, Items: make([]models.OHLC, placeholderOHLC)}
}
