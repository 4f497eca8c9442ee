package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Insights always answers with the accumulated history, even when this poll
// failed.
func (a *API) Insights(c *gin.Context) {
	ctx, cancel := timeboxed(c, a.cfg.OriginTimeout)
	defer cancel()

	resp, err := a.insights.Refresh(ctx)
	if err != nil {
		a.log.Error("insights refresh failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, resp)
}
