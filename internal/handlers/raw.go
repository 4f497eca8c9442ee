package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Raw serves an origin payload through the cache with no reshaping and no
// placeholder fallback.
func (a *API) Raw(c *gin.Context) {
	endpoint := c.Param("endpoint")
	if !knownEndpoint(endpoint) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_endpoint", "endpoint": endpoint})
		return
	}

	ctx, cancel := timeboxed(c, a.cfg.OriginTimeout)
	defer cancel()

	res, err := a.fetcher.Fetch(ctx, endpoint)
	if err != nil {
		writeUpstreamError(c, err)
		return
	}
	if res.Cached {
		c.Header("X-Cache", "hit")
	} else {
		c.Header("X-Cache", "miss")
	}
	c.Data(http.StatusOK, "application/json", res.Body)
}
