package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"market-insights/backend-go/internal/services"
)

func writeUpstreamError(c *gin.Context, err error) {
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Status == http.StatusTooManyRequests {
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error(), "upstream_status": upErr.Status})
			return
		}
		if upErr.Status == http.StatusRequestTimeout || upErr.Status == http.StatusGatewayTimeout {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "upstream_status": upErr.Status})
			return
		}
		if upErr.Status >= 400 && upErr.Status < 500 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "upstream_status": upErr.Status})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "upstream_status": upErr.Status})
		return
	}

	if errors.Is(err, services.ErrCircuitOpen) {
		c.Header("Retry-After", "20")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream_unavailable"})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream_timeout"})
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream_timeout"})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
