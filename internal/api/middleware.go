package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rewired-gh/auctionledger/internal/metrics"
)

// metricsMiddleware records request duration by route template.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
