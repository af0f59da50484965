package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"club_meetings/pkg/metrics"
)

// Metrics записывает счетчик и длительность запроса в Prometheus.
// Путь берется из шаблона роута, чтобы не плодить кардинальность.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}
