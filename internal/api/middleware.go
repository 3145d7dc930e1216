package api

import (
	"strconv"
	"time"

	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/common/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"

	loggerKey = "logger"
)

// requestID tags every request with an id, reusing the caller's when present,
// and stores a logger carrying it.
func requestID(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(RequestIDHeader, id)
		c.Set(loggerKey, log.WithFields(map[string]interface{}{"requestId": id}))
		c.Next()
	}
}

func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		requestLogger(c).Debug("Handled request", map[string]interface{}{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"durationMs": elapsed.Milliseconds(),
		})
	}
}

func requestLogger(c *gin.Context) logger.Logger {
	if l, ok := c.Get(loggerKey); ok {
		if log, ok := l.(logger.Logger); ok {
			return log
		}
	}
	return logger.NewNoOpLogger()
}
