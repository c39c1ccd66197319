package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hupe1980/plover"
)

const (
	headerRequestID = "X-Request-ID"
	loggerKey       = "plover_logger"
)

// requestID propagates or assigns X-Request-ID and scopes the request logger.
func requestID(logger *plover.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		c.Set(loggerKey, logger.WithRequestID(id))
		c.Next()
	}
}

func requestLogger(c *gin.Context) *plover.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*plover.Logger); ok {
			return l
		}
	}
	return plover.NoopLogger()
}

// accessLog logs and measures every request once it completes.
func accessLog(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		if m != nil {
			m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
			m.reqDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		}

		requestLogger(c).InfoContext(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration", elapsed,
		)
	}
}
