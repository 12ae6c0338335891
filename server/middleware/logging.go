package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/augkit/logger"
)

// RequestLogger returns a Gin middleware that logs every request with
// method, path, status and latency. /health is skipped.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": latency.String(),
		}
		if latency > 500*time.Millisecond {
			fields["slow"] = true
		}
		logByStatus(logger.WithComponent("server"), fields, status)
	}
}

// logByStatus logs request fields at a level chosen by HTTP status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
