package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatsProvider returns a JSON-serializable snapshot of the run.
type StatsProvider func() any

// Stats returns a handler that serves the current run statistics.
func Stats(provider StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if provider == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no statistics available"})
			return
		}
		c.JSON(http.StatusOK, provider())
	}
}
