package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-floor/utils"
)

// LoggerMiddleware mencatat satu baris per request: method, status, durasi,
// IP, dan path. Status >= 500 masuk ke error logger supaya kelihatan di
// stream stderr.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		line := "%s | %3d | %13v | %15s | %s"
		args := []interface{}{c.Request.Method, status, time.Since(start), c.ClientIP(), path}

		if status >= 500 {
			utils.ErrorLogger.Printf(line, args...)
			return
		}
		utils.InfoLogger.Printf(line, args...)
	}
}
