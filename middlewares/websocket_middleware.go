package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// WebSocketAuthMiddleware -> websocket client tidak bisa kirim header
// Authorization dari browser, jadi token lewat query string.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", string(claims.Role))
		c.Set("user_id", claims.UserID)
		c.Set("actor", models.Actor{Role: claims.Role, ID: claims.UserID})

		c.Next()
	}
}
