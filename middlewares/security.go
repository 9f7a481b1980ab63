package middlewares

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders -> header keamanan standar untuk semua response API.
// Service ini murni JSON + websocket, tidak menyajikan HTML, jadi respons
// juga ditandai no-store supaya state lantai tidak pernah di-cache perantara.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
