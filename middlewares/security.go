package middlewares

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders untuk API POS; tanpa HSTS karena deployment
// tipikal adalah LAN restoran tanpa TLS.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		c.Next()
	}
}
