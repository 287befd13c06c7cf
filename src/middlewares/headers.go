package middlewares

import (
	"github.com/gin-gonic/gin"
)

// SecureHeaders sets the baseline response headers for every route.
func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	ctx.Next()
}
