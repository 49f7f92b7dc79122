package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"visitlog/utils"
)

// APIKeyHeader carries the ingestion shared secret.
const APIKeyHeader = "X-API-Key"

// APIKeyRequired gates a route behind a shared secret in the x-api-key header.
// An empty configured key leaves the route open.
func APIKeyRequired(key string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if key == "" {
			ctx.Next()
			return
		}

		got := ctx.GetHeader(APIKeyHeader)
		if got == "" {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "api key missing")
			ctx.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid api key")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
