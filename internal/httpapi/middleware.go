package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	adminKeyHeader       = "X-Admin-Key"
	telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

func adminKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(adminKeyHeader)
		if apiKey == "" || !secureEqual(key, apiKey) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid admin key"})
			return
		}
		c.Next()
	}
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
