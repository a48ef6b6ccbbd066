package recorder_routers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapidaai/scribe/api/recorder-api/config"
	"github.com/rapidaai/scribe/pkg/commons"
	"github.com/rapidaai/scribe/pkg/utils"
)

// AuthMiddleware enforces the static daemon token when one is configured.
// WebSocket clients cannot always set headers, so the token is also accepted
// as an x-api-key query parameter.
func AuthMiddleware(cfg *config.AppConfig, logger commons.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.IsEmpty(cfg.AuthToken) {
			c.Next()
			return
		}
		token := c.GetHeader(utils.HEADER_API_KEY)
		if utils.IsEmpty(token) {
			token = c.Query("x-api-key")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AuthToken)) != 1 {
			logger.Warnf("auth: rejected request to %s from %s", c.FullPath(), c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
