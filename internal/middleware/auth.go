package middleware

import (
	"net/http"

	"github.com/fundedlabs/propgate/internal/config"
	"github.com/fundedlabs/propgate/internal/model"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	HeaderGatewayKey = "X-Gateway-Key"
	ContextClientKey = "client"
)

// ClientResolver maps API keys to registered clients and hands out their
// rate limiters.
type ClientResolver interface {
	GetByAPIKey(apiKey string) (*model.Client, bool)
	Default() *model.Client
	LimiterFor(clientID string) *rate.Limiter
}

func AuthMiddleware(cfg *config.Config, cm ClientResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderGatewayKey)
		if apiKey == "" {
			if cfg != nil && !cfg.Auth.RequireAPIKey {
				if client := cm.Default(); client != nil {
					c.Set(ContextClientKey, client)
					c.Next()
					return
				}
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		client, ok := cm.GetByAPIKey(apiKey)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		c.Set(ContextClientKey, client)
		c.Next()
	}
}
