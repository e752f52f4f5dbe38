package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jessedh/t3-ledger/internal/logger"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	AdminAPIKeys []string
}

// AdminAuth returns a gin middleware gating admin endpoints behind a
// configured API key, passed as "Authorization: Bearer <key>".
func AdminAuth(cfg AuthConfig) gin.HandlerFunc {
	// Map for constant-order key lookup
	keys := make(map[string]bool)
	for _, key := range cfg.AdminAPIKeys {
		if key != "" {
			keys[key] = true
		}
	}

	return func(c *gin.Context) {
		if err := authenticate(c.GetHeader("Authorization"), keys); err != nil {
			logger.Warn("Admin authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication failed",
				},
			})
			return
		}

		logger.Debug("Admin authentication successful",
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		)
		c.Next()
	}
}

func authenticate(authHeader string, keys map[string]bool) error {
	if len(keys) == 0 {
		return errors.New("no admin API keys configured")
	}
	if authHeader == "" {
		return errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return errors.New("invalid Authorization header format")
	}
	if !keys[parts[1]] {
		return errors.New("invalid API key")
	}
	return nil
}
