package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/duinokary/supplychain-backend/internal/logger"
	"github.com/duinokary/supplychain-backend/internal/services"
)

// RequireAuth validates the bearer token and attaches the caller's identity to
// the request context. Requests without a valid, active token are rejected.
func RequireAuth(authService services.AuthService, log *logger.Logger) gin.HandlerFunc {
	mwLog := log.With("middleware", "RequireAuth")

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}

		ctx, err := authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			mwLog.Debug("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": services.ErrUnauthorized.Error()})
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
