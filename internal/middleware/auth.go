package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devTechs001/folio-collab/pkg/auth"
)

const IdentityKey = "identity"

// AuthMiddleware проверяет токен в Authorization header
func AuthMiddleware(verifier auth.Verifier, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			c.Abort()
			return
		}

		verifyToken(c, verifier, token, timeout)
	}
}

// WSAuthMiddleware — аутентификация handshake для WebSocket.
// Токен передается один раз при установке соединения: в query или
// в Authorization header; все последующие события соединения неявно
// привязаны к проверенному пользователю.
func WSAuthMiddleware(verifier auth.Verifier, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
					token = parts[1]
				}
			}
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		verifyToken(c, verifier, token, timeout)
	}
}

// verifyToken вызывает verifier ровно один раз на попытку соединения,
// под таймаутом: незавершенная аутентификация = отказ, состояния
// в ядре не создается.
func verifyToken(c *gin.Context, verifier auth.Verifier, token string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	identity, err := verifier.Verify(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
		return
	}

	c.Set(IdentityKey, identity)
	c.Next()
}
