package middleware

import (
	"errors"
	"net/http"
	"strings"

	"account-service/internal/domain/token"
	"account-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	UserIDKey = "userID"
	EmailKey  = "email"
)

// AccessVerifier validates bearer access tokens.
type AccessVerifier interface {
	VerifyAccess(raw string) (*token.Claims, error)
}

func AuthMiddleware(verifier AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := verifier.VerifyAccess(parts[1])
		if err != nil {
			message := "Invalid or expired token"
			if errors.Is(err, token.ErrTokenWrongType) {
				message = "Token has wrong type"
			}
			utils.ErrorResponse(c, http.StatusUnauthorized, message)
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)

		c.Next()
	}
}

// GetUserID returns the authenticated user set by AuthMiddleware.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
