package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staff_messenger/internal/domain"
	"staff_messenger/internal/service"
	"staff_messenger/pkg/jwt"
	"staff_messenger/pkg/logger"
)

// AuthMiddleware validates bearer tokens minted by the identity service and
// auto-provisions the roster entry from the token's claims. The messenger
// never issues tokens itself.
type AuthMiddleware struct {
	jwtSecret   string
	userService service.UserService
	log         logger.Logger
}

func NewAuthMiddleware(jwtSecret string, userService service.UserService, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:   jwtSecret,
		userService: userService,
		log:         log,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(parts[1], m.jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			c.Abort()
			return
		}

		if err := m.userService.Provision(c.Request.Context(), &domain.User{
			ID:        userID,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
			Email:     claims.Email,
		}); err != nil {
			m.log.Error("Failed to provision user", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision user"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_email", claims.Email)
		c.Next()
	}
}
