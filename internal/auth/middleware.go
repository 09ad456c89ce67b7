package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/talentgate/talentgate/internal/apperrors"
	"github.com/talentgate/talentgate/internal/models"
)

const userIDKey = "auth.userID"

// Middleware resolves the caller identity from a bearer token. Token
// issuance and user registration live outside this service; all the API
// needs is "identity resolved or request rejected".
func Middleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).
			First(&user, "api_token = ?", token).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			abortUnauthorized(c, "invalid token")
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":   string(apperrors.KindStorage),
				"message": "identity lookup failed",
			})
			return
		}

		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   string(apperrors.KindUnauthorized),
		"message": message,
	})
}

// UserID returns the authenticated caller's id for the current request.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
