package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const contextUserID = "user_id"

// Authenticator resolves the user behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// Required rejects requests without a valid token and stores the user id.
func Required(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := a.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "invalid or missing credentials"})
			return
		}
		c.Set(contextUserID, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id (must be used after Required).
func UserID(c *gin.Context) string {
	return c.GetString(contextUserID)
}
