package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resteasy/pkg/utils"
)

// JWTAuthMiddleware extracts the subject identity from the bearer token. It is
// identity plumbing only; authorization policy lives with the caller.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		subjectID, err := uuid.Parse(claims.SubjectID)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid subject identity")
			c.Abort()
			return
		}

		c.Set("subject_id", subjectID)
		c.Next()
	}
}

// SubjectID reads the authenticated subject set by JWTAuthMiddleware.
func SubjectID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get("subject_id")
	if !ok {
		return uuid.Nil, false
	}
	subjectID, ok := value.(uuid.UUID)
	return subjectID, ok
}
