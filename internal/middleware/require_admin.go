package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/skillswap-project/server-beta/internal/schemas"
	"github.com/skillswap-project/server-beta/internal/utils"
)

// RequireAdmin rejects callers whose token does not carry the admin role.
// It must run after the JWT middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.Value(utils.ClaimsKey.String()).(jwt.MapClaims)
		if !ok {
			utils.WriteAndLogError(c, schemas.Unauthorized, http.StatusUnauthorized, errors.New("missing claims"))
			c.Abort()
			return
		}

		if isAdmin, ok := claims["isAdmin"].(bool); !ok || !isAdmin {
			utils.WriteAndLogError(c, schemas.AdminRoleRequired, http.StatusForbidden, errors.New("caller lacks admin role"))
			c.Abort()
			return
		}

		c.Next()
	}
}
