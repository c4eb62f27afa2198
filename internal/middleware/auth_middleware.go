package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// RequireRole lets the request through only for operators holding one of
// roles. It must run after JWTMiddleware.
func RequireRole(roles ...models.OperatorRole) gin.HandlerFunc {
	allowed := make(map[models.OperatorRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.OperatorID == 0 {
			utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}
		if !allowed[actor.Role] {
			utils.Error(c, http.StatusForbidden, utils.ErrForbidden.Error(), "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin is RequireRole(models.RoleAdmin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
