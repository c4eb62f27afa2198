package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// Context keys set by JWTMiddleware.
const (
	ContextOperatorID   = "operator_id"
	ContextRole         = "role"
	ContextAttractionID = "attraction_id"
	contextActor        = "actor"
)

// JWTMiddleware authenticates operators by their bearer token.
type JWTMiddleware struct {
	rateLimiter *InvalidAuthRateLimiter
}

func NewJWTMiddleware(rateLimiter *InvalidAuthRateLimiter) *JWTMiddleware {
	return &JWTMiddleware{rateLimiter: rateLimiter}
}

// Handle validates the token and stores the operator in the context. The
// token may also come in the "token" query parameter, since browsers cannot
// set headers on an EventSource.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				m.reject(c, "Invalid authorization header")
				return
			}
			raw = parts[1]
		}
		if raw == "" {
			m.reject(c, "Missing authorization header")
			return
		}

		claims, err := utils.ValidateJWT(raw)
		if err != nil {
			m.reject(c, "Invalid or expired token")
			return
		}

		actor := service.ActorFromClaims(claims)
		c.Set(contextActor, actor)
		c.Set(ContextOperatorID, actor.OperatorID)
		c.Set(ContextRole, string(actor.Role))
		if actor.AttractionID != nil {
			c.Set(ContextAttractionID, *actor.AttractionID)
		}
		c.Next()
	}
}

func (m *JWTMiddleware) reject(c *gin.Context, message string) {
	if m.rateLimiter != nil && !m.rateLimiter.Allow(c.ClientIP()) {
		utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}
	utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
	c.Abort()
}

// GetActor returns the authenticated operator. The zero Actor is returned on
// routes without JWTMiddleware.
func GetActor(c *gin.Context) service.Actor {
	v, ok := c.Get(contextActor)
	if !ok {
		return service.Actor{}
	}
	actor, _ := v.(service.Actor)
	return actor
}
