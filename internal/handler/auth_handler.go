package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/middleware"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// Authenticator checks operator credentials.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
}

// LoginLimiter throttles failed logins per client IP.
type LoginLimiter interface {
	Allow(ip string) bool
	Blocked(ip string) bool
}

type AuthHandler struct {
	auth    Authenticator
	limiter LoginLimiter
}

func NewAuthHandler(auth Authenticator, limiter LoginLimiter) *AuthHandler {
	return &AuthHandler{auth: auth, limiter: limiter}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ip := c.ClientIP()
	if h.limiter.Blocked(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many failed login attempts, try again later")
		return
	}

	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) {
			h.limiter.Allow(ip)
		}
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Login successful", res)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.GetActor(c)
	utils.Success(c, 200, "Authenticated operator", gin.H{
		"id":           actor.OperatorID,
		"username":     actor.Username,
		"name":         actor.Name,
		"role":         actor.Role,
		"attractionId": actor.AttractionID,
	})
}
