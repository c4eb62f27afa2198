package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// SettingsManager reads and changes runtime settings.
type SettingsManager interface {
	List() []models.Setting
	Update(ctx context.Context, key, value string) error
}

// MessagingTester sends a synthetic ticket through the messaging gateway.
type MessagingTester interface {
	SendTest(ctx context.Context, phone string) service.DeliveryResult
}

// SettingsHandler serves the admin settings endpoints.
type SettingsHandler struct {
	settings  SettingsManager
	messaging MessagingTester
}

func NewSettingsHandler(settings SettingsManager, messaging MessagingTester) *SettingsHandler {
	return &SettingsHandler{settings: settings, messaging: messaging}
}

// List handles GET /api/settings
func (h *SettingsHandler) List(c *gin.Context) {
	utils.Success(c, 200, "Settings retrieved", h.settings.List())
}

// Update handles PUT /api/settings/:key
func (h *SettingsHandler) Update(c *gin.Context) {
	var req struct {
		Value *string `json:"value" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	key := c.Param("key")
	if err := h.settings.Update(c.Request.Context(), key, *req.Value); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Setting updated", gin.H{"key": key, "value": *req.Value})
}

// TestMessaging handles POST /api/settings/test-messaging
func (h *SettingsHandler) TestMessaging(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res := h.messaging.SendTest(c.Request.Context(), req.Phone)
	switch {
	case !res.Attempted:
		utils.ErrorWithData(c, 400, utils.ErrValidation.Error(), res.Error, res)
		return
	case !res.Sent:
		utils.ErrorWithData(c, 502, utils.ErrUpstream.Error(), res.Error, res)
		return
	}
	utils.Success(c, 200, "Test message sent", res)
}
