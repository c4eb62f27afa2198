package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/middleware"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// OperatorManager is the operator account service used by OperatorHandler.
type OperatorManager interface {
	List(ctx context.Context) ([]models.Operator, error)
	Create(ctx context.Context, req service.CreateOperatorRequest) (*models.Operator, error)
	Deactivate(ctx context.Context, actor service.Actor, id int) error
}

// OperatorHandler serves the admin operator endpoints.
type OperatorHandler struct {
	operators OperatorManager
}

func NewOperatorHandler(operators OperatorManager) *OperatorHandler {
	return &OperatorHandler{operators: operators}
}

// List handles GET /api/operators
func (h *OperatorHandler) List(c *gin.Context) {
	list, err := h.operators.List(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Operators retrieved", list)
}

// Create handles POST /api/operators
func (h *OperatorHandler) Create(c *gin.Context) {
	var req service.CreateOperatorRequest
	if !bindJSON(c, &req) {
		return
	}
	op, err := h.operators.Create(c.Request.Context(), req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 201, "Operator created", op)
}

// Deactivate handles DELETE /api/operators/:id
func (h *OperatorHandler) Deactivate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.operators.Deactivate(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Operator deactivated", nil)
}
