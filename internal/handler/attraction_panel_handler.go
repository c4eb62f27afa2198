package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/middleware"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// AttendanceDesk confirms attendance of external order items.
type AttendanceDesk interface {
	ConfirmItem(ctx context.Context, actor service.Actor, itemID int) (*models.ExternalOrderItem, error)
	CancelItem(ctx context.Context, actor service.Actor, itemID int) (*models.ExternalOrderItem, error)
	ConfirmAll(ctx context.Context, actor service.Actor, orderID int, attractionID *int) (*models.ConfirmAllResult, error)
	ListOrders(ctx context.Context, actor service.Actor, attractionID *int, status repository.AttendanceFilter, page, limit int) ([]models.ExternalOrderWithItems, int, error)
	GetOrder(ctx context.Context, actor service.Actor, orderID int, attractionID *int) (*models.ExternalOrderWithItems, error)
}

// AttractionReporter builds attraction dashboards and ledgers.
type AttractionReporter interface {
	AttractionReport(ctx context.Context, actor service.Actor, attractionID *int, dateFrom, dateTo string) (*models.AttractionReport, error)
	Dashboard(ctx context.Context, actor service.Actor, attractionID *int) (*models.AttractionDashboard, error)
}

// AttractionPanelHandler serves the attraction panel. Attraction operators are
// pinned to their own attraction; admins and staff pick one with
// ?attractionId=.
type AttractionPanelHandler struct {
	attendance AttendanceDesk
	reports    AttractionReporter
}

func NewAttractionPanelHandler(attendance AttendanceDesk, reports AttractionReporter) *AttractionPanelHandler {
	return &AttractionPanelHandler{attendance: attendance, reports: reports}
}

// Dashboard handles GET /api/panel/dashboard
func (h *AttractionPanelHandler) Dashboard(c *gin.Context) {
	attractionID, ok := optionalInt(c, "attractionId")
	if !ok {
		return
	}
	d, err := h.reports.Dashboard(c.Request.Context(), middleware.GetActor(c), attractionID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Dashboard retrieved", d)
}

// Orders handles GET /api/panel/orders?status=pending|confirmed
func (h *AttractionPanelHandler) Orders(c *gin.Context) {
	attractionID, ok := optionalInt(c, "attractionId")
	if !ok {
		return
	}
	page, limit := pagination(c)
	orders, total, err := h.attendance.ListOrders(c.Request.Context(), middleware.GetActor(c), attractionID,
		repository.AttendanceFilter(c.Query("status")), page, limit)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithPagination(c, 200, "Orders retrieved", orders, page, limit, total)
}

// Order handles GET /api/panel/orders/:id
func (h *AttractionPanelHandler) Order(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attractionID, ok := optionalInt(c, "attractionId")
	if !ok {
		return
	}
	order, err := h.attendance.GetOrder(c.Request.Context(), middleware.GetActor(c), id, attractionID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Order retrieved", order)
}

// ConfirmAll handles POST /api/panel/orders/:id/confirm-all
func (h *AttractionPanelHandler) ConfirmAll(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	attractionID, ok := optionalInt(c, "attractionId")
	if !ok {
		return
	}
	res, err := h.attendance.ConfirmAll(c.Request.Context(), middleware.GetActor(c), id, attractionID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Order attendance confirmed", res)
}

// ConfirmItem handles POST /api/panel/items/:id/attendance
func (h *AttractionPanelHandler) ConfirmItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.attendance.ConfirmItem(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Attendance confirmed", item)
}

// CancelItem handles DELETE /api/panel/items/:id/attendance
func (h *AttractionPanelHandler) CancelItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.attendance.CancelItem(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Attendance cancelled", item)
}

// Report handles GET /api/panel/report?dateFrom=2024-01-01&dateTo=2024-01-31
func (h *AttractionPanelHandler) Report(c *gin.Context) {
	attractionID, ok := optionalInt(c, "attractionId")
	if !ok {
		return
	}
	report, err := h.reports.AttractionReport(c.Request.Context(), middleware.GetActor(c), attractionID,
		c.Query("dateFrom"), c.Query("dateTo"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Report retrieved", report)
}
