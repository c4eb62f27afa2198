package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/middleware"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// SaleRecorder records point-of-sale sales and their tickets.
type SaleRecorder interface {
	PreviewNextCode(ctx context.Context) (string, error)
	CreateSale(ctx context.Context, actor service.Actor, req *models.CreateSaleRequest) (*service.CreateSaleResult, error)
	ListRecent(ctx context.Context) ([]models.Sale, error)
	Get(ctx context.Context, id int) (*models.Sale, error)
	Delete(ctx context.Context, id int) error
	ResendTicket(ctx context.Context, id int) (service.DeliveryResult, error)
	TicketImage(ctx context.Context, id int) ([]byte, string, error)
}

// SaleAttendance confirms and cancels attendance of POS sales.
type SaleAttendance interface {
	ConfirmSale(ctx context.Context, actor service.Actor, saleID int) (*models.Sale, error)
	CancelSale(ctx context.Context, actor service.Actor, saleID int) (*models.Sale, error)
}

// LeaderboardSource ranks operators by sales.
type LeaderboardSource interface {
	Leaderboard(ctx context.Context, period string) ([]models.LeaderboardEntry, error)
}

// SaleHandler serves the POS endpoints.
type SaleHandler struct {
	sales       SaleRecorder
	attendance  SaleAttendance
	leaderboard LeaderboardSource
}

func NewSaleHandler(sales SaleRecorder, attendance SaleAttendance, leaderboard LeaderboardSource) *SaleHandler {
	return &SaleHandler{sales: sales, attendance: attendance, leaderboard: leaderboard}
}

// NextCode handles GET /api/sales/next-code
func (h *SaleHandler) NextCode(c *gin.Context) {
	code, err := h.sales.PreviewNextCode(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Next sale code", gin.H{"code": code})
}

// Create handles POST /api/sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req models.CreateSaleRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.sales.CreateSale(c.Request.Context(), middleware.GetActor(c), &req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 201, "Sale created", res)
}

// List handles GET /api/sales
func (h *SaleHandler) List(c *gin.Context) {
	list, err := h.sales.ListRecent(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Sales retrieved", list)
}

// Get handles GET /api/sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.Get(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Sale retrieved", sale)
}

// Delete handles DELETE /api/sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.sales.Delete(c.Request.Context(), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Sale deleted", nil)
}

// Resend handles POST /api/sales/:id/resend
func (h *SaleHandler) Resend(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.sales.ResendTicket(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Ticket resent", res)
}

// Ticket handles GET /api/sales/:id/ticket, returning the JPEG as a download.
func (h *SaleHandler) Ticket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	img, name, err := h.sales.TicketImage(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(200, "image/jpeg", img)
}

// ConfirmAttendance handles POST /api/sales/:id/attendance
func (h *SaleHandler) ConfirmAttendance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.attendance.ConfirmSale(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Attendance confirmed", sale)
}

// CancelAttendance handles DELETE /api/sales/:id/attendance
func (h *SaleHandler) CancelAttendance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sale, err := h.attendance.CancelSale(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Attendance cancelled", sale)
}

// Leaderboard handles GET /api/sales/leaderboard?period=today
func (h *SaleHandler) Leaderboard(c *gin.Context) {
	entries, err := h.leaderboard.Leaderboard(c.Request.Context(), c.Query("period"))
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Leaderboard retrieved", entries)
}
