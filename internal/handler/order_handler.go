package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/middleware"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
	"github.com/GTDGit/pdv_api/pkg/yampi"
)

// Reconciler syncs external orders and classifies their items.
type Reconciler interface {
	SyncOrders(ctx context.Context, opts service.SyncOptions) (*service.SyncResult, error)
	TestConnection(ctx context.Context) (*service.ConnectionResult, error)
	Statuses(ctx context.Context) ([]yampi.Status, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]models.ExternalOrder, int, error)
	GetOrder(ctx context.Context, id int) (*models.ExternalOrderWithItems, error)
	UnclassifiedNames(ctx context.Context) ([]models.UnclassifiedName, error)
	ClassifyItem(ctx context.Context, actor service.Actor, req service.ClassifyRequest) (*service.ClassifyResult, error)
	ClassifyBatch(ctx context.Context, actor service.Actor, reqs []service.ClassifyRequest) (*service.BatchClassifyResult, error)
	Unclassify(ctx context.Context, actor service.Actor, itemID int) error
	AutoClassifyPending(ctx context.Context) (*service.AutoClassifyResult, error)
	ClassificationHistory(ctx context.Context, itemID int) ([]models.ClassificationEvent, error)
}

// OrderHandler serves the admin external order endpoints.
type OrderHandler struct {
	recon Reconciler
	loc   *time.Location
}

func NewOrderHandler(recon Reconciler, loc *time.Location) *OrderHandler {
	if loc == nil {
		loc = time.Local
	}
	return &OrderHandler{recon: recon, loc: loc}
}

// Sync handles POST /api/orders/sync. The body is optional.
func (h *OrderHandler) Sync(c *gin.Context) {
	var opts service.SyncOptions
	if c.Request.ContentLength > 0 && !bindJSON(c, &opts) {
		return
	}
	res, err := h.recon.SyncOrders(c.Request.Context(), opts)
	if err != nil {
		status, code := utils.HTTPStatus(err)
		if res != nil && status != 500 {
			utils.ErrorWithData(c, status, code, err.Error(), res)
			return
		}
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Orders synchronized", res)
}

// TestConnection handles POST /api/orders/test-connection
func (h *OrderHandler) TestConnection(c *gin.Context) {
	res, err := h.recon.TestConnection(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Connection successful", res)
}

// Statuses handles GET /api/orders/statuses
func (h *OrderHandler) Statuses(c *gin.Context) {
	list, err := h.recon.Statuses(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Statuses retrieved", list)
}

// List handles GET /api/orders?processed=&search=&dateFrom=&dateTo=&page=&limit=
func (h *OrderHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	f := repository.OrderFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if v := c.Query("processed"); v != "" {
		processed, err := strconv.ParseBool(v)
		if err != nil {
			utils.Error(c, 400, "INVALID_REQUEST", "Invalid processed")
			return
		}
		f.Processed = &processed
	}
	if v := c.Query("dateFrom"); v != "" {
		from, err := time.ParseInLocation(time.DateOnly, v, h.loc)
		if err != nil {
			utils.Error(c, 400, "INVALID_REQUEST", "Invalid dateFrom")
			return
		}
		f.From = &from
	}
	if v := c.Query("dateTo"); v != "" {
		to, err := time.ParseInLocation(time.DateOnly, v, h.loc)
		if err != nil {
			utils.Error(c, 400, "INVALID_REQUEST", "Invalid dateTo")
			return
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}

	orders, total, err := h.recon.ListOrders(c.Request.Context(), f)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessWithPagination(c, 200, "Orders retrieved", orders, page, limit, total)
}

// Get handles GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.recon.GetOrder(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Order retrieved", order)
}

// Unclassified handles GET /api/orders/unclassified
func (h *OrderHandler) Unclassified(c *gin.Context) {
	names, err := h.recon.UnclassifiedNames(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Unclassified items retrieved", names)
}

// Classify handles POST /api/orders/items/classify
func (h *OrderHandler) Classify(c *gin.Context) {
	var req service.ClassifyRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.recon.ClassifyItem(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Item classified", res)
}

// ClassifyBatch handles POST /api/orders/items/classify-batch
func (h *OrderHandler) ClassifyBatch(c *gin.Context) {
	var req struct {
		Items []service.ClassifyRequest `json:"items" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.recon.ClassifyBatch(c.Request.Context(), middleware.GetActor(c), req.Items)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Batch classified", res)
}

// Unclassify handles DELETE /api/orders/items/:id/classification
func (h *OrderHandler) Unclassify(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recon.Unclassify(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Item unclassified", nil)
}

// AutoClassify handles POST /api/orders/items/auto-classify
func (h *OrderHandler) AutoClassify(c *gin.Context) {
	res, err := h.recon.AutoClassifyPending(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Pending items classified", res)
}

// History handles GET /api/orders/items/:id/history
func (h *OrderHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	events, err := h.recon.ClassificationHistory(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Classification history retrieved", events)
}
