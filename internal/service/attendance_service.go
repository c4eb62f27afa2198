package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pdv_api/internal/metrics"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/sse"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// AttendanceOrderStore is the order storage used by the attraction panel.
type AttendanceOrderStore interface {
	GetItem(ctx context.Context, id int) (*models.ExternalOrderItem, error)
	ConfirmItem(ctx context.Context, itemID, operatorID int, at time.Time) (bool, error)
	CancelItem(ctx context.Context, itemID int) error
	ConfirmAllForOrder(ctx context.Context, orderID, attractionID, operatorID int, at time.Time) (*models.ConfirmAllResult, error)
	ListOrdersForAttraction(ctx context.Context, attractionID int, status repository.AttendanceFilter, page, limit int) ([]models.ExternalOrderWithItems, int, error)
	GetOrderForAttraction(ctx context.Context, orderID, attractionID int) (*models.ExternalOrderWithItems, error)
}

// AttendanceSaleStore is the sale storage used for point-of-sale attendance.
type AttendanceSaleStore interface {
	GetByID(ctx context.Context, id int) (*models.Sale, error)
	ConfirmAttendance(ctx context.Context, id, operatorID int, at time.Time) (bool, error)
	CancelAttendance(ctx context.Context, id int) error
}

// AttendanceService confirms and cancels attendee presence on external order
// items and point-of-sale sales.
type AttendanceService struct {
	orders   AttendanceOrderStore
	sales    AttendanceSaleStore
	products ProductGetter
	notifier sse.Notifier
	now      func() time.Time
}

func NewAttendanceService(orders AttendanceOrderStore, sales AttendanceSaleStore, products ProductGetter) *AttendanceService {
	return &AttendanceService{
		orders:   orders,
		sales:    sales,
		products: products,
		notifier: sse.NopNotifier{},
		now:      time.Now,
	}
}

// SetNotifier sets the SSE notifier for attendance events.
func (s *AttendanceService) SetNotifier(notifier sse.Notifier) {
	s.notifier = notifier
}

// ConfirmItem marks an attendee of an order item as present. Confirming twice
// is a conflict and keeps the original timestamp and operator.
func (s *AttendanceService) ConfirmItem(ctx context.Context, actor Actor, itemID int) (*models.ExternalOrderItem, error) {
	item, err := s.scopedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Classified || item.AttractionID == nil {
		return nil, utils.Validationf("item %d is not classified", itemID)
	}
	if item.Attendance.Confirmed {
		return nil, utils.ErrAlreadyConfirmed
	}

	changed, err := s.orders.ConfirmItem(ctx, itemID, actor.OperatorID, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, utils.ErrAlreadyConfirmed
	}

	s.recordChange(models.OriginExternal, itemID, true, actor, item.AttractionID)
	return s.reloadItem(ctx, itemID)
}

// CancelItem clears an item's attendance. Cancelling an unconfirmed item is a
// no-op.
func (s *AttendanceService) CancelItem(ctx context.Context, actor Actor, itemID int) (*models.ExternalOrderItem, error) {
	item, err := s.scopedItem(ctx, actor, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Attendance.Confirmed {
		return item, nil
	}
	if err := s.orders.CancelItem(ctx, itemID); err != nil {
		return nil, err
	}
	s.recordChange(models.OriginExternal, itemID, false, actor, item.AttractionID)
	return s.reloadItem(ctx, itemID)
}

// ConfirmAll confirms every pending item of an order that belongs to the
// attraction. Restricted actors always act on their own attraction.
func (s *AttendanceService) ConfirmAll(ctx context.Context, actor Actor, orderID int, attractionID *int) (*models.ConfirmAllResult, error) {
	target, err := resolveAttraction(actor, attractionID)
	if err != nil {
		return nil, err
	}
	res, err := s.orders.ConfirmAllForOrder(ctx, orderID, target, actor.OperatorID, s.now())
	if err != nil {
		return nil, notFound(err, "order")
	}

	log.Info().
		Int("order_id", orderID).
		Int("attraction_id", target).
		Int("operator_id", actor.OperatorID).
		Int("confirmed", res.Confirmed).
		Int("already_confirmed", res.AlreadyConfirmed).
		Int("skipped", res.Skipped).
		Msg("Order attendance confirmed")
	if res.Confirmed > 0 {
		metrics.AttendanceChanges.WithLabelValues(string(models.OriginExternal), "confirm").Add(float64(res.Confirmed))
		operatorID := actor.OperatorID
		s.notifier.NotifyAttendanceChanged(sse.AttendanceChange{
			Origin:       models.OriginExternal,
			ID:           orderID,
			Confirmed:    true,
			OperatorID:   &operatorID,
			AttractionID: &target,
		})
	}
	return res, nil
}

// ConfirmSale marks the buyer of a point-of-sale sale as present.
func (s *AttendanceService) ConfirmSale(ctx context.Context, actor Actor, saleID int) (*models.Sale, error) {
	sale, attractionID, err := s.scopedSale(ctx, actor, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Attendance.Confirmed {
		return nil, utils.ErrAlreadyConfirmed
	}
	changed, err := s.sales.ConfirmAttendance(ctx, saleID, actor.OperatorID, s.now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, utils.ErrAlreadyConfirmed
	}
	s.recordChange(models.OriginPOS, saleID, true, actor, attractionID)
	return s.reloadSale(ctx, saleID)
}

// CancelSale clears a sale's attendance.
func (s *AttendanceService) CancelSale(ctx context.Context, actor Actor, saleID int) (*models.Sale, error) {
	sale, attractionID, err := s.scopedSale(ctx, actor, saleID)
	if err != nil {
		return nil, err
	}
	if !sale.Attendance.Confirmed {
		return sale, nil
	}
	if err := s.sales.CancelAttendance(ctx, saleID); err != nil {
		return nil, notFound(err, "sale")
	}
	s.recordChange(models.OriginPOS, saleID, false, actor, attractionID)
	return s.reloadSale(ctx, saleID)
}

// ListOrders returns the attraction's orders, each restricted to the items
// classified to it.
func (s *AttendanceService) ListOrders(ctx context.Context, actor Actor, attractionID *int, status repository.AttendanceFilter, page, limit int) ([]models.ExternalOrderWithItems, int, error) {
	target, err := resolveAttraction(actor, attractionID)
	if err != nil {
		return nil, 0, err
	}
	switch status {
	case repository.AttendanceAny, repository.AttendancePending, repository.AttendanceConfirmed:
	default:
		return nil, 0, utils.Validationf("invalid status filter %q", status)
	}
	return s.orders.ListOrdersForAttraction(ctx, target, status, page, limit)
}

// GetOrder returns one order restricted to the attraction's items.
func (s *AttendanceService) GetOrder(ctx context.Context, actor Actor, orderID int, attractionID *int) (*models.ExternalOrderWithItems, error) {
	target, err := resolveAttraction(actor, attractionID)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetOrderForAttraction(ctx, orderID, target)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

func (s *AttendanceService) scopedItem(ctx context.Context, actor Actor, itemID int) (*models.ExternalOrderItem, error) {
	item, err := s.orders.GetItem(ctx, itemID)
	if err != nil {
		return nil, notFound(err, "item")
	}
	if !actor.CanAccessAttraction(item.AttractionID) {
		return nil, utils.ErrOutsideAttraction
	}
	return item, nil
}

func (s *AttendanceService) scopedSale(ctx context.Context, actor Actor, saleID int) (*models.Sale, *int, error) {
	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, nil, notFound(err, "sale")
	}
	var attractionID *int
	product, err := s.products.GetByID(ctx, sale.ProductID)
	switch {
	case err == nil:
		attractionID = product.AttractionID
	case !errors.Is(err, sql.ErrNoRows):
		return nil, nil, err
	}
	if !actor.CanAccessAttraction(attractionID) {
		return nil, nil, utils.ErrOutsideAttraction
	}
	return sale, attractionID, nil
}

func (s *AttendanceService) reloadItem(ctx context.Context, itemID int) (*models.ExternalOrderItem, error) {
	item, err := s.orders.GetItem(ctx, itemID)
	if err != nil {
		return nil, notFound(err, "item")
	}
	return item, nil
}

func (s *AttendanceService) reloadSale(ctx context.Context, saleID int) (*models.Sale, error) {
	sale, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, notFound(err, "sale")
	}
	return sale, nil
}

func (s *AttendanceService) recordChange(origin models.LedgerOrigin, id int, confirmed bool, actor Actor, attractionID *int) {
	action := "cancel"
	if confirmed {
		action = "confirm"
	}
	metrics.AttendanceChanges.WithLabelValues(string(origin), action).Inc()
	log.Info().
		Str("origin", string(origin)).
		Int("id", id).
		Str("action", action).
		Int("operator_id", actor.OperatorID).
		Msg("Attendance changed")

	operatorID := actor.OperatorID
	s.notifier.NotifyAttendanceChanged(sse.AttendanceChange{
		Origin:       origin,
		ID:           id,
		Confirmed:    confirmed,
		OperatorID:   &operatorID,
		AttractionID: attractionID,
	})
}

// resolveAttraction picks the attraction an operation applies to. Restricted
// actors are pinned to their own attraction; others must name one.
func resolveAttraction(actor Actor, requested *int) (int, error) {
	if scope, restricted := actor.Attraction(); restricted {
		if requested != nil && *requested != scope {
			return 0, utils.ErrOutsideAttraction
		}
		return scope, nil
	}
	if requested == nil || *requested <= 0 {
		return 0, utils.Validationf("attractionId is required")
	}
	return *requested, nil
}
