package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/utils"
)

type attendanceFixture struct {
	svc      *AttendanceService
	orders   *memOrderStore
	sales    *fakeSaleStore
	notifier *recordingNotifier
	clock    time.Time
}

// newAttendanceFixture stores one order whose items 1 and 2 belong to
// attraction 10, item 3 to attraction 20 and item 4 is unclassified.
func newAttendanceFixture(t *testing.T) *attendanceFixture {
	t.Helper()
	f := &attendanceFixture{
		orders:   newMemOrderStore(),
		sales:    newFakeSaleStore(),
		notifier: &recordingNotifier{},
		clock:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	products := newFakeProducts(
		models.Product{ID: 1, Name: "Dreamhouse", AttractionID: intPtr(10), IsActive: true},
		models.Product{ID: 3, Name: "Museu", AttractionID: intPtr(20), IsActive: true},
	)
	f.svc = NewAttendanceService(f.orders, f.sales, products)
	f.svc.SetNotifier(f.notifier)
	f.svc.now = func() time.Time { return f.clock }

	classified := func(ext int64, attraction int) models.ExternalOrderItem {
		return models.ExternalOrderItem{
			ExternalItemID: ext, ProductName: "x", Quantity: 1,
			ProductID: intPtr(1), AttractionID: intPtr(attraction), Classified: true,
		}
	}
	_, err := f.orders.UpsertWithItems(context.Background(), &models.ExternalOrder{ExternalID: 1, Number: "1001"}, []models.ExternalOrderItem{
		classified(1, 10), classified(2, 10), classified(3, 20), {ExternalItemID: 4, ProductName: "y", Quantity: 1},
	})
	require.NoError(t, err)

	require.NoError(t, f.sales.Create(context.Background(), &models.Sale{ProductID: 1, ClientName: "A"}, NextSaleCode))
	require.NoError(t, f.sales.Create(context.Background(), &models.Sale{ProductID: 3, ClientName: "B"}, NextSaleCode))
	return f
}

func attractionActor(id, attraction int) Actor {
	return Actor{OperatorID: id, Role: models.RoleAttraction, AttractionID: intPtr(attraction)}
}

func TestAttendanceService_ConfirmItem(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	actor := attractionActor(5, 10)

	item, err := f.svc.ConfirmItem(ctx, actor, 1)
	require.NoError(t, err)
	assert.True(t, item.Attendance.Confirmed)
	assert.Equal(t, 5, *item.Attendance.ConfirmedBy)
	require.Len(t, f.notifier.attendance, 1)
	assert.True(t, f.notifier.attendance[0].Confirmed)

	f.clock = f.clock.Add(time.Hour)
	_, err = f.svc.ConfirmItem(ctx, attractionActor(6, 10), 1)
	assert.ErrorIs(t, err, utils.ErrAlreadyConfirmed)
	assert.ErrorIs(t, err, utils.ErrConflict)

	stored, _ := f.orders.GetItem(ctx, 1)
	assert.Equal(t, 5, *stored.Attendance.ConfirmedBy)
	assert.True(t, stored.Attendance.ConfirmedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestAttendanceService_ConfirmItem_Scope(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()

	_, err := f.svc.ConfirmItem(ctx, attractionActor(5, 10), 3)
	assert.ErrorIs(t, err, utils.ErrOutsideAttraction)

	_, err = f.svc.ConfirmItem(ctx, Actor{OperatorID: 5, Role: models.RoleAttraction}, 1)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.svc.ConfirmItem(ctx, Actor{OperatorID: 1, Role: models.RoleAdmin}, 4)
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.ConfirmItem(ctx, Actor{OperatorID: 1, Role: models.RoleAdmin}, 99)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.svc.ConfirmItem(ctx, Actor{OperatorID: 1, Role: models.RoleAdmin}, 3)
	assert.NoError(t, err)
}

func TestAttendanceService_CancelItemIsIdempotent(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	actor := attractionActor(5, 10)

	_, err := f.svc.ConfirmItem(ctx, actor, 2)
	require.NoError(t, err)

	item, err := f.svc.CancelItem(ctx, actor, 2)
	require.NoError(t, err)
	assert.False(t, item.Attendance.Confirmed)
	assert.Nil(t, item.Attendance.ConfirmedAt)

	item, err = f.svc.CancelItem(ctx, actor, 2)
	require.NoError(t, err)
	assert.False(t, item.Attendance.Confirmed)
	assert.Len(t, f.notifier.attendance, 2)
}

func TestAttendanceService_ConfirmAll(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	actor := attractionActor(5, 10)

	_, err := f.svc.ConfirmItem(ctx, actor, 1)
	require.NoError(t, err)

	res, err := f.svc.ConfirmAll(ctx, actor, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ConfirmAllResult{Confirmed: 1, AlreadyConfirmed: 1, Skipped: 2}, *res)

	other, _ := f.orders.GetItem(ctx, 3)
	assert.False(t, other.Attendance.Confirmed)

	_, err = f.svc.ConfirmAll(ctx, actor, 1, intPtr(20))
	assert.ErrorIs(t, err, utils.ErrOutsideAttraction)

	admin := Actor{OperatorID: 1, Role: models.RoleAdmin}
	_, err = f.svc.ConfirmAll(ctx, admin, 1, nil)
	assert.ErrorIs(t, err, utils.ErrValidation)
	_, err = f.svc.ConfirmAll(ctx, admin, 77, intPtr(20))
	assert.ErrorIs(t, err, utils.ErrNotFound)

	res, err = f.svc.ConfirmAll(ctx, admin, 1, intPtr(20))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Confirmed)
}

func TestAttendanceService_Sales(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	actor := attractionActor(5, 10)

	sale, err := f.svc.ConfirmSale(ctx, actor, 1)
	require.NoError(t, err)
	assert.True(t, sale.Attendance.Confirmed)

	_, err = f.svc.ConfirmSale(ctx, actor, 1)
	assert.ErrorIs(t, err, utils.ErrAlreadyConfirmed)

	_, err = f.svc.ConfirmSale(ctx, actor, 2)
	assert.ErrorIs(t, err, utils.ErrOutsideAttraction)

	sale, err = f.svc.CancelSale(ctx, actor, 1)
	require.NoError(t, err)
	assert.False(t, sale.Attendance.Confirmed)

	_, err = f.svc.CancelSale(ctx, actor, 404)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	require.Len(t, f.notifier.attendance, 2)
	assert.Equal(t, models.OriginPOS, f.notifier.attendance[1].Origin)
}

func TestAttendanceService_ListAndGetOrders(t *testing.T) {
	f := newAttendanceFixture(t)
	ctx := context.Background()
	actor := attractionActor(5, 20)

	orders, total, err := f.svc.ListOrders(ctx, actor, nil, repository.AttendancePending, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 3, orders[0].Items[0].ID)

	_, err = f.svc.ConfirmItem(ctx, actor, 3)
	require.NoError(t, err)
	_, total, err = f.svc.ListOrders(ctx, actor, nil, repository.AttendancePending, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	_, _, err = f.svc.ListOrders(ctx, actor, nil, "bogus", 1, 20)
	assert.ErrorIs(t, err, utils.ErrValidation)

	o, err := f.svc.GetOrder(ctx, actor, 1, nil)
	require.NoError(t, err)
	assert.Len(t, o.Items, 1)

	_, err = f.svc.GetOrder(ctx, attractionActor(5, 30), 1, nil)
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
