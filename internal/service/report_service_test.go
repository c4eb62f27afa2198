package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/utils"
)

var saoPaulo = time.FixedZone("BRT", -3*60*60)

func at(day, hour int) time.Time {
	return time.Date(2024, 6, day, hour, 0, 0, 0, saoPaulo)
}

func ledgerRows() []models.LedgerSource {
	return []models.LedgerSource{
		{Origin: models.OriginExternal, ReferenceID: 1, Quantity: 2, Gross: dec("100"), CommissionType: models.CommissionPercentage, CommissionValue: dec("10"), Confirmed: true, OccurredAt: at(1, 10)},
		{Origin: models.OriginExternal, ReferenceID: 2, Quantity: 3, Gross: dec("150"), CommissionType: models.CommissionFixed, CommissionValue: dec("5"), OccurredAt: at(3, 9)},
		{Origin: models.OriginPOS, ReferenceID: 7, Quantity: 4, Gross: dec("80"), CommissionType: models.CommissionFixed, CommissionValue: dec("2.5"), Confirmed: true, OccurredAt: at(2, 15)},
		{Origin: models.OriginPOS, ReferenceID: 8, Quantity: 1, Gross: dec("40"), OccurredAt: at(5, 12)},
	}
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(ledgerRows())

	assert.True(t, dec("370").Equal(report.Gross), report.Gross.String())
	// 10 + 3*5 + 4*2.5 + 0
	assert.True(t, dec("35").Equal(report.Commission), report.Commission.String())
	assert.True(t, dec("335").Equal(report.Net), report.Net.String())
	assert.Equal(t, 4, report.EntryCount)

	assert.Equal(t, 5, report.TotalPeople)
	assert.Equal(t, 2, report.ConfirmedPeople)
	assert.InDelta(t, 0.4, report.ConfirmedRatio, 1e-9)

	require.Len(t, report.Entries, 4)
	assert.Equal(t, 8, report.Entries[0].ReferenceID)
	assert.Equal(t, 1, report.Entries[3].ReferenceID)
	assert.True(t, dec("15").Equal(report.Entries[1].Commission))

	sumGross, sumCommission := decimal.Zero, decimal.Zero
	for _, e := range report.Entries {
		sumGross = sumGross.Add(e.Gross)
		sumCommission = sumCommission.Add(e.Commission)
		assert.True(t, e.Net.Equal(e.Gross.Sub(e.Commission)))
	}
	assert.True(t, sumGross.Equal(report.Gross))
	assert.True(t, sumCommission.Equal(report.Commission))
}

func TestBuildReport_OrderIndependent(t *testing.T) {
	rows := ledgerRows()
	reversed := make([]models.LedgerSource, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}
	a, b := BuildReport(rows), BuildReport(reversed)
	assert.True(t, a.Gross.Equal(b.Gross))
	assert.True(t, a.Commission.Equal(b.Commission))
	assert.Equal(t, a.Entries, b.Entries)
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil)
	assert.True(t, report.Gross.IsZero())
	assert.True(t, report.Net.IsZero())
	assert.Empty(t, report.Entries)
	assert.NotNil(t, report.Entries)
	assert.Zero(t, report.ConfirmedRatio)
}

func newReportFixture() (*ReportService, *memOrderStore, *fakeSaleStore) {
	rows := ledgerRows()
	orders := newMemOrderStore()
	orders.ledger = rows[:2]
	sales := newFakeSaleStore()
	sales.ledger = rows[2:]
	attractions := newFakeAttractions(models.Attraction{ID: 10, Name: "Dreamhouse", IsActive: true})
	svc := NewReportService(orders, sales, sales, orders, attractions, saoPaulo)
	svc.now = func() time.Time { return at(5, 20) }
	return svc, orders, sales
}

func TestReportService_AttractionReport(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()
	admin := Actor{OperatorID: 1, Role: models.RoleAdmin}

	report, err := svc.AttractionReport(ctx, admin, intPtr(10), "", "")
	require.NoError(t, err)
	assert.Equal(t, "Dreamhouse", report.Attraction.Name)
	assert.Equal(t, 4, report.EntryCount)

	// dateTo is inclusive of the whole day
	report, err = svc.AttractionReport(ctx, admin, intPtr(10), "2024-06-02", "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, 2, report.EntryCount)
	assert.True(t, dec("230").Equal(report.Gross))
	require.NotNil(t, report.DateTo)
	assert.Equal(t, 3, report.DateTo.Day())

	report, err = svc.AttractionReport(ctx, admin, intPtr(10), "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Zero(t, report.EntryCount)
	assert.True(t, report.Gross.IsZero())
	assert.True(t, report.Commission.IsZero())
	assert.True(t, report.Net.IsZero())
	assert.Empty(t, report.Entries)

	report, err = svc.AttractionReport(ctx, attractionActor(3, 10), nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, 4, report.EntryCount)
}

func TestReportService_AttractionReport_Errors(t *testing.T) {
	svc, _, _ := newReportFixture()
	ctx := context.Background()
	admin := Actor{OperatorID: 1, Role: models.RoleAdmin}

	_, err := svc.AttractionReport(ctx, admin, nil, "", "")
	assert.ErrorIs(t, err, utils.ErrValidation)
	_, err = svc.AttractionReport(ctx, admin, intPtr(10), "06/01/2024", "")
	assert.ErrorIs(t, err, utils.ErrValidation)
	_, err = svc.AttractionReport(ctx, admin, intPtr(10), "2024-06-05", "2024-06-01")
	assert.ErrorIs(t, err, utils.ErrValidation)
	_, err = svc.AttractionReport(ctx, admin, intPtr(99), "", "")
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = svc.AttractionReport(ctx, attractionActor(3, 10), intPtr(20), "", "")
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestReportService_Dashboard(t *testing.T) {
	svc, orders, _ := newReportFixture()
	orders.dashboard = models.AttractionDashboard{TotalOrders: 3}

	d, err := svc.Dashboard(context.Background(), attractionActor(3, 10), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalOrders)
	assert.True(t, orders.dayStart.Equal(at(5, 0)))
	assert.True(t, orders.dayEnd.Equal(at(6, 0)))
}

func TestReportService_Leaderboard(t *testing.T) {
	svc, _, sales := newReportFixture()
	sales.totals = []models.OperatorSalesTotal{
		{OperatorID: 2, OperatorName: "B", SalesCount: 1, TotalAmount: dec("30")},
		{OperatorID: 1, OperatorName: "A", SalesCount: 2, TotalAmount: dec("150")},
	}

	board, err := svc.Leaderboard(context.Background(), "today")
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "A", board[0].OperatorName)
	assert.Equal(t, 1, board[0].Rank)
	assert.True(t, dec("75").Equal(board[0].AverageTicket))
	assert.Equal(t, "B", board[1].OperatorName)
	assert.Equal(t, 2, board[1].Rank)
	assert.True(t, dec("30").Equal(board[1].AverageTicket))

	require.NotNil(t, sales.from)
	require.NotNil(t, sales.to)
	assert.True(t, sales.from.Equal(at(5, 0)))
	assert.True(t, sales.to.Equal(at(6, 0)))

	_, err = svc.Leaderboard(context.Background(), "forever")
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestRankOperators_DenseRank(t *testing.T) {
	board := RankOperators([]models.OperatorSalesTotal{
		{OperatorID: 3, SalesCount: 3, TotalAmount: dec("100")},
		{OperatorID: 1, SalesCount: 1, TotalAmount: dec("100")},
		{OperatorID: 2, SalesCount: 2, TotalAmount: dec("20")},
	})
	require.Len(t, board, 3)
	assert.Equal(t, []int{1, 3, 2}, []int{board[0].OperatorID, board[1].OperatorID, board[2].OperatorID})
	assert.Equal(t, []int{1, 1, 2}, []int{board[0].Rank, board[1].Rank, board[2].Rank})
	assert.True(t, dec("33.33").Equal(board[1].AverageTicket))
}

func TestPeriodWindow(t *testing.T) {
	now := at(15, 1)
	tests := []struct {
		period   models.LeaderboardPeriod
		from, to *time.Time
	}{
		{models.PeriodToday, ptrTime(at(15, 0)), ptrTime(at(16, 0))},
		{models.PeriodYesterday, ptrTime(at(14, 0)), ptrTime(at(15, 0))},
		{models.PeriodLast7Days, ptrTime(at(8, 0)), nil},
		{models.PeriodThisMonth, ptrTime(at(1, 0)), ptrTime(time.Date(2024, 7, 1, 0, 0, 0, 0, saoPaulo))},
		{models.PeriodAllTime, nil, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			from, to := PeriodWindow(tt.period, now, saoPaulo)
			assertTimePtr(t, tt.from, from)
			assertTimePtr(t, tt.to, to)
		})
	}

	p, err := ParsePeriod("ontem")
	require.NoError(t, err)
	assert.Equal(t, models.PeriodYesterday, p)
}

func ptrTime(t time.Time) *time.Time { return &t }

func assertTimePtr(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s got %s", want, got)
}
