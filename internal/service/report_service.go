package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/utils"
)

const reportDateLayout = "2006-01-02"

// LedgerReader reads the raw ledger rows of one attraction within [from, to).
type LedgerReader interface {
	LedgerForAttraction(ctx context.Context, attractionID int, from, to *time.Time) ([]models.LedgerSource, error)
}

// SalesAggregator aggregates sale totals per operator within [from, to).
type SalesAggregator interface {
	OperatorTotals(ctx context.Context, from, to *time.Time) ([]models.OperatorSalesTotal, error)
}

// DashboardReader computes attraction panel counters.
type DashboardReader interface {
	Dashboard(ctx context.Context, attractionID int, dayStart, dayEnd time.Time) (*models.AttractionDashboard, error)
}

// ReportService builds the unified attraction ledger, the attraction dashboard
// and the operator leaderboard. Calendar boundaries use loc.
type ReportService struct {
	external    LedgerReader
	pos         LedgerReader
	sales       SalesAggregator
	dashboards  DashboardReader
	attractions AttractionGetter
	loc         *time.Location
	now         func() time.Time
}

func NewReportService(
	external LedgerReader,
	pos LedgerReader,
	sales SalesAggregator,
	dashboards DashboardReader,
	attractions AttractionGetter,
	loc *time.Location,
) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{
		external:    external,
		pos:         pos,
		sales:       sales,
		dashboards:  dashboards,
		attractions: attractions,
		loc:         loc,
		now:         time.Now,
	}
}

// AttractionReport merges classified external items and point-of-sale sales of
// one attraction into a ledger. dateFrom and dateTo are inclusive calendar days
// (YYYY-MM-DD); either may be empty.
func (s *ReportService) AttractionReport(ctx context.Context, actor Actor, attractionID *int, dateFrom, dateTo string) (*models.AttractionReport, error) {
	target, err := resolveAttraction(actor, attractionID)
	if err != nil {
		return nil, err
	}
	from, to, err := s.dateRange(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	attraction, err := s.attractions.GetByID(ctx, target)
	if err != nil {
		return nil, notFound(err, "attraction")
	}

	external, err := s.external.LedgerForAttraction(ctx, target, from, to)
	if err != nil {
		return nil, fmt.Errorf("load external ledger: %w", err)
	}
	pos, err := s.pos.LedgerForAttraction(ctx, target, from, to)
	if err != nil {
		return nil, fmt.Errorf("load sales ledger: %w", err)
	}

	report := BuildReport(append(external, pos...))
	report.Attraction = attraction
	report.DateFrom = from
	if to != nil {
		last := to.AddDate(0, 0, -1)
		report.DateTo = &last
	}
	return report, nil
}

// BuildReport computes commission and net per entry from the product's rule and
// aggregates the totals. Entries come back newest first. Attendance counters
// only consider external entries.
func BuildReport(rows []models.LedgerSource) *models.AttractionReport {
	report := &models.AttractionReport{
		Gross:      decimal.Zero,
		Commission: decimal.Zero,
		Net:        decimal.Zero,
		Entries:    make([]models.LedgerEntry, 0, len(rows)),
	}
	for _, r := range rows {
		rule := models.NewCommissionRule(r.CommissionType, r.CommissionValue)
		commission := rule.Commission(r.Gross, r.Quantity)
		entry := models.LedgerEntry{
			Origin:       r.Origin,
			ReferenceID:  r.ReferenceID,
			Reference:    r.Reference,
			CustomerName: r.CustomerName,
			ProductID:    r.ProductID,
			ProductName:  r.ProductName,
			Quantity:     r.Quantity,
			Gross:        r.Gross,
			Commission:   commission,
			Net:          r.Gross.Sub(commission),
			Confirmed:    r.Confirmed,
			OccurredAt:   r.OccurredAt,
		}
		report.Entries = append(report.Entries, entry)
		report.Gross = report.Gross.Add(entry.Gross)
		report.Commission = report.Commission.Add(entry.Commission)

		if r.Origin == models.OriginExternal {
			report.TotalPeople += r.Quantity
			if r.Confirmed {
				report.ConfirmedPeople += r.Quantity
			}
		}
	}
	report.Net = report.Gross.Sub(report.Commission)
	report.EntryCount = len(report.Entries)
	if report.TotalPeople > 0 {
		report.ConfirmedRatio = float64(report.ConfirmedPeople) / float64(report.TotalPeople)
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		a, b := report.Entries[i], report.Entries[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.After(b.OccurredAt)
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		return a.ReferenceID > b.ReferenceID
	})
	return report
}

// Dashboard returns the attraction's order and attendance counters for today.
func (s *ReportService) Dashboard(ctx context.Context, actor Actor, attractionID *int) (*models.AttractionDashboard, error) {
	target, err := resolveAttraction(actor, attractionID)
	if err != nil {
		return nil, err
	}
	start := startOfDay(s.now().In(s.loc))
	return s.dashboards.Dashboard(ctx, target, start, start.AddDate(0, 0, 1))
}

// Leaderboard ranks operators by the total of their sales within period.
func (s *ReportService) Leaderboard(ctx context.Context, period string) ([]models.LeaderboardEntry, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	from, to := PeriodWindow(p, s.now(), s.loc)
	totals, err := s.sales.OperatorTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	return RankOperators(totals), nil
}

// RankOperators sorts operators by total descending and assigns dense 1-based
// ranks; operators with equal totals share a rank.
func RankOperators(totals []models.OperatorSalesTotal) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, 0, len(totals))
	for _, t := range totals {
		avg := decimal.Zero
		if t.SalesCount > 0 {
			avg = t.TotalAmount.Div(decimal.NewFromInt(int64(t.SalesCount))).Round(2)
		}
		out = append(out, models.LeaderboardEntry{OperatorSalesTotal: t, AverageTicket: avg})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].TotalAmount.Cmp(out[j].TotalAmount); c != 0 {
			return c > 0
		}
		return out[i].OperatorID < out[j].OperatorID
	})
	rank := 0
	for i := range out {
		if i == 0 || !out[i].TotalAmount.Equal(out[i-1].TotalAmount) {
			rank++
		}
		out[i].Rank = rank
	}
	return out
}

var periodAliases = map[string]models.LeaderboardPeriod{
	"":             models.PeriodAllTime,
	"total":        models.PeriodAllTime,
	"hoje":         models.PeriodToday,
	"ontem":        models.PeriodYesterday,
	"ultimos7dias": models.PeriodLast7Days,
	"estemes":      models.PeriodThisMonth,
}

// ParsePeriod accepts the period names and their legacy Portuguese aliases.
func ParsePeriod(s string) (models.LeaderboardPeriod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if p, ok := periodAliases[s]; ok {
		return p, nil
	}
	switch p := models.LeaderboardPeriod(s); p {
	case models.PeriodToday, models.PeriodYesterday, models.PeriodLast7Days, models.PeriodThisMonth, models.PeriodAllTime:
		return p, nil
	}
	return "", utils.Validationf("invalid period %q", s)
}

// PeriodWindow returns the [from, to) bounds of period around now in loc. Nil
// bounds are open.
func PeriodWindow(p models.LeaderboardPeriod, now time.Time, loc *time.Location) (from, to *time.Time) {
	today := startOfDay(now.In(loc))
	bounds := func(a, b time.Time) (*time.Time, *time.Time) { return &a, &b }
	switch p {
	case models.PeriodToday:
		return bounds(today, today.AddDate(0, 0, 1))
	case models.PeriodYesterday:
		return bounds(today.AddDate(0, 0, -1), today)
	case models.PeriodLast7Days:
		start := today.AddDate(0, 0, -7)
		return &start, nil
	case models.PeriodThisMonth:
		month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		return bounds(month, month.AddDate(0, 1, 0))
	default:
		return nil, nil
	}
}

func (s *ReportService) dateRange(dateFrom, dateTo string) (from, to *time.Time, err error) {
	if dateFrom != "" {
		d, err := time.ParseInLocation(reportDateLayout, dateFrom, s.loc)
		if err != nil {
			return nil, nil, utils.Validationf("invalid dateFrom %q", dateFrom)
		}
		from = &d
	}
	if dateTo != "" {
		d, err := time.ParseInLocation(reportDateLayout, dateTo, s.loc)
		if err != nil {
			return nil, nil, utils.Validationf("invalid dateTo %q", dateTo)
		}
		end := d.AddDate(0, 0, 1)
		to = &end
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, utils.Validationf("dateFrom must not be after dateTo")
	}
	return from, to, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
