package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/sse"
	"github.com/GTDGit/pdv_api/pkg/evoapi"
)

type fakeSaleStore struct {
	mu       sync.Mutex
	sales    map[int]*models.Sale
	nextID   int
	totals   []models.OperatorSalesTotal
	ledger   []models.LedgerSource
	from, to *time.Time
}

func newFakeSaleStore() *fakeSaleStore {
	return &fakeSaleStore{sales: map[int]*models.Sale{}}
}

func (f *fakeSaleStore) LastCode(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCode(), nil
}

func (f *fakeSaleStore) lastCode() string {
	last := ""
	for _, s := range f.sales {
		if len(s.Code) > len(last) || (len(s.Code) == len(last) && s.Code > last) {
			last = s.Code
		}
	}
	return last
}

func (f *fakeSaleStore) Create(_ context.Context, s *models.Sale, next repository.CodeAllocator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, err := next(f.lastCode())
	if err != nil {
		return err
	}
	f.nextID++
	s.ID = f.nextID
	s.Code = code
	s.CreatedAt = time.Now()
	cp := *s
	f.sales[s.ID] = &cp
	return nil
}

func (f *fakeSaleStore) GetByID(_ context.Context, id int) (*models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSaleStore) ListRecent(_ context.Context, limit int) ([]models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Sale{}
	for _, s := range f.sales {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSaleStore) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sales[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.sales, id)
	return nil
}

func (f *fakeSaleStore) UpdateDelivery(_ context.Context, id int, sent bool, deliveryErr *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.DeliverySent = sent
	s.DeliveryError = deliveryErr
	return nil
}

func (f *fakeSaleStore) ConfirmAttendance(_ context.Context, id, operatorID int, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok || s.Attendance.Confirmed {
		return false, nil
	}
	s.Attendance = models.Attendance{Confirmed: true, ConfirmedAt: &at, ConfirmedBy: &operatorID}
	return true, nil
}

func (f *fakeSaleStore) CancelAttendance(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Attendance = models.Attendance{}
	return nil
}

func (f *fakeSaleStore) OperatorTotals(_ context.Context, from, to *time.Time) ([]models.OperatorSalesTotal, error) {
	f.from, f.to = from, to
	return f.totals, nil
}

func (f *fakeSaleStore) LedgerForAttraction(_ context.Context, _ int, from, to *time.Time) ([]models.LedgerSource, error) {
	return filterLedger(f.ledger, from, to), nil
}

func filterLedger(rows []models.LedgerSource, from, to *time.Time) []models.LedgerSource {
	out := []models.LedgerSource{}
	for _, r := range rows {
		if from != nil && r.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && !r.OccurredAt.Before(*to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

type fakeProducts struct {
	products map[int]*models.Product
}

func newFakeProducts(list ...models.Product) *fakeProducts {
	f := &fakeProducts{products: map[int]*models.Product{}}
	for i := range list {
		p := list[i]
		f.products[p.ID] = &p
	}
	return f
}

func (f *fakeProducts) GetByID(_ context.Context, id int) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) ListActive(context.Context) ([]models.Product, error) {
	out := []models.Product{}
	for _, p := range f.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeDeliverer struct {
	result DeliveryResult
	calls  []string
}

func (f *fakeDeliverer) Deliver(_ context.Context, sale *models.Sale, phone string) DeliveryResult {
	f.calls = append(f.calls, sale.Code+":"+phone)
	return f.result
}

type fakeImager struct{}

func (fakeImager) Render(*models.Sale) ([]byte, error) { return []byte("jpeg"), nil }

type fakeSender struct {
	err  error
	sent []evoapi.MediaMessage
	cfg  evoapi.Config
}

func (f *fakeSender) SendMedia(_ context.Context, cfg evoapi.Config, msg evoapi.MediaMessage) (json.RawMessage, error) {
	f.cfg = cfg
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"status":"PENDING"}`), nil
}

type staticMessaging MessagingSettings

func (s staticMessaging) Messaging() MessagingSettings { return MessagingSettings(s) }

type fakeSettingStore struct {
	rows map[string]models.Setting
}

func newFakeSettingStore() *fakeSettingStore {
	return &fakeSettingStore{rows: map[string]models.Setting{}}
}

func (f *fakeSettingStore) List(context.Context) ([]models.Setting, error) {
	out := []models.Setting{}
	for _, s := range f.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeSettingStore) SeedDefaults(_ context.Context, defaults []models.Setting) error {
	for _, d := range defaults {
		if _, ok := f.rows[d.Key]; !ok {
			f.rows[d.Key] = d
		}
	}
	return nil
}

func (f *fakeSettingStore) Update(_ context.Context, key, value string) error {
	s, ok := f.rows[key]
	if !ok {
		return sql.ErrNoRows
	}
	s.Value = value
	f.rows[key] = s
	return nil
}

type recordingNotifier struct {
	sales      []*models.Sale
	attendance []sse.AttendanceChange
	syncs      []sse.SyncSummary
}

func (n *recordingNotifier) NotifySaleCreated(sale *models.Sale, _ *int) {
	n.sales = append(n.sales, sale)
}

func (n *recordingNotifier) NotifyAttendanceChanged(change sse.AttendanceChange) {
	n.attendance = append(n.attendance, change)
}

func (n *recordingNotifier) NotifyOrdersSynced(summary sse.SyncSummary) {
	n.syncs = append(n.syncs, summary)
}
