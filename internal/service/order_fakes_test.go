package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/GTDGit/pdv_api/internal/cache"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/pkg/yampi"
)

// memOrderStore mirrors the transactional behavior of OrderRepository in memory.
type memOrderStore struct {
	orders     map[int]*models.ExternalOrder
	byExternal map[int64]int
	items      map[int]*models.ExternalOrderItem
	events     []models.ClassificationEvent
	nextOrder  int
	nextItem   int
	failOn     map[int64]bool

	ledger    []models.LedgerSource
	dashboard models.AttractionDashboard
	dayStart  time.Time
	dayEnd    time.Time
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{
		orders:     map[int]*models.ExternalOrder{},
		byExternal: map[int64]int{},
		items:      map[int]*models.ExternalOrderItem{},
		failOn:     map[int64]bool{},
	}
}

func (m *memOrderStore) orderItems(orderID int) []models.ExternalOrderItem {
	out := []models.ExternalOrderItem{}
	for _, it := range m.items {
		if it.OrderID == orderID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memOrderStore) refresh(orderID int) {
	o, ok := m.orders[orderID]
	if !ok {
		return
	}
	o.Processed = true
	for _, it := range m.orderItems(orderID) {
		if !it.Classified {
			o.Processed = false
		}
	}
}

func (m *memOrderStore) event(itemID int, productID, attractionID, operatorID *int, source models.ClassificationSource) {
	m.events = append(m.events, models.ClassificationEvent{
		ID: len(m.events) + 1, ItemID: itemID, ProductID: productID,
		AttractionID: attractionID, OperatorID: operatorID, Source: source,
	})
}

func (m *memOrderStore) UpsertWithItems(_ context.Context, o *models.ExternalOrder, items []models.ExternalOrderItem) (*models.UpsertOutcome, error) {
	if m.failOn[o.ExternalID] {
		return nil, errors.New("null value in column")
	}
	out := &models.UpsertOutcome{}
	id, exists := m.byExternal[o.ExternalID]
	if !exists {
		m.nextOrder++
		id = m.nextOrder
		m.byExternal[o.ExternalID] = id
		out.Created = true
	}
	cp := *o
	cp.ID = id
	m.orders[id] = &cp
	o.ID = id
	out.OrderID = id

	var stored []models.ExternalOrderItem
	if exists {
		stored = m.orderItems(id)
	}
	plan := repository.PlanItemMerge(stored, items)
	for _, d := range plan.Delete {
		delete(m.items, d)
		out.ItemsDeleted++
	}
	for _, u := range plan.Update {
		cur := m.items[u.ID]
		cur.ProductName, cur.SKU, cur.Quantity = u.Incoming.ProductName, u.Incoming.SKU, u.Incoming.Quantity
		cur.UnitPrice, cur.LineTotal = u.Incoming.UnitPrice, u.Incoming.LineTotal
		if u.Classify {
			cur.ProductID, cur.AttractionID, cur.Classified = u.Incoming.ProductID, u.Incoming.AttractionID, true
			m.event(cur.ID, cur.ProductID, cur.AttractionID, nil, models.ClassificationAuto)
			out.AutoClassified++
		}
		out.ItemsUpdated++
	}
	for _, in := range plan.Insert {
		m.nextItem++
		it := in
		it.ID = m.nextItem
		it.OrderID = id
		m.items[it.ID] = &it
		out.ItemsInserted++
		if it.Classified {
			m.event(it.ID, it.ProductID, it.AttractionID, nil, models.ClassificationAuto)
			out.AutoClassified++
		}
	}
	m.refresh(id)
	return out, nil
}

func (m *memOrderStore) Classify(_ context.Context, itemID, productID, attractionID int, operatorID *int) (int, error) {
	target, ok := m.items[itemID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	p, a := productID, attractionID
	target.ProductID, target.AttractionID, target.Classified = &p, &a, true
	m.event(itemID, &p, &a, operatorID, models.ClassificationManual)

	cascaded := 0
	for _, it := range m.items {
		if it.ID == itemID || it.Classified || it.ProductName != target.ProductName {
			continue
		}
		it.ProductID, it.AttractionID, it.Classified = &p, &a, true
		m.event(it.ID, &p, &a, operatorID, models.ClassificationCascade)
		m.refresh(it.OrderID)
		cascaded++
	}
	m.refresh(target.OrderID)
	return cascaded, nil
}

func (m *memOrderStore) AutoClassify(_ context.Context, itemID, productID, attractionID int) (bool, error) {
	it, ok := m.items[itemID]
	if !ok {
		return false, sql.ErrNoRows
	}
	if it.Classified {
		return false, nil
	}
	p, a := productID, attractionID
	it.ProductID, it.AttractionID, it.Classified = &p, &a, true
	m.event(itemID, &p, &a, nil, models.ClassificationAuto)
	m.refresh(it.OrderID)
	return true, nil
}

func (m *memOrderStore) Unclassify(_ context.Context, itemID int, operatorID *int) error {
	it, ok := m.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	it.ProductID, it.AttractionID, it.Classified = nil, nil, false
	m.event(itemID, nil, nil, operatorID, models.ClassificationUndo)
	m.refresh(it.OrderID)
	return nil
}

func (m *memOrderStore) GetItem(_ context.Context, id int) (*models.ExternalOrderItem, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *it
	return &cp, nil
}

func (m *memOrderStore) ListUnclassified(_ context.Context, limit int) ([]models.ExternalOrderItem, error) {
	out := []models.ExternalOrderItem{}
	for _, it := range m.items {
		if !it.Classified {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOrderStore) UnclassifiedNames(context.Context) ([]models.UnclassifiedName, error) {
	byName := map[string]*models.UnclassifiedName{}
	for _, it := range m.items {
		if it.Classified {
			continue
		}
		n, ok := byName[it.ProductName]
		if !ok {
			n = &models.UnclassifiedName{ProductName: it.ProductName}
			byName[it.ProductName] = n
		}
		n.ItemCount++
		n.Quantity += it.Quantity
	}
	out := []models.UnclassifiedName{}
	for _, n := range byName {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

func (m *memOrderStore) GetOrder(_ context.Context, id int) (*models.ExternalOrderWithItems, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ExternalOrderWithItems{ExternalOrder: *o, Items: m.orderItems(id)}, nil
}

func (m *memOrderStore) ListOrders(_ context.Context, f repository.OrderFilter) ([]models.ExternalOrder, int, error) {
	out := []models.ExternalOrder{}
	for _, o := range m.orders {
		if f.Processed != nil && o.Processed != *f.Processed {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memOrderStore) ClassificationHistory(_ context.Context, itemID int) ([]models.ClassificationEvent, error) {
	out := []models.ClassificationEvent{}
	for _, e := range m.events {
		if e.ItemID == itemID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memOrderStore) ConfirmItem(_ context.Context, itemID, operatorID int, at time.Time) (bool, error) {
	it, ok := m.items[itemID]
	if !ok || it.Attendance.Confirmed {
		return false, nil
	}
	it.Attendance = models.Attendance{Confirmed: true, ConfirmedAt: &at, ConfirmedBy: &operatorID}
	return true, nil
}

func (m *memOrderStore) CancelItem(_ context.Context, itemID int) error {
	if it, ok := m.items[itemID]; ok {
		it.Attendance = models.Attendance{}
	}
	return nil
}

func (m *memOrderStore) ConfirmAllForOrder(_ context.Context, orderID, attractionID, operatorID int, at time.Time) (*models.ConfirmAllResult, error) {
	if _, ok := m.orders[orderID]; !ok {
		return nil, sql.ErrNoRows
	}
	out := &models.ConfirmAllResult{}
	for _, snapshot := range m.orderItems(orderID) {
		it := m.items[snapshot.ID]
		switch {
		case it.AttractionID == nil || *it.AttractionID != attractionID:
			out.Skipped++
		case it.Attendance.Confirmed:
			out.AlreadyConfirmed++
		default:
			it.Attendance = models.Attendance{Confirmed: true, ConfirmedAt: &at, ConfirmedBy: &operatorID}
			out.Confirmed++
		}
	}
	return out, nil
}

func (m *memOrderStore) forAttraction(o *models.ExternalOrder, attractionID int) models.ExternalOrderWithItems {
	out := models.ExternalOrderWithItems{ExternalOrder: *o, Items: []models.ExternalOrderItem{}}
	for _, it := range m.orderItems(o.ID) {
		if it.AttractionID != nil && *it.AttractionID == attractionID {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

func (m *memOrderStore) ListOrdersForAttraction(_ context.Context, attractionID int, status repository.AttendanceFilter, _, _ int) ([]models.ExternalOrderWithItems, int, error) {
	out := []models.ExternalOrderWithItems{}
	for _, o := range m.orders {
		scoped := m.forAttraction(o, attractionID)
		match := false
		for _, it := range scoped.Items {
			switch status {
			case repository.AttendancePending:
				match = match || !it.Attendance.Confirmed
			case repository.AttendanceConfirmed:
				match = match || it.Attendance.Confirmed
			default:
				match = true
			}
		}
		if match {
			out = append(out, scoped)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memOrderStore) GetOrderForAttraction(_ context.Context, orderID, attractionID int) (*models.ExternalOrderWithItems, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	scoped := m.forAttraction(o, attractionID)
	if len(scoped.Items) == 0 {
		return nil, sql.ErrNoRows
	}
	return &scoped, nil
}

func (m *memOrderStore) LedgerForAttraction(_ context.Context, _ int, from, to *time.Time) ([]models.LedgerSource, error) {
	return filterLedger(m.ledger, from, to), nil
}

func (m *memOrderStore) Dashboard(_ context.Context, _ int, dayStart, dayEnd time.Time) (*models.AttractionDashboard, error) {
	m.dayStart, m.dayEnd = dayStart, dayEnd
	d := m.dashboard
	return &d, nil
}

// fakeSource serves pre-built order pages.
type fakeSource struct {
	pages    [][]yampi.Order
	failPage int
	queries  []yampi.OrderQuery
	statuses []yampi.Status
	calls    int
}

func (f *fakeSource) ListOrders(_ context.Context, q yampi.OrderQuery) (*yampi.OrdersResponse, error) {
	f.queries = append(f.queries, q)
	if q.Page == f.failPage {
		return nil, &yampi.APIError{StatusCode: 500, Body: "boom"}
	}
	resp := &yampi.OrdersResponse{}
	resp.Meta.Pagination.TotalPages = len(f.pages)
	if q.Page >= 1 && q.Page <= len(f.pages) {
		resp.Data = f.pages[q.Page-1]
	}
	return resp, nil
}

func (f *fakeSource) ListStatuses(context.Context) ([]yampi.Status, error) {
	f.calls++
	return f.statuses, nil
}

func (f *fakeSource) CountProducts(context.Context) (int, error) { return 42, nil }

type staticCreds yampi.Credentials

func (c staticCreds) YampiCredentials() yampi.Credentials { return yampi.Credentials(c) }

type fakeGuard struct {
	held      bool
	acquired  int
	released  int
	extended  int
	loseAfter int
	extendErr error
}

func (g *fakeGuard) Acquire(context.Context) (func(), error) {
	if g.held {
		return nil, cache.ErrLockHeld
	}
	g.held = true
	g.acquired++
	return func() { g.held = false; g.released++ }, nil
}

func (g *fakeGuard) Extend(context.Context) error {
	if g.extendErr != nil {
		return g.extendErr
	}
	if !g.held || (g.loseAfter > 0 && g.extended >= g.loseAfter) {
		return cache.ErrLockLost
	}
	g.extended++
	return nil
}

type fakeAttractions struct {
	items map[int]*models.Attraction
}

func newFakeAttractions(list ...models.Attraction) *fakeAttractions {
	f := &fakeAttractions{items: map[int]*models.Attraction{}}
	for i := range list {
		a := list[i]
		f.items[a.ID] = &a
	}
	return f
}

func (f *fakeAttractions) GetByID(_ context.Context, id int) (*models.Attraction, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

type memStatusCache struct {
	data map[string][]yampi.Status
}

func (c *memStatusCache) Get(_ context.Context, alias string, dst any) (bool, error) {
	v, ok := c.data[alias]
	if !ok {
		return false, nil
	}
	*(dst.(*[]yampi.Status)) = v
	return true, nil
}

func (c *memStatusCache) Set(_ context.Context, alias string, statuses any) error {
	c.data[alias] = statuses.([]yampi.Status)
	return nil
}
