package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pdv_api/internal/cache"
	"github.com/GTDGit/pdv_api/internal/metrics"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/sse"
	"github.com/GTDGit/pdv_api/internal/utils"
	"github.com/GTDGit/pdv_api/pkg/yampi"
)

const autoClassifyBatch = 1000

// OrderStore persists synchronized orders and their classification.
type OrderStore interface {
	UpsertWithItems(ctx context.Context, o *models.ExternalOrder, items []models.ExternalOrderItem) (*models.UpsertOutcome, error)
	Classify(ctx context.Context, itemID, productID, attractionID int, operatorID *int) (int, error)
	AutoClassify(ctx context.Context, itemID, productID, attractionID int) (bool, error)
	Unclassify(ctx context.Context, itemID int, operatorID *int) error
	GetItem(ctx context.Context, id int) (*models.ExternalOrderItem, error)
	ListUnclassified(ctx context.Context, limit int) ([]models.ExternalOrderItem, error)
	UnclassifiedNames(ctx context.Context) ([]models.UnclassifiedName, error)
	GetOrder(ctx context.Context, id int) (*models.ExternalOrderWithItems, error)
	ListOrders(ctx context.Context, f repository.OrderFilter) ([]models.ExternalOrder, int, error)
	ClassificationHistory(ctx context.Context, itemID int) ([]models.ClassificationEvent, error)
}

// CatalogReader reads the product catalog.
type CatalogReader interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
}

// AttractionGetter resolves attractions.
type AttractionGetter interface {
	GetByID(ctx context.Context, id int) (*models.Attraction, error)
}

// OrderSource is the external order provider.
type OrderSource interface {
	ListOrders(ctx context.Context, q yampi.OrderQuery) (*yampi.OrdersResponse, error)
	ListStatuses(ctx context.Context) ([]yampi.Status, error)
	CountProducts(ctx context.Context) (int, error)
}

// OrderSourceFactory builds a provider client for the configured credentials.
type OrderSourceFactory func(creds yampi.Credentials) OrderSource

// CredentialSource provides the current provider credentials.
type CredentialSource interface {
	YampiCredentials() yampi.Credentials
}

// SyncGuard makes sync single-flight. Extend renews the lease of the current
// holder and fails with cache.ErrLockLost once it is gone.
type SyncGuard interface {
	Acquire(ctx context.Context) (func(), error)
	Extend(ctx context.Context) error
}

// StatusCacher caches the provider's order statuses per store.
type StatusCacher interface {
	Get(ctx context.Context, alias string, dst any) (bool, error)
	Set(ctx context.Context, alias string, statuses any) error
}

// SyncOptions narrows a sync run.
type SyncOptions struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	StatusIDs []int  `json:"statusIds"`
	DateFrom  string `json:"dateFrom"`
	DateTo    string `json:"dateTo"`
}

// SyncResult summarizes a sync run.
type SyncResult struct {
	Success        bool   `json:"success"`
	Created        int    `json:"created"`
	Updated        int    `json:"updated"`
	Errors         int    `json:"errors"`
	AutoClassified int    `json:"autoClassified"`
	PagesProcessed int    `json:"pagesProcessed"`
	TotalPages     int    `json:"totalPages"`
	Error          string `json:"error,omitempty"`
}

// ClassifyRequest classifies one item.
type ClassifyRequest struct {
	ItemID       int `json:"itemId" binding:"required"`
	ProductID    int `json:"productId" binding:"required"`
	AttractionID int `json:"attractionId" binding:"required"`
}

// ClassifyResult is returned by a manual classification.
type ClassifyResult struct {
	Classified   bool `json:"classified"`
	CascadeCount int  `json:"cascadeCount"`
}

// BatchItemError reports why one batch entry failed.
type BatchItemError struct {
	ItemID int    `json:"itemId"`
	Error  string `json:"error"`
}

// BatchClassifyResult summarizes a batch classification.
type BatchClassifyResult struct {
	SuccessCount int              `json:"successCount"`
	ErrorCount   int              `json:"errorCount"`
	CascadeCount int              `json:"cascadeCount"`
	Failures     []BatchItemError `json:"failures,omitempty"`
}

// AutoClassifyResult summarizes a pass of the classifier over pending items.
type AutoClassifyResult struct {
	Scanned    int `json:"scanned"`
	Classified int `json:"classified"`
}

// ConnectionResult is returned by a successful provider connection test.
type ConnectionResult struct {
	Alias        string `json:"alias"`
	ProductCount int    `json:"productCount"`
}

// ReconciliationService ingests external orders and classifies their items
// against the internal catalog.
type ReconciliationService struct {
	orders      OrderStore
	products    CatalogReader
	attractions AttractionGetter
	newSource   OrderSourceFactory
	creds       CredentialSource
	lock        SyncGuard
	statuses    StatusCacher
	notifier    sse.Notifier
	now         func() time.Time
}

// NewReconciliationService constructs a ReconciliationService. statuses may be nil.
func NewReconciliationService(
	orders OrderStore,
	products CatalogReader,
	attractions AttractionGetter,
	newSource OrderSourceFactory,
	creds CredentialSource,
	lock SyncGuard,
	statuses StatusCacher,
) *ReconciliationService {
	return &ReconciliationService{
		orders:      orders,
		products:    products,
		attractions: attractions,
		newSource:   newSource,
		creds:       creds,
		lock:        lock,
		statuses:    statuses,
		notifier:    sse.NopNotifier{},
		now:         time.Now,
	}
}

// SetNotifier sets the SSE notifier for sync events.
func (s *ReconciliationService) SetNotifier(notifier sse.Notifier) {
	s.notifier = notifier
}

func (s *ReconciliationService) source() (OrderSource, yampi.Credentials, error) {
	creds := s.creds.YampiCredentials()
	if !creds.Complete() {
		return nil, creds, utils.Validationf("yampi credentials are not configured")
	}
	return s.newSource(creds), creds, nil
}

// SyncOrders fetches every order page from the provider, in page order, and
// upserts each order. An order that fails to decode or to save is counted and
// skipped; a failing page fetch aborts the run. Only one sync runs at a time;
// the lock lease is renewed before every page and a lost lease aborts the run.
func (s *ReconciliationService) SyncOrders(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	src, _, err := s.source()
	if err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			metrics.SyncRuns.WithLabelValues("skipped").Inc()
			return nil, utils.ErrSyncInProgress
		}
		return nil, err
	}
	defer release()

	start := s.now()
	log.Info().Interface("options", opts).Msg("Starting external order sync")

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	classifier := NewClassifier(products)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	res := &SyncResult{TotalPages: page}
	for ; page <= res.TotalPages; page++ {
		if err := ctx.Err(); err != nil {
			return s.finishSync(res, start, err)
		}
		if err := s.lock.Extend(ctx); err != nil {
			if errors.Is(err, cache.ErrLockLost) {
				log.Error().Int("page", page).Msg("Sync lock lease lost, aborting")
				return s.finishSync(res, start, err)
			}
			// the lease still runs until its ttl
			log.Warn().Err(err).Int("page", page).Msg("Failed to extend sync lock")
		}

		resp, err := src.ListOrders(ctx, yampi.OrderQuery{
			Page:      page,
			Limit:     opts.Limit,
			StatusIDs: opts.StatusIDs,
			DateFrom:  opts.DateFrom,
			DateTo:    opts.DateTo,
		})
		if err != nil {
			log.Error().Err(err).Int("page", page).Msg("Failed to fetch orders page")
			return s.finishSync(res, start, utils.Upstream("yampi", err))
		}
		if tp := resp.Meta.Pagination.TotalPages; tp > res.TotalPages {
			res.TotalPages = tp
		}

		for _, rej := range resp.Rejected {
			log.Error().Err(rej.Err).Int("page", page).Int("index", rej.Index).Str("external_id", rej.ID).
				Msg("Skipping undecodable order")
			metrics.SyncedOrders.WithLabelValues("error").Inc()
			res.Errors++
		}
		for i := range resp.Data {
			s.ingest(ctx, &resp.Data[i], classifier, res)
		}
		res.PagesProcessed++
	}

	return s.finishSync(res, start, nil)
}

func (s *ReconciliationService) ingest(ctx context.Context, o *yampi.Order, classifier *Classifier, res *SyncResult) {
	order, items := MapOrder(o, s.now())
	for i := range items {
		if m, ok := classifier.Classify(items[i].ProductName); ok {
			productID, attractionID := m.ProductID, m.AttractionID
			items[i].ProductID = &productID
			items[i].AttractionID = &attractionID
			items[i].Classified = true
		}
	}

	outcome, err := s.orders.UpsertWithItems(ctx, order, items)
	if err != nil {
		log.Error().Err(err).Int64("external_id", o.ID).Str("number", order.Number).Msg("Failed to save order")
		metrics.SyncedOrders.WithLabelValues("error").Inc()
		res.Errors++
		return
	}
	if outcome.Created {
		res.Created++
		metrics.SyncedOrders.WithLabelValues("created").Inc()
	} else {
		res.Updated++
		metrics.SyncedOrders.WithLabelValues("updated").Inc()
	}
	if outcome.AutoClassified > 0 {
		res.AutoClassified += outcome.AutoClassified
		metrics.Classifications.WithLabelValues(string(models.ClassificationAuto)).Add(float64(outcome.AutoClassified))
	}
}

func (s *ReconciliationService) finishSync(res *SyncResult, start time.Time, err error) (*SyncResult, error) {
	metrics.SyncDuration.Observe(s.now().Sub(start).Seconds())
	if err != nil {
		res.Error = err.Error()
		metrics.SyncRuns.WithLabelValues("failed").Inc()
		log.Error().Err(err).
			Int("created", res.Created).
			Int("updated", res.Updated).
			Int("errors", res.Errors).
			Int("pages", res.PagesProcessed).
			Msg("External order sync failed")
		return res, err
	}

	res.Success = true
	metrics.SyncRuns.WithLabelValues("success").Inc()
	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("errors", res.Errors).
		Int("auto_classified", res.AutoClassified).
		Int("pages", res.PagesProcessed).
		Dur("duration", s.now().Sub(start)).
		Msg("External order sync completed")
	s.notifier.NotifyOrdersSynced(sse.SyncSummary{
		Created: res.Created,
		Updated: res.Updated,
		Errors:  res.Errors,
		Pages:   res.PagesProcessed,
	})
	return res, nil
}

// ClassifyItem links an item to a product and attraction and cascades the same
// pair to every other unclassified item with the identical external name.
func (s *ReconciliationService) ClassifyItem(ctx context.Context, actor Actor, req ClassifyRequest) (*ClassifyResult, error) {
	if req.ItemID <= 0 || req.ProductID <= 0 || req.AttractionID <= 0 {
		return nil, utils.Validationf("itemId, productId and attractionId are required")
	}
	item, err := s.orders.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, notFound(err, "item")
	}
	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if _, err := s.attractions.GetByID(ctx, req.AttractionID); err != nil {
		return nil, notFound(err, "attraction")
	}
	if product.AttractionID != nil && *product.AttractionID != req.AttractionID {
		return nil, utils.Validationf("product %d belongs to attraction %d", product.ID, *product.AttractionID)
	}

	operatorID := actor.OperatorID
	cascaded, err := s.orders.Classify(ctx, item.ID, product.ID, req.AttractionID, &operatorID)
	if err != nil {
		return nil, notFound(err, "item")
	}

	metrics.Classifications.WithLabelValues(string(models.ClassificationManual)).Inc()
	if cascaded > 0 {
		metrics.Classifications.WithLabelValues(string(models.ClassificationCascade)).Add(float64(cascaded))
	}
	log.Info().
		Int("item_id", item.ID).
		Str("product_name", item.ProductName).
		Int("product_id", product.ID).
		Int("attraction_id", req.AttractionID).
		Int("operator_id", operatorID).
		Int("cascade_count", cascaded).
		Msg("Item classified")

	return &ClassifyResult{Classified: true, CascadeCount: cascaded}, nil
}

// ClassifyBatch classifies each entry independently; one failure does not stop
// the others.
func (s *ReconciliationService) ClassifyBatch(ctx context.Context, actor Actor, reqs []ClassifyRequest) (*BatchClassifyResult, error) {
	if len(reqs) == 0 {
		return nil, utils.Validationf("items are required")
	}
	out := &BatchClassifyResult{}
	for _, req := range reqs {
		res, err := s.ClassifyItem(ctx, actor, req)
		if err != nil {
			log.Warn().Err(err).Int("item_id", req.ItemID).Msg("Batch classification entry failed")
			out.ErrorCount++
			out.Failures = append(out.Failures, BatchItemError{ItemID: req.ItemID, Error: err.Error()})
			continue
		}
		out.SuccessCount++
		out.CascadeCount += res.CascadeCount
	}
	return out, nil
}

// Unclassify removes an item's classification. Items with confirmed attendance
// keep it, since they are already part of an attraction's ledger.
func (s *ReconciliationService) Unclassify(ctx context.Context, actor Actor, itemID int) error {
	item, err := s.orders.GetItem(ctx, itemID)
	if err != nil {
		return notFound(err, "item")
	}
	if item.Attendance.Confirmed {
		return fmt.Errorf("%w: item %d has confirmed attendance", utils.ErrConflict, itemID)
	}
	operatorID := actor.OperatorID
	if err := s.orders.Unclassify(ctx, itemID, &operatorID); err != nil {
		return notFound(err, "item")
	}
	log.Info().Int("item_id", itemID).Int("operator_id", operatorID).Msg("Item unclassified")
	return nil
}

// AutoClassifyPending runs the classifier over items still unclassified, for
// example after new products were added to the catalog.
func (s *ReconciliationService) AutoClassifyPending(ctx context.Context) (*AutoClassifyResult, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	classifier := NewClassifier(products)

	items, err := s.orders.ListUnclassified(ctx, autoClassifyBatch)
	if err != nil {
		return nil, err
	}
	out := &AutoClassifyResult{Scanned: len(items)}
	for _, it := range items {
		m, ok := classifier.Classify(it.ProductName)
		if !ok {
			continue
		}
		changed, err := s.orders.AutoClassify(ctx, it.ID, m.ProductID, m.AttractionID)
		if err != nil {
			log.Error().Err(err).Int("item_id", it.ID).Msg("Failed to auto-classify item")
			continue
		}
		if changed {
			out.Classified++
		}
	}
	if out.Classified > 0 {
		metrics.Classifications.WithLabelValues(string(models.ClassificationAuto)).Add(float64(out.Classified))
	}
	log.Info().Int("scanned", out.Scanned).Int("classified", out.Classified).Msg("Pending items auto-classified")
	return out, nil
}

// TestConnection checks the provider credentials by counting catalog products.
func (s *ReconciliationService) TestConnection(ctx context.Context) (*ConnectionResult, error) {
	src, creds, err := s.source()
	if err != nil {
		return nil, err
	}
	count, err := src.CountProducts(ctx)
	if err != nil {
		return nil, utils.Upstream("yampi", err)
	}
	return &ConnectionResult{Alias: creds.Alias, ProductCount: count}, nil
}

// Statuses lists the order statuses configured in the provider checkout.
func (s *ReconciliationService) Statuses(ctx context.Context) ([]yampi.Status, error) {
	src, creds, err := s.source()
	if err != nil {
		return nil, err
	}
	if s.statuses != nil {
		var cached []yampi.Status
		if hit, err := s.statuses.Get(ctx, creds.Alias, &cached); err != nil {
			log.Warn().Err(err).Msg("Status cache read failed")
		} else if hit {
			return cached, nil
		}
	}

	statuses, err := src.ListStatuses(ctx)
	if err != nil {
		return nil, utils.Upstream("yampi", err)
	}
	if s.statuses != nil {
		if err := s.statuses.Set(ctx, creds.Alias, statuses); err != nil {
			log.Warn().Err(err).Msg("Status cache write failed")
		}
	}
	return statuses, nil
}

// ListOrders returns a page of synchronized orders.
func (s *ReconciliationService) ListOrders(ctx context.Context, f repository.OrderFilter) ([]models.ExternalOrder, int, error) {
	return s.orders.ListOrders(ctx, f)
}

// GetOrder returns an order with its items.
func (s *ReconciliationService) GetOrder(ctx context.Context, id int) (*models.ExternalOrderWithItems, error) {
	o, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return o, nil
}

// UnclassifiedNames lists external product names awaiting manual classification.
func (s *ReconciliationService) UnclassifiedNames(ctx context.Context) ([]models.UnclassifiedName, error) {
	return s.orders.UnclassifiedNames(ctx)
}

// ClassificationHistory returns the audit trail of an item.
func (s *ReconciliationService) ClassificationHistory(ctx context.Context, itemID int) ([]models.ClassificationEvent, error) {
	if _, err := s.orders.GetItem(ctx, itemID); err != nil {
		return nil, notFound(err, "item")
	}
	return s.orders.ClassificationHistory(ctx, itemID)
}
