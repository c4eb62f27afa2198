package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/pdv_api/internal/database"
	"github.com/GTDGit/pdv_api/internal/models"
)

const orderColumns = `id, external_id, number, customer_name, customer_email, customer_document,
	customer_phone, status, status_id, financial_status, delivery_status, payment_method,
	value_total, value_products, value_discount, value_shipping, ordered_at, external_updated_at,
	address_street, address_number, address_complement, address_neighborhood, address_city,
	address_state, address_zipcode, processed, synced_at, created_at`

const itemColumns = `id, order_id, external_item_id, product_name, sku, quantity, unit_price, line_total,
	product_id, attraction_id, classified, classified_at, attendance_confirmed,
	attendance_confirmed_at, attendance_confirmed_by`

// AttendanceFilter narrows attraction order listings by item attendance state.
type AttendanceFilter string

const (
	AttendanceAny       AttendanceFilter = ""
	AttendancePending   AttendanceFilter = "pending"
	AttendanceConfirmed AttendanceFilter = "confirmed"
)

// OrderFilter holds the admin listing filters. Empty fields are ignored.
type OrderFilter struct {
	Processed *bool
	Search    string
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

// OrderRepository handles data access for synchronized external orders and
// their line items.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// UpsertWithItems inserts or refreshes an order keyed by external id and
// reconciles its items (see PlanItemMerge), all in one transaction. Incoming
// items may carry an automatic classification; it is only applied to items
// that are not classified yet. Nil items leave the stored items untouched.
func (r *OrderRepository) UpsertWithItems(ctx context.Context, o *models.ExternalOrder, items []models.ExternalOrderItem) (*models.UpsertOutcome, error) {
	out := &models.UpsertOutcome{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const q = `
			INSERT INTO external_orders (
				external_id, number, customer_name, customer_email, customer_document, customer_phone,
				status, status_id, financial_status, delivery_status, payment_method,
				value_total, value_products, value_discount, value_shipping, ordered_at, external_updated_at,
				address_street, address_number, address_complement, address_neighborhood, address_city,
				address_state, address_zipcode, raw_payload, processed, synced_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
				$18, $19, $20, $21, $22, $23, $24, $25::jsonb, false, NOW()
			)
			ON CONFLICT (external_id) DO UPDATE SET
				number = EXCLUDED.number,
				customer_name = EXCLUDED.customer_name,
				customer_email = EXCLUDED.customer_email,
				customer_document = EXCLUDED.customer_document,
				customer_phone = EXCLUDED.customer_phone,
				status = EXCLUDED.status,
				status_id = EXCLUDED.status_id,
				financial_status = EXCLUDED.financial_status,
				delivery_status = EXCLUDED.delivery_status,
				payment_method = EXCLUDED.payment_method,
				value_total = EXCLUDED.value_total,
				value_products = EXCLUDED.value_products,
				value_discount = EXCLUDED.value_discount,
				value_shipping = EXCLUDED.value_shipping,
				ordered_at = EXCLUDED.ordered_at,
				external_updated_at = EXCLUDED.external_updated_at,
				address_street = EXCLUDED.address_street,
				address_number = EXCLUDED.address_number,
				address_complement = EXCLUDED.address_complement,
				address_neighborhood = EXCLUDED.address_neighborhood,
				address_city = EXCLUDED.address_city,
				address_state = EXCLUDED.address_state,
				address_zipcode = EXCLUDED.address_zipcode,
				raw_payload = EXCLUDED.raw_payload,
				synced_at = NOW()
			RETURNING id, (xmax = 0) AS inserted, synced_at, created_at`

		err := tx.QueryRowxContext(ctx, q,
			o.ExternalID, o.Number, o.CustomerName, o.CustomerEmail, o.CustomerDoc, o.CustomerPhone,
			o.Status, o.StatusID, o.FinancialStatus, o.DeliveryStatus, o.PaymentMethod,
			o.ValueTotal, o.ValueProducts, o.ValueDiscount, o.ValueShipping, o.OrderedAt, o.UpdatedAt,
			o.Street, o.ShippingAddress.Number, o.Complement, o.Neighborhood, o.City,
			o.State, o.ZipCode, rawJSON(o.RawPayload),
		).Scan(&o.ID, &out.Created, &o.SyncedAt, &o.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert order %d: %w", o.ExternalID, err)
		}
		out.OrderID = o.ID

		stored := []models.ExternalOrderItem{}
		if !out.Created {
			err = tx.SelectContext(ctx, &stored,
				`SELECT `+itemColumns+` FROM external_order_items WHERE order_id = $1 ORDER BY id FOR UPDATE`, o.ID)
			if err != nil {
				return fmt.Errorf("load items: %w", err)
			}
		}

		plan := PlanItemMerge(stored, items)

		if len(plan.Delete) > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM external_order_items WHERE id = ANY($1)`, pq.Array(toInt64s(plan.Delete))); err != nil {
				return fmt.Errorf("delete items: %w", err)
			}
			out.ItemsDeleted = len(plan.Delete)
		}

		for _, u := range plan.Update {
			if err := updateItem(ctx, tx, u); err != nil {
				return err
			}
			out.ItemsUpdated++
			if u.Classify {
				out.AutoClassified++
			}
		}

		for i := range plan.Insert {
			it := &plan.Insert[i]
			it.OrderID = o.ID
			if err := insertItem(ctx, tx, it); err != nil {
				return err
			}
			out.ItemsInserted++
			if it.Classified {
				out.AutoClassified++
			}
		}

		return refreshProcessed(ctx, tx, o.ID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func updateItem(ctx context.Context, tx *sqlx.Tx, u ItemUpdate) error {
	in := u.Incoming
	_, err := tx.ExecContext(ctx, `
		UPDATE external_order_items
		SET product_name = $2, sku = $3, quantity = $4, unit_price = $5, line_total = $6
		WHERE id = $1`, u.ID, in.ProductName, in.SKU, in.Quantity, in.UnitPrice, in.LineTotal)
	if err != nil {
		return fmt.Errorf("update item %d: %w", u.ID, err)
	}
	if !u.Classify {
		return nil
	}
	_, err = applyClassification(ctx, tx, u.ID, *in.ProductID, *in.AttractionID, nil, models.ClassificationAuto, true)
	return err
}

func insertItem(ctx context.Context, tx *sqlx.Tx, it *models.ExternalOrderItem) error {
	const q = `
		INSERT INTO external_order_items (
			order_id, external_item_id, product_name, sku, quantity, unit_price, line_total,
			product_id, attraction_id, classified, classified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CASE WHEN $10 THEN NOW() END)
		RETURNING id, classified_at`
	err := tx.QueryRowxContext(ctx, q,
		it.OrderID, it.ExternalItemID, it.ProductName, it.SKU, it.Quantity, it.UnitPrice, it.LineTotal,
		it.ProductID, it.AttractionID, it.Classified,
	).Scan(&it.ID, &it.ClassifiedAt)
	if err != nil {
		return fmt.Errorf("insert item %d: %w", it.ExternalItemID, err)
	}
	if it.Classified {
		return insertClassificationEvents(ctx, tx, []int{it.ID}, it.ProductID, it.AttractionID, nil, models.ClassificationAuto)
	}
	return nil
}

// applyClassification links one item to a product and attraction and records
// the change. With onlyUnclassified set, classified items are left alone and
// false is returned.
func applyClassification(ctx context.Context, tx *sqlx.Tx, itemID, productID, attractionID int, operatorID *int, source models.ClassificationSource, onlyUnclassified bool) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE external_order_items
		SET product_id = $2, attraction_id = $3, classified = true, classified_at = NOW()
		WHERE id = $1 AND (NOT $4 OR classified = false)`, itemID, productID, attractionID, onlyUnclassified)
	if err != nil {
		return false, fmt.Errorf("classify item %d: %w", itemID, err)
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, err
	}
	err = insertClassificationEvents(ctx, tx, []int{itemID}, &productID, &attractionID, operatorID, source)
	return err == nil, err
}

// refreshProcessed marks orders processed when none of their items is left unclassified.
func refreshProcessed(ctx context.Context, tx *sqlx.Tx, orderIDs ...int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE external_orders o
		SET processed = NOT EXISTS (
			SELECT 1 FROM external_order_items i WHERE i.order_id = o.id AND i.classified = false
		)
		WHERE o.id = ANY($1)`, pq.Array(toInt64s(orderIDs)))
	if err != nil {
		return fmt.Errorf("refresh processed flag: %w", err)
	}
	return nil
}

// Classify manually classifies an item and cascades the same product and
// attraction to every other unclassified item with the identical external
// product name. Already classified items are never touched. It returns the
// number of cascaded items.
func (r *OrderRepository) Classify(ctx context.Context, itemID, productID, attractionID int, operatorID *int) (int, error) {
	var cascaded int
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var target struct {
			Name    string `db:"product_name"`
			OrderID int    `db:"order_id"`
		}
		if err := tx.GetContext(ctx, &target,
			`SELECT product_name, order_id FROM external_order_items WHERE id = $1 FOR UPDATE`, itemID); err != nil {
			return err
		}

		if _, err := applyClassification(ctx, tx, itemID, productID, attractionID, operatorID, models.ClassificationManual, false); err != nil {
			return err
		}

		touched := []struct {
			ID      int `db:"id"`
			OrderID int `db:"order_id"`
		}{}
		err := tx.SelectContext(ctx, &touched, `
			UPDATE external_order_items
			SET product_id = $3, attraction_id = $4, classified = true, classified_at = NOW()
			WHERE product_name = $1 AND classified = false AND id <> $2
			RETURNING id, order_id`, target.Name, itemID, productID, attractionID)
		if err != nil {
			return fmt.Errorf("cascade classification: %w", err)
		}

		orderIDs := []int{target.OrderID}
		itemIDs := make([]int, 0, len(touched))
		for _, t := range touched {
			itemIDs = append(itemIDs, t.ID)
			orderIDs = append(orderIDs, t.OrderID)
		}
		if err := insertClassificationEvents(ctx, tx, itemIDs, &productID, &attractionID, operatorID, models.ClassificationCascade); err != nil {
			return err
		}
		cascaded = len(touched)
		return refreshProcessed(ctx, tx, orderIDs...)
	})
	return cascaded, err
}

// AutoClassify applies an automatic classification to an item still unclassified.
// It reports whether the item changed.
func (r *OrderRepository) AutoClassify(ctx context.Context, itemID, productID, attractionID int) (bool, error) {
	var changed bool
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var orderID int
		if err := tx.GetContext(ctx, &orderID, `SELECT order_id FROM external_order_items WHERE id = $1`, itemID); err != nil {
			return err
		}
		var err error
		changed, err = applyClassification(ctx, tx, itemID, productID, attractionID, nil, models.ClassificationAuto, true)
		if err != nil || !changed {
			return err
		}
		return refreshProcessed(ctx, tx, orderID)
	})
	return changed, err
}

// Unclassify removes the classification of one item. Nothing cascades.
func (r *OrderRepository) Unclassify(ctx context.Context, itemID int, operatorID *int) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var orderID int
		err := tx.GetContext(ctx, &orderID, `
			UPDATE external_order_items
			SET product_id = NULL, attraction_id = NULL, classified = false, classified_at = NULL
			WHERE id = $1
			RETURNING order_id`, itemID)
		if err != nil {
			return err
		}
		if err := insertClassificationEvents(ctx, tx, []int{itemID}, nil, nil, operatorID, models.ClassificationUndo); err != nil {
			return err
		}
		return refreshProcessed(ctx, tx, orderID)
	})
}

// GetItem returns one line item.
func (r *OrderRepository) GetItem(ctx context.Context, id int) (*models.ExternalOrderItem, error) {
	var it models.ExternalOrderItem
	if err := r.db.GetContext(ctx, &it, `SELECT `+itemColumns+` FROM external_order_items WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &it, nil
}

// ListUnclassified returns up to limit unclassified items, oldest first.
func (r *OrderRepository) ListUnclassified(ctx context.Context, limit int) ([]models.ExternalOrderItem, error) {
	items := []models.ExternalOrderItem{}
	err := r.db.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM external_order_items WHERE classified = false ORDER BY id LIMIT $1`, limit)
	return items, err
}

// UnclassifiedNames groups unclassified items by external product name for review.
func (r *OrderRepository) UnclassifiedNames(ctx context.Context) ([]models.UnclassifiedName, error) {
	names := []models.UnclassifiedName{}
	err := r.db.SelectContext(ctx, &names, `
		SELECT product_name, COUNT(1) AS item_count, COALESCE(SUM(quantity), 0) AS quantity
		FROM external_order_items
		WHERE classified = false
		GROUP BY product_name
		ORDER BY item_count DESC, product_name`)
	return names, err
}

// ConfirmItem confirms attendance on an item unless already confirmed. It
// reports whether a row changed.
func (r *OrderRepository) ConfirmItem(ctx context.Context, itemID, operatorID int, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE external_order_items
		SET attendance_confirmed = true, attendance_confirmed_at = $2, attendance_confirmed_by = $3
		WHERE id = $1 AND attendance_confirmed = false`, itemID, at, operatorID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// CancelItem clears the attendance fields of an item.
func (r *OrderRepository) CancelItem(ctx context.Context, itemID int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE external_order_items
		SET attendance_confirmed = false, attendance_confirmed_at = NULL, attendance_confirmed_by = NULL
		WHERE id = $1`, itemID)
	return err
}

// ConfirmAllForOrder confirms every unconfirmed item of the order that belongs
// to the attraction. Items of other attractions are counted as skipped and never
// modified. Returns sql.ErrNoRows when the order does not exist.
func (r *OrderRepository) ConfirmAllForOrder(ctx context.Context, orderID, attractionID, operatorID int, at time.Time) (*models.ConfirmAllResult, error) {
	out := &models.ConfirmAllResult{}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM external_orders WHERE id = $1)`, orderID); err != nil {
			return err
		}
		if !exists {
			return sql.ErrNoRows
		}

		states := []struct {
			AttractionID *int `db:"attraction_id"`
			Confirmed    bool `db:"attendance_confirmed"`
		}{}
		if err := tx.SelectContext(ctx, &states, `
			SELECT attraction_id, attendance_confirmed FROM external_order_items
			WHERE order_id = $1 ORDER BY id FOR UPDATE`, orderID); err != nil {
			return err
		}
		for _, s := range states {
			switch {
			case s.AttractionID == nil || *s.AttractionID != attractionID:
				out.Skipped++
			case s.Confirmed:
				out.AlreadyConfirmed++
			}
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE external_order_items
			SET attendance_confirmed = true, attendance_confirmed_at = $3, attendance_confirmed_by = $4
			WHERE order_id = $1 AND attraction_id = $2 AND attendance_confirmed = false`,
			orderID, attractionID, at, operatorID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		out.Confirmed = int(n)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrder returns an order with all of its items.
func (r *OrderRepository) GetOrder(ctx context.Context, id int) (*models.ExternalOrderWithItems, error) {
	var o models.ExternalOrderWithItems
	if err := r.db.GetContext(ctx, &o.ExternalOrder, `SELECT `+orderColumns+` FROM external_orders WHERE id = $1`, id); err != nil {
		return nil, err
	}
	o.Items = []models.ExternalOrderItem{}
	if err := r.db.SelectContext(ctx, &o.Items,
		`SELECT `+itemColumns+` FROM external_order_items WHERE order_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns a page of orders, newest first, and the total matching count.
func (r *OrderRepository) ListOrders(ctx context.Context, f OrderFilter) ([]models.ExternalOrder, int, error) {
	page, limit := normalizePage(f.Page, f.Limit)

	const where = `
		WHERE ($1::boolean IS NULL OR processed = $1)
		  AND ($2 = '' OR number ILIKE '%' || $2 || '%' OR customer_name ILIKE '%' || $2 || '%'
		       OR customer_email ILIKE '%' || $2 || '%')
		  AND ($3::timestamptz IS NULL OR ordered_at >= $3)
		  AND ($4::timestamptz IS NULL OR ordered_at < $4)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM external_orders`+where,
		f.Processed, f.Search, f.From, f.To); err != nil {
		return nil, 0, err
	}

	orders := []models.ExternalOrder{}
	err := r.db.SelectContext(ctx, &orders, `SELECT `+orderColumns+` FROM external_orders`+where+`
		ORDER BY ordered_at DESC, id DESC LIMIT $5 OFFSET $6`,
		f.Processed, f.Search, f.From, f.To, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListOrdersForAttraction returns a page of orders holding items of the
// attraction, each with only those items, plus the total matching count.
func (r *OrderRepository) ListOrdersForAttraction(ctx context.Context, attractionID int, status AttendanceFilter, page, limit int) ([]models.ExternalOrderWithItems, int, error) {
	page, limit = normalizePage(page, limit)

	const scope = `
		WHERE id IN (
			SELECT order_id FROM external_order_items
			WHERE attraction_id = $1 AND classified = true
			  AND ($2 = '' OR ($2 = 'pending' AND NOT attendance_confirmed)
			       OR ($2 = 'confirmed' AND attendance_confirmed))
		)`

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM external_orders`+scope, attractionID, string(status)); err != nil {
		return nil, 0, err
	}

	orders := []models.ExternalOrder{}
	if err := r.db.SelectContext(ctx, &orders, `SELECT `+orderColumns+` FROM external_orders`+scope+`
		ORDER BY ordered_at DESC, id DESC LIMIT $3 OFFSET $4`,
		attractionID, string(status), limit, (page-1)*limit); err != nil {
		return nil, 0, err
	}
	if len(orders) == 0 {
		return []models.ExternalOrderWithItems{}, total, nil
	}

	ids := make([]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items := []models.ExternalOrderItem{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT `+itemColumns+` FROM external_order_items
		WHERE order_id = ANY($1) AND attraction_id = $2
		ORDER BY id`, pq.Array(toInt64s(ids)), attractionID); err != nil {
		return nil, 0, err
	}

	byOrder := make(map[int][]models.ExternalOrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	result := make([]models.ExternalOrderWithItems, len(orders))
	for i, o := range orders {
		result[i] = models.ExternalOrderWithItems{ExternalOrder: o, Items: byOrder[o.ID]}
		if result[i].Items == nil {
			result[i].Items = []models.ExternalOrderItem{}
		}
	}
	return result, total, nil
}

// GetOrderForAttraction returns an order with only the items of the attraction.
// Orders without such items yield sql.ErrNoRows.
func (r *OrderRepository) GetOrderForAttraction(ctx context.Context, orderID, attractionID int) (*models.ExternalOrderWithItems, error) {
	var o models.ExternalOrderWithItems
	if err := r.db.GetContext(ctx, &o.ExternalOrder, `SELECT `+orderColumns+` FROM external_orders WHERE id = $1`, orderID); err != nil {
		return nil, err
	}
	o.Items = []models.ExternalOrderItem{}
	if err := r.db.SelectContext(ctx, &o.Items, `
		SELECT `+itemColumns+` FROM external_order_items
		WHERE order_id = $1 AND attraction_id = $2
		ORDER BY id`, orderID, attractionID); err != nil {
		return nil, err
	}
	if len(o.Items) == 0 {
		return nil, sql.ErrNoRows
	}
	return &o, nil
}

// LedgerForAttraction returns the classified items of the attraction joined
// with their order and product, optionally bounded by order date.
func (r *OrderRepository) LedgerForAttraction(ctx context.Context, attractionID int, from, to *time.Time) ([]models.LedgerSource, error) {
	const q = `
		SELECT 'external' AS origin, i.id AS reference_id, o.number AS reference,
		       o.customer_name, p.id AS product_id, p.name AS product_name, i.quantity,
		       i.line_total AS gross, p.commission_type, p.commission_value,
		       i.attendance_confirmed, o.ordered_at AS occurred_at
		FROM external_order_items i
		JOIN external_orders o ON o.id = i.order_id
		JOIN products p ON p.id = i.product_id
		WHERE i.classified = true AND i.attraction_id = $1
		  AND ($2::timestamptz IS NULL OR o.ordered_at >= $2)
		  AND ($3::timestamptz IS NULL OR o.ordered_at < $3)`
	rows := []models.LedgerSource{}
	err := r.db.SelectContext(ctx, &rows, q, attractionID, from, to)
	return rows, err
}

// Dashboard summarizes an attraction's items; "today" is [dayStart, dayEnd).
func (r *OrderRepository) Dashboard(ctx context.Context, attractionID int, dayStart, dayEnd time.Time) (*models.AttractionDashboard, error) {
	const q = `
		SELECT
			COUNT(DISTINCT i.order_id) AS total_orders,
			COUNT(DISTINCT i.order_id) FILTER (WHERE o.ordered_at >= $2 AND o.ordered_at < $3) AS orders_today,
			COALESCE(SUM(i.quantity) FILTER (
				WHERE i.attendance_confirmed AND i.attendance_confirmed_at >= $2 AND i.attendance_confirmed_at < $3
			), 0) AS confirmed_today,
			COUNT(1) FILTER (WHERE NOT i.attendance_confirmed) AS pending_confirmation,
			COALESCE(SUM(i.quantity), 0) AS total_people,
			COALESCE(SUM(i.quantity) FILTER (WHERE i.attendance_confirmed), 0) AS confirmed_people
		FROM external_order_items i
		JOIN external_orders o ON o.id = i.order_id
		WHERE i.attraction_id = $1 AND i.classified = true`
	var d models.AttractionDashboard
	if err := r.db.GetContext(ctx, &d, q, attractionID, dayStart, dayEnd); err != nil {
		return nil, err
	}
	return &d, nil
}

// ClassificationHistory returns the audit trail of one item, oldest first.
func (r *OrderRepository) ClassificationHistory(ctx context.Context, itemID int) ([]models.ClassificationEvent, error) {
	events := []models.ClassificationEvent{}
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, item_id, product_id, attraction_id, operator_id, source, created_at
		FROM classification_events
		WHERE item_id = $1
		ORDER BY id`, itemID)
	return events, err
}

func insertClassificationEvents(ctx context.Context, tx *sqlx.Tx, itemIDs []int, productID, attractionID, operatorID *int, source models.ClassificationSource) error {
	if len(itemIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO classification_events (item_id, product_id, attraction_id, operator_id, source)
		SELECT unnest($1::bigint[]), $2::int, $3::int, $4::int, $5::text`,
		pq.Array(toInt64s(itemIDs)), productID, attractionID, operatorID, source)
	if err != nil {
		return fmt.Errorf("record classification: %w", err)
	}
	return nil
}

func rawJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func toInt64s(ids []int) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return page, limit
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
