package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pdv_api/internal/database"
	"github.com/GTDGit/pdv_api/internal/models"
)

const saleColumns = `id, code, client_name, client_phone, product_id, product_name, unit_price, quantity,
	subtotal, discount, discount_type, total, operator_id, operator_name, online,
	delivery_sent, delivery_error, attendance_confirmed, attendance_confirmed_at,
	attendance_confirmed_by, created_at`

// saleCodeLockKey serializes sale code allocation across connections.
const saleCodeLockKey = 0x5044_5601

// CodeAllocator derives the next sale code from the highest existing one
// ("" when there are no sales).
type CodeAllocator func(last string) (string, error)

// SaleRepository handles data access for point-of-sale sales.
type SaleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository creates a new SaleRepository.
func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// LastCode returns the highest sale code, or "" when no sale exists.
func (r *SaleRepository) LastCode(ctx context.Context) (string, error) {
	return lastCode(ctx, r.db)
}

func lastCode(ctx context.Context, q sqlx.QueryerContext) (string, error) {
	// numeric ordering keeps working once codes outgrow four digits
	const query = `SELECT COALESCE(MAX(code::bigint), 0) FROM sales WHERE code ~ '^[0-9]+$'`
	var max int64
	if err := sqlx.GetContext(ctx, q, &max, query); err != nil {
		return "", err
	}
	if max == 0 {
		return "", nil
	}
	return fmt.Sprintf("%04d", max), nil
}

// Create allocates the next code and inserts the sale in one transaction. The
// advisory lock makes allocation+insert a critical section across replicas.
func (r *SaleRepository) Create(ctx context.Context, s *models.Sale, next CodeAllocator) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, saleCodeLockKey); err != nil {
			return fmt.Errorf("lock sale code: %w", err)
		}

		last, err := lastCode(ctx, tx)
		if err != nil {
			return fmt.Errorf("read last sale code: %w", err)
		}
		code, err := next(last)
		if err != nil {
			return err
		}
		s.Code = code

		const q = `
			INSERT INTO sales (
				code, client_name, client_phone, product_id, product_name, unit_price, quantity,
				subtotal, discount, discount_type, total, operator_id, operator_name, online
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id, created_at`
		return tx.QueryRowxContext(ctx, q,
			s.Code, s.ClientName, s.ClientPhone, s.ProductID, s.ProductName, s.UnitPrice, s.Quantity,
			s.Subtotal, s.Discount, s.DiscountType, s.Total, s.OperatorID, s.OperatorName, s.Online,
		).Scan(&s.ID, &s.CreatedAt)
	})
}

// GetByID returns a sale by id.
func (r *SaleRepository) GetByID(ctx context.Context, id int) (*models.Sale, error) {
	var s models.Sale
	if err := r.db.GetContext(ctx, &s, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListRecent returns the latest sales, newest first.
func (r *SaleRepository) ListRecent(ctx context.Context, limit int) ([]models.Sale, error) {
	if limit <= 0 {
		limit = 100
	}
	sales := []models.Sale{}
	err := r.db.SelectContext(ctx, &sales, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	return sales, err
}

// Delete removes a sale.
func (r *SaleRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// UpdateDelivery records the outcome of the last ticket delivery attempt.
func (r *SaleRepository) UpdateDelivery(ctx context.Context, id int, sent bool, deliveryErr *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sales SET delivery_sent = $2, delivery_error = $3 WHERE id = $1`, id, sent, deliveryErr)
	return err
}

// ConfirmAttendance marks the sale as attended unless it already is. It reports
// whether a row changed.
func (r *SaleRepository) ConfirmAttendance(ctx context.Context, id, operatorID int, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sales
		SET attendance_confirmed = true, attendance_confirmed_at = $2, attendance_confirmed_by = $3
		WHERE id = $1 AND attendance_confirmed = false`, id, at, operatorID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// CancelAttendance clears the attendance fields.
func (r *SaleRepository) CancelAttendance(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sales
		SET attendance_confirmed = false, attendance_confirmed_at = NULL, attendance_confirmed_by = NULL
		WHERE id = $1`, id)
	return err
}

// OperatorTotals aggregates sale count and sum per operator within [from, to).
// Nil bounds are open.
func (r *SaleRepository) OperatorTotals(ctx context.Context, from, to *time.Time) ([]models.OperatorSalesTotal, error) {
	const q = `
		SELECT operator_id, operator_name, COUNT(1) AS sales_count, COALESCE(SUM(total), 0) AS total_amount
		FROM sales
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		GROUP BY operator_id, operator_name`
	totals := []models.OperatorSalesTotal{}
	err := r.db.SelectContext(ctx, &totals, q, from, to)
	return totals, err
}

// LedgerForAttraction returns the sales whose product belongs to the attraction,
// optionally bounded by sale time. Commission rules come from the current product.
func (r *SaleRepository) LedgerForAttraction(ctx context.Context, attractionID int, from, to *time.Time) ([]models.LedgerSource, error) {
	const q = `
		SELECT 'pos' AS origin, s.id AS reference_id, s.code AS reference, s.client_name AS customer_name,
		       p.id AS product_id, s.product_name, s.quantity, s.total AS gross,
		       p.commission_type, p.commission_value, s.attendance_confirmed, s.created_at AS occurred_at
		FROM sales s
		JOIN products p ON p.id = s.product_id
		WHERE p.attraction_id = $1
		  AND ($2::timestamptz IS NULL OR s.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR s.created_at < $3)`
	rows := []models.LedgerSource{}
	err := r.db.SelectContext(ctx, &rows, q, attractionID, from, to)
	return rows, err
}
