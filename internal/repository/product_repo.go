package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pdv_api/internal/models"
)

const productColumns = `id, name, price, description, attraction_id, commission_type, commission_value, is_active, created_at, updated_at`

// ProductRepository handles data access for products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListActive returns active products in creation order, the order auto-classification
// tries them in.
func (r *ProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products WHERE is_active = true ORDER BY id`)
	return products, err
}

// ListByAttraction returns the active products of one attraction.
func (r *ProductRepository) ListByAttraction(ctx context.Context, attractionID int) ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, `
		SELECT `+productColumns+` FROM products
		WHERE attraction_id = $1 AND is_active = true
		ORDER BY name`, attractionID)
	return products, err
}

// GetByID returns a product by id, including inactive ones.
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	const q = `
		INSERT INTO products (name, price, description, attraction_id, commission_type, commission_value, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING id, is_active, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, p.Name, p.Price, p.Description, p.AttractionID, p.CommissionType, p.CommissionValue).
		Scan(&p.ID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

// Update overwrites the editable fields of a product. Sales keep their frozen copy.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	const q = `
		UPDATE products
		SET name = $2, price = $3, description = $4, attraction_id = $5,
		    commission_type = $6, commission_value = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING is_active, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, p.ID, p.Name, p.Price, p.Description, p.AttractionID, p.CommissionType, p.CommissionValue).
		Scan(&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

// Deactivate soft-deletes a product.
func (r *ProductRepository) Deactivate(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
