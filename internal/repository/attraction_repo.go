package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pdv_api/internal/models"
)

const attractionColumns = `id, name, description, manager, phone, email, is_active, created_at, updated_at`

// AttractionRepository handles data access for attractions.
type AttractionRepository struct {
	db *sqlx.DB
}

// NewAttractionRepository creates a new AttractionRepository.
func NewAttractionRepository(db *sqlx.DB) *AttractionRepository {
	return &AttractionRepository{db: db}
}

// List returns attractions ordered by name; inactive ones only when includeInactive is set.
func (r *AttractionRepository) List(ctx context.Context, includeInactive bool) ([]models.Attraction, error) {
	attractions := []models.Attraction{}
	err := r.db.SelectContext(ctx, &attractions, `
		SELECT `+attractionColumns+` FROM attractions
		WHERE ($1 OR is_active = true)
		ORDER BY name`, includeInactive)
	return attractions, err
}

// GetByID returns an attraction by id.
func (r *AttractionRepository) GetByID(ctx context.Context, id int) (*models.Attraction, error) {
	var a models.Attraction
	if err := r.db.GetContext(ctx, &a, `SELECT `+attractionColumns+` FROM attractions WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an attraction.
func (r *AttractionRepository) Create(ctx context.Context, a *models.Attraction) error {
	const q = `
		INSERT INTO attractions (name, description, manager, phone, email, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING id, is_active, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, a.Name, a.Description, a.Manager, a.Phone, a.Email).
		Scan(&a.ID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
}

// Update overwrites the editable fields of an attraction.
func (r *AttractionRepository) Update(ctx context.Context, a *models.Attraction) error {
	const q = `
		UPDATE attractions
		SET name = $2, description = $3, manager = $4, phone = $5, email = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING is_active, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, a.ID, a.Name, a.Description, a.Manager, a.Phone, a.Email).
		Scan(&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
}

// Deactivate soft-deletes an attraction.
func (r *AttractionRepository) Deactivate(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE attractions SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
