package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pdv_api/internal/models"
)

const operatorColumns = `id, name, username, password_hash, role, attraction_id, is_active, created_at, updated_at`

// OperatorRepository handles data access for operators.
type OperatorRepository struct {
	db *sqlx.DB
}

// NewOperatorRepository creates a new OperatorRepository.
func NewOperatorRepository(db *sqlx.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// GetByUsername returns the operator with the given username, active or not.
func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var op models.Operator
	err := r.db.GetContext(ctx, &op, `SELECT `+operatorColumns+` FROM operators WHERE username = $1`, username)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// GetByID returns an operator by id.
func (r *OperatorRepository) GetByID(ctx context.Context, id int) (*models.Operator, error) {
	var op models.Operator
	err := r.db.GetContext(ctx, &op, `SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// ListActive returns all active operators ordered by name.
func (r *OperatorRepository) ListActive(ctx context.Context) ([]models.Operator, error) {
	ops := []models.Operator{}
	err := r.db.SelectContext(ctx, &ops, `SELECT `+operatorColumns+` FROM operators WHERE is_active = true ORDER BY name`)
	return ops, err
}

// Count returns how many operators exist.
func (r *OperatorRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM operators`)
	return n, err
}

// Create inserts an operator. A taken username yields ErrDuplicateKey.
func (r *OperatorRepository) Create(ctx context.Context, op *models.Operator) error {
	const q = `
		INSERT INTO operators (name, username, password_hash, role, attraction_id, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING id, is_active, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q, op.Name, op.Username, op.PasswordHash, op.Role, op.AttractionID).
		Scan(&op.ID, &op.IsActive, &op.CreatedAt, &op.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

// Deactivate soft-deletes an operator. Returns sql.ErrNoRows for unknown ids.
func (r *OperatorRepository) Deactivate(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE operators SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// expectAffected turns a zero-row update into sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
