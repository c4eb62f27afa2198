package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/pdv_api/internal/models"
)

// SettingRepository handles the key/value runtime settings table.
type SettingRepository struct {
	db *sqlx.DB
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(db *sqlx.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// List returns every setting ordered by key.
func (r *SettingRepository) List(ctx context.Context) ([]models.Setting, error) {
	settings := []models.Setting{}
	err := r.db.SelectContext(ctx, &settings, `SELECT id, key, value, description, updated_at FROM settings ORDER BY key`)
	return settings, err
}

// SeedDefaults inserts the given settings, leaving existing keys untouched.
func (r *SettingRepository) SeedDefaults(ctx context.Context, defaults []models.Setting) error {
	const q = `
		INSERT INTO settings (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING`
	for _, s := range defaults {
		if _, err := r.db.ExecContext(ctx, q, s.Key, s.Value, s.Description); err != nil {
			return err
		}
	}
	return nil
}

// Update sets the value of an existing key. Returns sql.ErrNoRows for unknown keys.
func (r *SettingRepository) Update(ctx context.Context, key, value string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE settings SET value = $2, updated_at = NOW() WHERE key = $1`, key, value)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
