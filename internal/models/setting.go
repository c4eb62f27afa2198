package models

import "time"

// Setting is a runtime configuration entry editable by admins.
type Setting struct {
	ID          int       `db:"id" json:"id"`
	Key         string    `db:"key" json:"key"`
	Value       string    `db:"value" json:"value"`
	Description string    `db:"description" json:"description"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
