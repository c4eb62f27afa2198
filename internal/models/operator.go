package models

import "time"

// OperatorRole enumerates operator permission levels.
type OperatorRole string

const (
	RoleAdmin      OperatorRole = "admin"
	RoleStaff      OperatorRole = "staff"
	RoleAttraction OperatorRole = "attraction"
)

// Valid reports whether r is a known role.
func (r OperatorRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleAttraction:
		return true
	}
	return false
}

// Operator is a person allowed to log into the POS or the attraction panel.
// AttractionID is set only for attraction-scoped operators.
type Operator struct {
	ID           int          `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Username     string       `db:"username" json:"username"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Role         OperatorRole `db:"role" json:"role"`
	AttractionID *int         `db:"attraction_id" json:"attractionId,omitempty"`
	IsActive     bool         `db:"is_active" json:"isActive"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}
