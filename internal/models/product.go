package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionType enumerates how the platform commission of a product is computed.
type CommissionType string

const (
	CommissionPercentage CommissionType = "percentage"
	CommissionFixed      CommissionType = "fixed"
)

// Valid reports whether t is a known commission type.
func (t CommissionType) Valid() bool {
	return t == CommissionPercentage || t == CommissionFixed
}

// Product represents a ticket product in the internal catalog.
// Fields are tagged for both DB scanning and JSON serialization.
type Product struct {
	ID              int             `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Description     string          `db:"description" json:"description"`
	AttractionID    *int            `db:"attraction_id" json:"attractionId,omitempty"`
	CommissionType  CommissionType  `db:"commission_type" json:"commissionType"`
	CommissionValue decimal.Decimal `db:"commission_value" json:"commissionValue"`
	IsActive        bool            `db:"is_active" json:"isActive"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// CommissionRule returns the product's rule with defaults applied.
func (p *Product) CommissionRule() CommissionRule {
	return NewCommissionRule(p.CommissionType, p.CommissionValue)
}

// CommissionRule is the commission configuration of a product.
type CommissionRule struct {
	Type  CommissionType  `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// NewCommissionRule builds a rule, defaulting to a zero percentage when unset.
func NewCommissionRule(t CommissionType, v decimal.Decimal) CommissionRule {
	if !t.Valid() {
		t = CommissionPercentage
	}
	return CommissionRule{Type: t, Value: v}
}

// Commission computes the commission owed on gross for quantity units.
// Percentage rules apply to gross; fixed rules are charged per unit.
func (r CommissionRule) Commission(gross decimal.Decimal, quantity int) decimal.Decimal {
	switch r.Type {
	case CommissionFixed:
		return r.Value.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	default:
		return gross.Mul(r.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
}
