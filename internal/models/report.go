package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerOrigin tells where a ledger entry came from.
type LedgerOrigin string

const (
	OriginExternal LedgerOrigin = "external"
	OriginPOS      LedgerOrigin = "pos"
)

// LedgerSource is a raw ledger row as read from storage, before commission math.
// Confirmed is only meaningful for external entries.
type LedgerSource struct {
	Origin          LedgerOrigin    `db:"origin"`
	ReferenceID     int             `db:"reference_id"`
	Reference       string          `db:"reference"`
	CustomerName    string          `db:"customer_name"`
	ProductID       int             `db:"product_id"`
	ProductName     string          `db:"product_name"`
	Quantity        int             `db:"quantity"`
	Gross           decimal.Decimal `db:"gross"`
	CommissionType  CommissionType  `db:"commission_type"`
	CommissionValue decimal.Decimal `db:"commission_value"`
	Confirmed       bool            `db:"attendance_confirmed"`
	OccurredAt      time.Time       `db:"occurred_at"`
}

// LedgerEntry is one line of an attraction report.
type LedgerEntry struct {
	Origin       LedgerOrigin    `json:"origin"`
	ReferenceID  int             `json:"referenceId"`
	Reference    string          `json:"reference"`
	CustomerName string          `json:"customerName"`
	ProductID    int             `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	Gross        decimal.Decimal `json:"gross"`
	Commission   decimal.Decimal `json:"commission"`
	Net          decimal.Decimal `json:"net"`
	Confirmed    bool            `json:"attendanceConfirmed"`
	OccurredAt   time.Time       `json:"occurredAt"`
}

// AttractionReport aggregates the unified ledger of one attraction.
type AttractionReport struct {
	Attraction      *Attraction     `json:"attraction"`
	DateFrom        *time.Time      `json:"dateFrom,omitempty"`
	DateTo          *time.Time      `json:"dateTo,omitempty"`
	Gross           decimal.Decimal `json:"gross"`
	Commission      decimal.Decimal `json:"commission"`
	Net             decimal.Decimal `json:"net"`
	EntryCount      int             `json:"entryCount"`
	TotalPeople     int             `json:"totalPeople"`
	ConfirmedPeople int             `json:"confirmedPeople"`
	ConfirmedRatio  float64         `json:"confirmedRatio"`
	Entries         []LedgerEntry   `json:"entries"`
}

// AttractionDashboard summarizes an attraction's external orders and attendance.
type AttractionDashboard struct {
	TotalOrders         int `db:"total_orders" json:"totalOrders"`
	OrdersToday         int `db:"orders_today" json:"ordersToday"`
	ConfirmedToday      int `db:"confirmed_today" json:"confirmedToday"`
	PendingConfirmation int `db:"pending_confirmation" json:"pendingConfirmation"`
	TotalPeople         int `db:"total_people" json:"totalPeople"`
	ConfirmedPeople     int `db:"confirmed_people" json:"confirmedPeople"`
}
