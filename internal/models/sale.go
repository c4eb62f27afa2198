package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates how a sale discount is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Attendance holds the presence confirmation state shared by sales and order items.
type Attendance struct {
	Confirmed   bool       `db:"attendance_confirmed" json:"attendanceConfirmed"`
	ConfirmedAt *time.Time `db:"attendance_confirmed_at" json:"attendanceConfirmedAt,omitempty"`
	ConfirmedBy *int       `db:"attendance_confirmed_by" json:"attendanceConfirmedBy,omitempty"`
}

// Sale is a ticket sold at the point of sale. Product and operator names and the
// unit price are frozen at sale time.
type Sale struct {
	ID            int             `db:"id" json:"id"`
	Code          string          `db:"code" json:"code"`
	ClientName    string          `db:"client_name" json:"clientName"`
	ClientPhone   *string         `db:"client_phone" json:"clientPhone,omitempty"`
	ProductID     int             `db:"product_id" json:"productId"`
	ProductName   string          `db:"product_name" json:"productName"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Quantity      int             `db:"quantity" json:"quantity"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Discount      decimal.Decimal `db:"discount" json:"discount"`
	DiscountType  *DiscountType   `db:"discount_type" json:"discountType,omitempty"`
	Total         decimal.Decimal `db:"total" json:"total"`
	OperatorID    int             `db:"operator_id" json:"operatorId"`
	OperatorName  string          `db:"operator_name" json:"operatorName"`
	Online        bool            `db:"online" json:"online"`
	DeliverySent  bool            `db:"delivery_sent" json:"deliverySent"`
	DeliveryError *string         `db:"delivery_error" json:"deliveryError,omitempty"`
	Attendance
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// LeaderboardPeriod is a closed set of sale-date windows.
type LeaderboardPeriod string

const (
	PeriodToday     LeaderboardPeriod = "today"
	PeriodYesterday LeaderboardPeriod = "yesterday"
	PeriodLast7Days LeaderboardPeriod = "last-7-days"
	PeriodThisMonth LeaderboardPeriod = "this-month"
	PeriodAllTime   LeaderboardPeriod = "all-time"
)

// OperatorSalesTotal is one operator's aggregated sales within a period.
type OperatorSalesTotal struct {
	OperatorID   int             `db:"operator_id" json:"operatorId"`
	OperatorName string          `db:"operator_name" json:"operatorName"`
	SalesCount   int             `db:"sales_count" json:"salesCount"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"totalAmount"`
}

// LeaderboardEntry is an OperatorSalesTotal with its average ticket and rank.
type LeaderboardEntry struct {
	OperatorSalesTotal
	AverageTicket decimal.Decimal `json:"averageTicket"`
	Rank          int             `json:"rank"`
}

// CreateSaleRequest is the body of POST /api/sales.
type CreateSaleRequest struct {
	ClientName   string          `json:"clientName" binding:"required"`
	ClientPhone  string          `json:"clientPhone"`
	ProductID    int             `json:"productId" binding:"required"`
	Quantity     int             `json:"quantity" binding:"required"`
	Discount     decimal.Decimal `json:"discount"`
	DiscountType string          `json:"discountType"`
	Online       bool            `json:"online"`
}
