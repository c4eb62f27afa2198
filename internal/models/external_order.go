package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ExternalOrder is an order placed on the e-commerce platform and synchronized locally.
// ExternalID is the platform's order id and the upsert key.
type ExternalOrder struct {
	ID              int             `db:"id" json:"id"`
	ExternalID      int64           `db:"external_id" json:"externalId"`
	Number          string          `db:"number" json:"number"`
	CustomerName    string          `db:"customer_name" json:"customerName"`
	CustomerEmail   string          `db:"customer_email" json:"customerEmail"`
	CustomerDoc     string          `db:"customer_document" json:"customerDocument"`
	CustomerPhone   string          `db:"customer_phone" json:"customerPhone"`
	Status          string          `db:"status" json:"status"`
	StatusID        *int            `db:"status_id" json:"statusId,omitempty"`
	FinancialStatus string          `db:"financial_status" json:"financialStatus"`
	DeliveryStatus  string          `db:"delivery_status" json:"deliveryStatus"`
	PaymentMethod   string          `db:"payment_method" json:"paymentMethod"`
	ValueTotal      decimal.Decimal `db:"value_total" json:"valueTotal"`
	ValueProducts   decimal.Decimal `db:"value_products" json:"valueProducts"`
	ValueDiscount   decimal.Decimal `db:"value_discount" json:"valueDiscount"`
	ValueShipping   decimal.Decimal `db:"value_shipping" json:"valueShipping"`
	OrderedAt       time.Time       `db:"ordered_at" json:"orderedAt"`
	UpdatedAt       *time.Time      `db:"external_updated_at" json:"externalUpdatedAt,omitempty"`
	ShippingAddress `json:"shippingAddress"`
	RawPayload      json.RawMessage `db:"raw_payload" json:"-"`
	Processed       bool            `db:"processed" json:"processed"`
	SyncedAt        time.Time       `db:"synced_at" json:"syncedAt"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// ShippingAddress is the delivery address captured from the order payload.
type ShippingAddress struct {
	Street       string `db:"address_street" json:"street"`
	Number       string `db:"address_number" json:"number"`
	Complement   string `db:"address_complement" json:"complement"`
	Neighborhood string `db:"address_neighborhood" json:"neighborhood"`
	City         string `db:"address_city" json:"city"`
	State        string `db:"address_state" json:"state"`
	ZipCode      string `db:"address_zipcode" json:"zipCode"`
}

// ExternalOrderItem is a line item of an ExternalOrder. ProductID and
// AttractionID are set once the item is classified.
type ExternalOrderItem struct {
	ID             int             `db:"id" json:"id"`
	OrderID        int             `db:"order_id" json:"orderId"`
	ExternalItemID int64           `db:"external_item_id" json:"externalItemId"`
	ProductName    string          `db:"product_name" json:"productName"`
	SKU            string          `db:"sku" json:"sku"`
	Quantity       int             `db:"quantity" json:"quantity"`
	UnitPrice      decimal.Decimal `db:"unit_price" json:"unitPrice"`
	LineTotal      decimal.Decimal `db:"line_total" json:"lineTotal"`
	ProductID      *int            `db:"product_id" json:"productId,omitempty"`
	AttractionID   *int            `db:"attraction_id" json:"attractionId,omitempty"`
	Classified     bool            `db:"classified" json:"classified"`
	ClassifiedAt   *time.Time      `db:"classified_at" json:"classifiedAt,omitempty"`
	Attendance
}

// ExternalOrderWithItems bundles an order with its line items.
type ExternalOrderWithItems struct {
	ExternalOrder
	Items []ExternalOrderItem `json:"items"`
}

// UnclassifiedName groups unclassified items sharing one external product name.
type UnclassifiedName struct {
	ProductName string `db:"product_name" json:"productName"`
	ItemCount   int    `db:"item_count" json:"itemCount"`
	Quantity    int    `db:"quantity" json:"quantity"`
}

// ClassificationSource tells how an item got (or lost) its classification.
type ClassificationSource string

const (
	ClassificationAuto    ClassificationSource = "auto"
	ClassificationManual  ClassificationSource = "manual"
	ClassificationCascade ClassificationSource = "cascade"
	ClassificationUndo    ClassificationSource = "unclassify"
)

// ClassificationEvent is an audit record of a classification change.
type ClassificationEvent struct {
	ID           int                  `db:"id" json:"id"`
	ItemID       int                  `db:"item_id" json:"itemId"`
	ProductID    *int                 `db:"product_id" json:"productId,omitempty"`
	AttractionID *int                 `db:"attraction_id" json:"attractionId,omitempty"`
	OperatorID   *int                 `db:"operator_id" json:"operatorId,omitempty"`
	Source       ClassificationSource `db:"source" json:"source"`
	CreatedAt    time.Time            `db:"created_at" json:"createdAt"`
}

// ConfirmAllResult reports the outcome of confirming every item of an order
// for one attraction.
type ConfirmAllResult struct {
	Confirmed        int `json:"confirmed"`
	AlreadyConfirmed int `json:"alreadyConfirmed"`
	Skipped          int `json:"skipped"`
}

// UpsertOutcome reports what an order upsert changed.
type UpsertOutcome struct {
	OrderID        int  `json:"orderId"`
	Created        bool `json:"created"`
	ItemsInserted  int  `json:"itemsInserted"`
	ItemsUpdated   int  `json:"itemsUpdated"`
	ItemsDeleted   int  `json:"itemsDeleted"`
	AutoClassified int  `json:"autoClassified"`
}
