package yampi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrdersResponse is the paginated payload of GET /orders. Orders are decoded
// one by one: an order that fails to decode lands in Rejected and the rest of
// the page is kept.
type OrdersResponse struct {
	Data     []Order         `json:"data"`
	Meta     Meta            `json:"meta"`
	Rejected []RejectedOrder `json:"-"`
}

// RejectedOrder is an order of a page that could not be decoded. Index is its
// position within the page; ID is empty when even the id was unreadable.
type RejectedOrder struct {
	Index int
	ID    string
	Err   error
}

func (r *OrdersResponse) UnmarshalJSON(b []byte) error {
	var page struct {
		Data []json.RawMessage `json:"data"`
		Meta Meta              `json:"meta"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return err
	}

	r.Meta = page.Meta
	r.Data = make([]Order, 0, len(page.Data))
	r.Rejected = nil
	for i, raw := range page.Data {
		var o Order
		if err := json.Unmarshal(raw, &o); err != nil {
			var ref struct {
				ID FlexString `json:"id"`
			}
			_ = json.Unmarshal(raw, &ref)
			r.Rejected = append(r.Rejected, RejectedOrder{Index: i, ID: ref.ID.String(), Err: err})
			continue
		}
		r.Data = append(r.Data, o)
	}
	return nil
}

// SetLocation interprets zone-less timestamps of every order in loc.
func (r *OrdersResponse) SetLocation(loc *time.Location) {
	for i := range r.Data {
		r.Data[i].SetLocation(loc)
	}
}

// Meta carries pagination info.
type Meta struct {
	Pagination Pagination `json:"pagination"`
}

// Pagination as reported by the API.
type Pagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// Include is the {"data": ...} envelope of an expanded relation. Present is
// false when the relation is missing from the payload or its data is null.
type Include[T any] struct {
	Data    T    `json:"data"`
	Present bool `json:"-"`
}

func (i *Include[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var w struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	data := bytes.TrimSpace(w.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &i.Data); err != nil {
		return err
	}
	i.Present = true
	return nil
}

// Order is one order with the customer, status, items, transactions and
// shipping_address includes expanded.
type Order struct {
	ID              int64                  `json:"id"`
	Number          FlexString             `json:"number"`
	PaymentMethod   FlexString             `json:"payment_method"`
	ValueTotal      Money                  `json:"value_total"`
	ValueProducts   Money                  `json:"value_products"`
	ValueDiscount   Money                  `json:"value_discount"`
	ValueShipment   Money                  `json:"value_shipment"`
	CreatedAt       Timestamp              `json:"created_at"`
	UpdatedAt       Timestamp              `json:"updated_at"`
	Customer        Include[Customer]      `json:"customer"`
	Status          Include[Status]        `json:"status"`
	Items           Include[[]Item]        `json:"items"`
	Transactions    Include[[]Transaction] `json:"transactions"`
	ShippingAddress Include[Address]       `json:"shipping_address"`

	// Raw is the undecoded order object.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the order and keeps a copy of the raw payload.
func (o *Order) UnmarshalJSON(b []byte) error {
	type plain Order
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = Order(p)
	o.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// SetLocation interprets the order's zone-less timestamps in loc.
func (o *Order) SetLocation(loc *time.Location) {
	o.CreatedAt = o.CreatedAt.In(loc)
	o.UpdatedAt = o.UpdatedAt.In(loc)
}

// Customer is the buyer of an order.
type Customer struct {
	ID    int64      `json:"id"`
	Name  FlexString `json:"name"`
	Email FlexString `json:"email"`
	CPF   FlexString `json:"cpf"`
	Phone FlexString `json:"phone"`
}

// Status is an order status of the checkout.
type Status struct {
	ID    int    `json:"id"`
	Alias string `json:"alias,omitempty"`
	Name  string `json:"name"`
}

// Transaction is a payment attempt of an order.
type Transaction struct {
	ID         int64  `json:"id"`
	StatusName string `json:"status_name"`
}

// Address is a shipping address.
type Address struct {
	Street       FlexString `json:"street"`
	Number       FlexString `json:"number"`
	Complement   FlexString `json:"complement"`
	Neighborhood FlexString `json:"neighborhood"`
	City         FlexString `json:"city"`
	State        FlexString `json:"state"`
	ZipCode      FlexString `json:"zipcode"`
}

// Item is an order line.
type Item struct {
	ID         int64      `json:"id"`
	Name       FlexString `json:"name"`
	Quantity   FlexInt    `json:"quantity"`
	Price      Money      `json:"price"`
	PriceTotal Money      `json:"price_total"`
	ItemSKU    FlexString `json:"item_sku"`
	SKUCode    FlexString `json:"sku_code"`
	SKU        SKURef     `json:"sku"`
}

// SKURef is the included SKU of an item; some payloads send a bare code instead.
type SKURef struct {
	SKU   string
	Title string
}

// UnmarshalJSON accepts {"data": {"sku", "title"}} or a plain string.
func (s *SKURef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &s.SKU)
	}
	var wrapped struct {
		Data struct {
			SKU   FlexString `json:"sku"`
			Title FlexString `json:"title"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil
	}
	s.SKU = wrapped.Data.SKU.String()
	s.Title = wrapped.Data.Title.String()
	return nil
}

// StatusesResponse is the payload of GET /checkout/statuses.
type StatusesResponse struct {
	Data []Status `json:"data"`
}

// FlexString decodes strings, numbers and null into a string. Objects carrying
// a full_number (phones) yield that field; other shapes decode to "".
type FlexString string

// String returns the trimmed value.
func (f FlexString) String() string { return strings.TrimSpace(string(f)) }

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case b[0] == '{':
		var obj struct {
			FullNumber string `json:"full_number"`
		}
		_ = json.Unmarshal(b, &obj)
		*f = FlexString(obj.FullNumber)
	case b[0] == '[' || bytes.Equal(b, []byte("true")) || bytes.Equal(b, []byte("false")):
		*f = ""
	default:
		*f = FlexString(b)
	}
	return nil
}

// FlexInt decodes integers given as numbers or numeric strings.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(i)
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*f = FlexInt(d.IntPart())
	return nil
}

// Money decodes monetary values sent either as numbers or as strings into a
// fixed-point decimal. Empty and null values are zero.
type Money struct {
	decimal.Decimal
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return err
	}
	m.Decimal = d
	return nil
}

// Timestamp decodes either a plain date string or the
// {"date", "timezone_type", "timezone"} wrapper. A value carrying neither a
// timezone nor an offset is read as UTC until In assigns its real location.
type Timestamp struct {
	Time  time.Time
	Valid bool

	floating bool
}

// In returns t with a zone-less wall clock reinterpreted in loc. Timestamps
// that named their zone or offset are returned unchanged.
func (t Timestamp) In(loc *time.Location) Timestamp {
	if !t.Valid || !t.floating || loc == nil {
		return t
	}
	w := t.Time
	return Timestamp{
		Time:  time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), loc),
		Valid: true,
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	var raw, zone string
	if b[0] == '{' {
		var w struct {
			Date     string `json:"date"`
			Timezone string `json:"timezone"`
		}
		if err := json.Unmarshal(b, &w); err != nil {
			return err
		}
		raw, zone = w.Date, w.Timezone
	} else if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*t = parseTimestamp(raw, zone)
	return nil
}

func parseTimestamp(raw, zone string) Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}
	}
	loc, zoned := time.UTC, false
	if zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc, zoned = l, true
		}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return Timestamp{Time: ts, Valid: true, floating: !zoned && layout != time.RFC3339Nano}
		}
	}
	return Timestamp{}
}
