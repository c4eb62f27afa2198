package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/pkg/yampi"
)

const (
	defaultOrderStatus   = "pending"
	defaultPaymentMethod = "unknown"
)

// MapOrder flattens a Yampi order into the stored order and its line items.
// Items come back unclassified; classification is applied by the caller. When
// the payload does not include the items relation the returned slice is nil,
// which tells the store to keep the items it has.
func MapOrder(o *yampi.Order, now time.Time) (*models.ExternalOrder, []models.ExternalOrderItem) {
	customer := o.Customer.Data
	status := o.Status.Data
	addr := o.ShippingAddress.Data

	order := &models.ExternalOrder{
		ExternalID:      o.ID,
		Number:          o.Number.String(),
		CustomerName:    customer.Name.String(),
		CustomerEmail:   customer.Email.String(),
		CustomerDoc:     customer.CPF.String(),
		CustomerPhone:   customer.Phone.String(),
		Status:          firstNonEmpty(status.Name, defaultOrderStatus),
		FinancialStatus: defaultOrderStatus,
		DeliveryStatus:  defaultOrderStatus,
		PaymentMethod:   firstNonEmpty(o.PaymentMethod.String(), defaultPaymentMethod),
		ValueTotal:      o.ValueTotal.Decimal,
		ValueProducts:   o.ValueProducts.Decimal,
		ValueDiscount:   o.ValueDiscount.Decimal,
		ValueShipping:   o.ValueShipment.Decimal,
		OrderedAt:       now,
		ShippingAddress: models.ShippingAddress{
			Street:       addr.Street.String(),
			Number:       addr.Number.String(),
			Complement:   addr.Complement.String(),
			Neighborhood: addr.Neighborhood.String(),
			City:         addr.City.String(),
			State:        addr.State.String(),
			ZipCode:      addr.ZipCode.String(),
		},
		RawPayload: o.Raw,
		SyncedAt:   now,
	}
	if status.ID != 0 {
		id := status.ID
		order.StatusID = &id
	}
	if txs := o.Transactions.Data; len(txs) > 0 && txs[0].StatusName != "" {
		order.FinancialStatus = txs[0].StatusName
	} else if status.Name != "" {
		order.FinancialStatus = status.Name
	}
	if o.CreatedAt.Valid {
		order.OrderedAt = o.CreatedAt.Time
	}
	if o.UpdatedAt.Valid {
		t := o.UpdatedAt.Time
		order.UpdatedAt = &t
	}

	if !o.Items.Present {
		return order, nil
	}
	items := make([]models.ExternalOrderItem, 0, len(o.Items.Data))
	for _, it := range o.Items.Data {
		items = append(items, mapItem(it))
	}
	return order, items
}

func mapItem(it yampi.Item) models.ExternalOrderItem {
	qty := int(it.Quantity)
	if qty <= 0 {
		qty = 1
	}
	lineTotal := it.PriceTotal.Decimal
	if lineTotal.IsZero() {
		lineTotal = it.Price.Decimal.Mul(decimal.NewFromInt(int64(qty)))
	}
	return models.ExternalOrderItem{
		ExternalItemID: it.ID,
		ProductName:    firstNonEmpty(it.SKU.Title, it.Name.String()),
		SKU:            firstNonEmpty(it.SKU.SKU, it.ItemSKU.String(), it.SKUCode.String()),
		Quantity:       qty,
		UnitPrice:      it.Price.Decimal,
		LineTotal:      lineTotal,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
