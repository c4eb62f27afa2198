package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pdv_api/pkg/yampi"
)

const sampleOrder = `{
	"id": 98765,
	"number": 1203,
	"payment_method": "pix",
	"value_total": "250.00",
	"value_products": 260,
	"value_discount": "10.00",
	"value_shipment": null,
	"created_at": {"date": "2024-03-10 14:30:00.000000", "timezone_type": 3, "timezone": "America/Sao_Paulo"},
	"updated_at": "2024-03-11 09:00:00",
	"customer": {"data": {"name": "Maria Souza", "email": "maria@example.com", "cpf": "12345678900", "phone": {"full_number": "5511988887777"}}},
	"status": {"data": {"id": 4, "alias": "paid", "name": "Pago"}},
	"transactions": {"data": [{"id": 1, "status_name": "Aprovado"}]},
	"shipping_address": {"data": {"street": "Rua A", "number": 10, "city": "Gramado", "state": "RS", "zipcode": "95670000"}},
	"items": {"data": [
		{"id": 1, "name": "fallback", "quantity": 2, "price": "100.00", "price_total": "200.00", "sku": {"data": {"sku": "DH-AD", "title": "Dreamhouse Adulto"}}},
		{"id": 2, "name": "Dreamhouse Infantil", "quantity": "0", "price": 60, "item_sku": "DH-INF"}
	]}
}`

func TestMapOrder(t *testing.T) {
	var o yampi.Order
	require.NoError(t, json.Unmarshal([]byte(sampleOrder), &o))
	now := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	order, items := MapOrder(&o, now)

	assert.Equal(t, int64(98765), order.ExternalID)
	assert.Equal(t, "1203", order.Number)
	assert.Equal(t, "Maria Souza", order.CustomerName)
	assert.Equal(t, "5511988887777", order.CustomerPhone)
	assert.Equal(t, "Pago", order.Status)
	require.NotNil(t, order.StatusID)
	assert.Equal(t, 4, *order.StatusID)
	assert.Equal(t, "Aprovado", order.FinancialStatus)
	assert.Equal(t, "pending", order.DeliveryStatus)
	assert.Equal(t, "pix", order.PaymentMethod)
	assert.Equal(t, "250", order.ValueTotal.String())
	assert.True(t, order.ValueShipping.IsZero())
	assert.Equal(t, 2024, order.OrderedAt.Year())
	assert.Equal(t, 14, order.OrderedAt.Hour())
	require.NotNil(t, order.UpdatedAt)
	assert.Equal(t, "10", order.ShippingAddress.Number)
	assert.Equal(t, "Gramado", order.City)
	assert.NotEmpty(t, order.RawPayload)

	require.Len(t, items, 2)
	assert.Equal(t, "Dreamhouse Adulto", items[0].ProductName)
	assert.Equal(t, "DH-AD", items[0].SKU)
	assert.Equal(t, "200", items[0].LineTotal.String())

	assert.Equal(t, "Dreamhouse Infantil", items[1].ProductName)
	assert.Equal(t, "DH-INF", items[1].SKU)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, "60", items[1].LineTotal.String())
	assert.False(t, items[1].Classified)
}

func TestMapOrder_Defaults(t *testing.T) {
	var o yampi.Order
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "number": "A1"}`), &o))
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	order, items := MapOrder(&o, now)

	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "pending", order.FinancialStatus)
	assert.Equal(t, "unknown", order.PaymentMethod)
	assert.Nil(t, order.StatusID)
	assert.Nil(t, order.UpdatedAt)
	assert.Equal(t, now, order.OrderedAt)
	assert.Nil(t, items)
}

func TestMapOrder_ItemsRelation(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		payload string
		wantNil bool
	}{
		{"missing", `{"id": 5, "number": 5}`, true},
		{"null", `{"id": 5, "number": 5, "items": null}`, true},
		{"null data", `{"id": 5, "number": 5, "items": {"data": null}}`, true},
		{"empty list", `{"id": 5, "number": 5, "items": {"data": []}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o yampi.Order
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &o))
			_, items := MapOrder(&o, now)
			assert.Equal(t, tt.wantNil, items == nil)
			assert.Empty(t, items)
		})
	}
}
