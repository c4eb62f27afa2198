package service

import (
	"bytes"
	"image/jpeg"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pdv_api/internal/models"
)

func TestTicketRenderer_Render(t *testing.T) {
	r := NewTicketRenderer("Visite Campos", time.UTC)
	sale := &models.Sale{
		Code:         "0042",
		ClientName:   "João Álvares",
		ProductName:  "Dreamhouse Infantil",
		Quantity:     3,
		UnitPrice:    decimal.RequireFromString("50"),
		Subtotal:     decimal.RequireFromString("150"),
		Discount:     decimal.RequireFromString("15"),
		Total:        decimal.RequireFromString("135"),
		OperatorName: "Ana",
		CreatedAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	data, err := r.Render(sale)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1080, img.Bounds().Dx())
	assert.Equal(t, 1350, img.Bounds().Dy())
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1234,50", formatBRL(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "R$ 0,00", formatBRL(decimal.Zero))
}

func TestFoldAccents(t *testing.T) {
	assert.Equal(t, "Joao Alvares", FoldAccents("João Álvares"))
}
