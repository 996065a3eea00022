package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineTotalExactDecimal(t *testing.T) {
	// 0.1 * 3 would drift under float64; decimal must give exactly 0.30.
	price, err := decimal.NewFromString("0.10")
	require.NoError(t, err)

	item := OrderItem{Quantity: 3, UnitPrice: price}
	assert.True(t, item.LineTotal().Equal(decimal.RequireFromString("0.30")),
		"got %s", item.LineTotal())
}

func TestSubtotal(t *testing.T) {
	items := []OrderItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("500")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("19.99")},
	}

	assert.True(t, Subtotal(items).Equal(decimal.RequireFromString("1019.99")),
		"got %s", Subtotal(items))
}

func TestSubtotalEmpty(t *testing.T) {
	assert.True(t, Subtotal(nil).IsZero())
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{"PENDING", "CONFIRMED", "PROCESSING", "SHIPPED", "DELIVERED", "CANCELLED"} {
		assert.True(t, ValidOrderStatus(s), s)
	}
	for _, s := range []string{"", "pending", "REFUNDED", "SHIPPED ", "UNKNOWN"} {
		assert.False(t, ValidOrderStatus(s), s)
	}
}
