package store

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderRequestValidate(t *testing.T) {
	valid := PlaceOrderRequest{
		Items:     []OrderItemRequest{{ProductID: 1, Quantity: 2}},
		OrderDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, valid.validate())

	tests := []struct {
		name  string
		req   PlaceOrderRequest
		field string
	}{
		{
			name:  "empty items",
			req:   PlaceOrderRequest{OrderDate: valid.OrderDate},
			field: "items",
		},
		{
			name: "zero quantity",
			req: PlaceOrderRequest{
				Items:     []OrderItemRequest{{ProductID: 1, Quantity: 0}},
				OrderDate: valid.OrderDate,
			},
			field: "items[0].quantity",
		},
		{
			name: "negative quantity",
			req: PlaceOrderRequest{
				Items:     []OrderItemRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: -1}},
				OrderDate: valid.OrderDate,
			},
			field: "items[1].quantity",
		},
		{
			name: "missing order date",
			req: PlaceOrderRequest{
				Items: []OrderItemRequest{{ProductID: 1, Quantity: 1}},
			},
			field: "order_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate()
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestAddTax(t *testing.T) {
	subtotal := decimal.NewFromInt(25000)

	tax, total := addTax(subtotal)

	assert.True(t, tax.Equal(decimal.NewFromInt(2500)), "tax = %s", tax)
	assert.True(t, total.Equal(decimal.NewFromInt(27500)), "total = %s", total)
	assert.True(t, total.Equal(subtotal.Add(tax)))
}

func TestAddTaxZeroSubtotal(t *testing.T) {
	tax, total := addTax(decimal.Zero)

	assert.True(t, tax.IsZero())
	assert.True(t, total.IsZero())
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	orderDate := time.Date(2026, 8, 17, 15, 4, 5, 0, time.UTC)

	number := generateOrderNumber(orderDate)

	assert.Regexp(t, regexp.MustCompile(`^ORD-20260817-[0-9A-F]{12}$`), number)
}

func TestGenerateOrderNumberUnique(t *testing.T) {
	orderDate := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)

	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		number := generateOrderNumber(orderDate)
		require.False(t, seen[number], "duplicate order number %s", number)
		seen[number] = true
	}
}
