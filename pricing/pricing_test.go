package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

func TestDiscount_Tiers(t *testing.T) {
	tests := []struct {
		subtotal int64
		want     int64
	}{
		{0, 0},
		{499, 0},
		{500, 50},
		{999, 50},
		{1000, 100},
		{1499, 100},
		{1500, 150},
		{1999, 150},
		{2000, 200},
		{10000, 200},
	}
	for _, tt := range tests {
		got := Discount(decimal.NewFromInt(tt.subtotal))
		assert.Truef(t, got.Equal(decimal.NewFromInt(tt.want)),
			"discount(%d) = %s, want %d", tt.subtotal, got, tt.want)
	}
}

func TestDiscount_FractionalBelowThreshold(t *testing.T) {
	got := Discount(decimal.RequireFromString("499.99"))
	assert.True(t, got.IsZero())
}

func TestPrice(t *testing.T) {
	q, err := Price([]Line{
		{UnitPrice: decimal.NewFromInt(250), Quantity: 3},
		{UnitPrice: decimal.RequireFromString("99.50"), Quantity: 2},
	})
	require.NoError(t, err)

	assert.True(t, q.Subtotal.Equal(decimal.NewFromInt(949)), "subtotal %s", q.Subtotal)
	assert.True(t, q.Discount.Equal(decimal.NewFromInt(50)))
	assert.True(t, q.Total.Equal(decimal.NewFromInt(899)))

	require.NotNil(t, q.Next)
	assert.True(t, q.Next.Threshold.Equal(decimal.NewFromInt(1000)))
	assert.True(t, q.Next.Discount.Equal(decimal.NewFromInt(100)))
	assert.True(t, q.Next.Remaining.Equal(decimal.NewFromInt(51)))
}

func TestPrice_TopTierHasNoNext(t *testing.T) {
	q, err := Price([]Line{{UnitPrice: decimal.NewFromInt(2500), Quantity: 1}})
	require.NoError(t, err)
	assert.Nil(t, q.Next)
	assert.True(t, q.Total.Equal(decimal.NewFromInt(2300)))
}

func TestPrice_EmptyCart(t *testing.T) {
	q, err := Price(nil)
	require.NoError(t, err)
	assert.True(t, q.Total.IsZero())
	require.NotNil(t, q.Next)
	assert.True(t, q.Next.Remaining.Equal(decimal.NewFromInt(500)))
}

func TestPrice_RejectsNegativeInput(t *testing.T) {
	_, err := Price([]Line{{UnitPrice: decimal.NewFromInt(-1), Quantity: 1}})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = Price([]Line{{UnitPrice: decimal.NewFromInt(1), Quantity: -2}})
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestQuote_Accepts(t *testing.T) {
	q, err := Price([]Line{{UnitPrice: decimal.NewFromInt(600), Quantity: 1}})
	require.NoError(t, err)

	assert.True(t, q.Accepts(decimal.NewFromInt(550)))
	assert.True(t, q.Accepts(decimal.RequireFromString("600.00")))
	assert.False(t, q.Accepts(decimal.NewFromInt(500)))
}
