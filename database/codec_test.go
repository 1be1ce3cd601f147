package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

func TestDecimalCodec_LineItem(t *testing.T) {
	reg := Registry()
	item := models.NewLineItem(&models.Product{Name: "Neem Soap", Price: decimal.RequireFromString("129.90")}, 3)

	raw, err := bson.MarshalWithRegistry(reg, item)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "129.90", doc["price"].(interface{ String() string }).String())

	var back models.OrderLineItem
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &back))
	assert.True(t, back.Price.Equal(item.Price))
	assert.True(t, back.TotalPrice.Equal(decimal.RequireFromString("389.70")))
	assert.Equal(t, "Neem Soap", back.ProductName)
}

func TestDecimalCodec_LegacyNumbers(t *testing.T) {
	reg := Registry()
	raw, err := bson.Marshal(bson.M{"name": "Old Oil", "price": 250.5, "discountPrice": int32(10), "stock": 3})
	require.NoError(t, err)

	var p models.Product
	require.NoError(t, bson.UnmarshalWithRegistry(reg, raw, &p))
	assert.True(t, p.Price.Equal(decimal.RequireFromString("250.5")))
	assert.True(t, p.DiscountPrice.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 3, p.Stock)
}
