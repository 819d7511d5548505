package cart

import (
	"testing"

	"github.com/nbenhadid/foodcart/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dish(id, restaurantID, price string) catalog.Dish {
	return catalog.Dish{
		ID:         id,
		Name:       "dish-" + id,
		Price:      d(price),
		Restaurant: catalog.RestaurantRef{ID: restaurantID, Name: "restaurant-" + restaurantID},
	}
}

func mustLine(t *testing.T, dsh catalog.Dish, price string, qty int) Line {
	t.Helper()
	l, err := NewLine(dsh, d(price), qty)
	require.NoError(t, err)
	return l
}

func TestNewLineRejectsBadQuantity(t *testing.T) {
	_, err := NewLine(dish("p1", "r1", "10"), d("10"), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = NewLine(dish("p1", "r1", "10"), d("10"), -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddMergesSameItem(t *testing.T) {
	var c Cart
	p1 := dish("p1", "r1", "10")

	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "10", 1)))
	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "10", 1)))

	require.Len(t, c.Groups, 1)
	require.Len(t, c.Groups[0].Lines, 1, "same item must merge, not duplicate")
	assert.Equal(t, 2, c.Groups[0].Lines[0].Quantity)
	assert.True(t, c.RestaurantTotal("r1").Equal(d("20")))
}

func TestAddMergeTakesLatestPrice(t *testing.T) {
	var c Cart
	p1 := dish("p1", "r1", "10")

	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "10", 1)))
	// the promotion kicked in between the two adds
	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "8", 1)))

	line := c.Groups[0].Lines[0]
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(d("8")), "the newer unit price wins on merge")
}

func TestMultiRestaurantIsolation(t *testing.T) {
	var c Cart
	p1 := dish("p1", "r1", "10")
	p2 := dish("p2", "r2", "15")

	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "10", 1)))
	require.NoError(t, c.Add(p2.Restaurant, mustLine(t, p2, "15", 1)))

	assert.True(t, c.RestaurantTotal("r1").Equal(d("10")))
	assert.True(t, c.RestaurantTotal("r2").Equal(d("15")))

	c.ClearRestaurant("r1")
	assert.Nil(t, c.Group("r1"))
	require.NotNil(t, c.Group("r2"))
	assert.True(t, c.RestaurantTotal("r2").Equal(d("15")))
}

func TestUpdateQuantity(t *testing.T) {
	var c Cart
	p1 := dish("p1", "r1", "10")
	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "10", 1)))

	c.UpdateQuantity("r1", "p1", 5)
	assert.Equal(t, 5, c.Groups[0].Lines[0].Quantity)
	assert.True(t, c.RestaurantTotal("r1").Equal(d("50")))

	// zero removes the line; it was the only one, so the group goes too
	c.UpdateQuantity("r1", "p1", 0)
	assert.Nil(t, c.Group("r1"))
	assert.True(t, c.IsEmpty())
}

func TestUpdateQuantityUnknownPairIsNoop(t *testing.T) {
	var c Cart
	p1 := dish("p1", "r1", "10")
	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "10", 2)))

	c.UpdateQuantity("r1", "missing", 3)
	c.UpdateQuantity("missing", "p1", 3)
	c.UpdateQuantity("missing", "p1", 0)

	require.NotNil(t, c.Group("r1"))
	assert.Equal(t, 2, c.Groups[0].Lines[0].Quantity)
}

func TestRemoveDropsEmptyGroup(t *testing.T) {
	var c Cart
	p1 := dish("p1", "r1", "10")
	p2 := dish("p2", "r1", "5")
	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "10", 1)))
	require.NoError(t, c.Add(p2.Restaurant, mustLine(t, p2, "5", 1)))

	c.Remove("r1", "p1")
	require.NotNil(t, c.Group("r1"), "group survives while a line remains")
	require.Len(t, c.Group("r1").Lines, 1)

	c.Remove("r1", "p2")
	assert.Nil(t, c.Group("r1"), "no empty group may persist")
}

func TestTotalsAndCount(t *testing.T) {
	var c Cart
	p1 := dish("p1", "r1", "10")
	p2 := dish("p2", "r2", "15")
	require.NoError(t, c.Add(p1.Restaurant, mustLine(t, p1, "10", 3)))
	require.NoError(t, c.Add(p2.Restaurant, mustLine(t, p2, "15", 2)))

	assert.Equal(t, 5, c.TotalItemCount())
	assert.True(t, c.RestaurantTotal("r1").Equal(d("30")))
	assert.True(t, c.RestaurantTotal("unknown").Equal(decimal.Zero), "unknown restaurant totals zero, not an error")
}
