package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestaurantRefUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RestaurantRef
	}{
		{name: "bare_id_string", in: `"r1"`, want: RestaurantRef{ID: "r1"}},
		{name: "embedded_object", in: `{"id":"r1","name":"Chez Ali"}`, want: RestaurantRef{ID: "r1", Name: "Chez Ali"}},
		{name: "mongo_style_object", in: `{"_id":"r2","nom":"Le Gourmet"}`, want: RestaurantRef{ID: "r2", Name: "Le Gourmet"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got RestaurantRef
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDishUnmarshalNormalizesRestaurant(t *testing.T) {
	raw := `{"id":"p1","name":"Couscous","prix":"12.50","restaurant":{"id":"r1","name":"Chez Ali"},"available":true}`

	var dish Dish
	require.NoError(t, json.Unmarshal([]byte(raw), &dish))
	assert.Equal(t, "p1", dish.ID)
	assert.Equal(t, RestaurantRef{ID: "r1", Name: "Chez Ali"}, dish.Restaurant)
	assert.True(t, dish.Price.Equal(d("12.50")))

	// same dish, restaurant as a bare id
	raw = `{"id":"p1","name":"Couscous","prix":10,"restaurant":"r1"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &dish))
	assert.Equal(t, "r1", dish.Restaurant.ID)
	assert.True(t, dish.Price.Equal(d("10")))
}
