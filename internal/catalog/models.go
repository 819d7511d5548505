package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// RestaurantRef is the normalized owner of a dish. The backend sends the
// restaurant field either as a bare id string or as an embedded object;
// UnmarshalJSON accepts both so nothing downstream branches on shape.
type RestaurantRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (r *RestaurantRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		r.ID = id
		r.Name = ""
		return nil
	}

	var obj struct {
		ID   string `json:"id"`
		UID  string `json:"_id"`
		Name string `json:"name"`
		Nom  string `json:"nom"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("restaurant ref: %w", err)
	}
	r.ID = obj.ID
	if r.ID == "" {
		r.ID = obj.UID
	}
	r.Name = obj.Name
	if r.Name == "" {
		r.Name = obj.Nom
	}
	return nil
}

// Dish is a purchasable catalog item (a "plat" in the backend's wire format).
// It is owned by the backend; the engine treats it as read-only input.
type Dish struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"prix"`
	Images      []string        `json:"images,omitempty"`
	Ingredients []string        `json:"ingredients,omitempty"`
	Available   bool            `json:"available"`
	Restaurant  RestaurantRef   `json:"restaurant"`
	CategoryID  string          `json:"categorie,omitempty"`
}
