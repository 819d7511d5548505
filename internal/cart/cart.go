package cart

import (
	"errors"

	"github.com/nbenhadid/foodcart/internal/catalog"
	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Line is one cart entry: a dish snapshot plus quantity and the unit price
// resolved at the time the dish was added (promotional if a promotion was
// active then). Stored prices are never retroactively repriced.
type Line struct {
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Ingredients []string        `json:"ingredients,omitempty"`
	Category    string          `json:"category,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// NewLine builds a line from a dish at the given resolved unit price.
func NewLine(dish catalog.Dish, unitPrice decimal.Decimal, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}
	return Line{
		ItemID:      dish.ID,
		Name:        dish.Name,
		Description: dish.Description,
		Images:      dish.Images,
		Ingredients: dish.Ingredients,
		Category:    dish.CategoryID,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
	}, nil
}

// RestaurantGroup holds every line belonging to one restaurant. Line order is
// insertion order, kept stable for display.
type RestaurantGroup struct {
	Restaurant catalog.RestaurantRef `json:"restaurant"`
	Lines      []Line                `json:"lines"`
}

// Total sums unit price times quantity over the group's lines.
func (g RestaurantGroup) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range g.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Cart owns the set of restaurant groups, one per restaurant id. An empty
// group never persists: removing a group's last line removes the group.
type Cart struct {
	Groups []RestaurantGroup `json:"restaurant_groups"`
}

// Group returns the group for a restaurant id, or nil if absent.
func (c *Cart) Group(restaurantID string) *RestaurantGroup {
	for i := range c.Groups {
		if c.Groups[i].Restaurant.ID == restaurantID {
			return &c.Groups[i]
		}
	}
	return nil
}

// Add places a line under the restaurant's group, creating the group on first
// use. Adding an item already present merges into the existing line: the
// quantity is incremented and the newer unit price wins, matching
// price-as-currently-offered semantics.
func (c *Cart) Add(restaurant catalog.RestaurantRef, line Line) error {
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}
	g := c.Group(restaurant.ID)
	if g == nil {
		c.Groups = append(c.Groups, RestaurantGroup{Restaurant: restaurant})
		g = &c.Groups[len(c.Groups)-1]
	}
	for i := range g.Lines {
		if g.Lines[i].ItemID == line.ItemID {
			g.Lines[i].Quantity += line.Quantity
			g.Lines[i].UnitPrice = line.UnitPrice
			return nil
		}
	}
	g.Lines = append(g.Lines, line)
	return nil
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line,
// and removing the last line removes the group. Unknown (restaurant, item)
// pairs are a no-op: rapid UI clicks can race a removal.
func (c *Cart) UpdateQuantity(restaurantID, itemID string, quantity int) {
	if quantity <= 0 {
		c.Remove(restaurantID, itemID)
		return
	}
	g := c.Group(restaurantID)
	if g == nil {
		return
	}
	for i := range g.Lines {
		if g.Lines[i].ItemID == itemID {
			g.Lines[i].Quantity = quantity
			return
		}
	}
}

// Remove deletes a line unconditionally and drops the group if it empties.
func (c *Cart) Remove(restaurantID, itemID string) {
	g := c.Group(restaurantID)
	if g == nil {
		return
	}
	for i := range g.Lines {
		if g.Lines[i].ItemID == itemID {
			g.Lines = append(g.Lines[:i], g.Lines[i+1:]...)
			break
		}
	}
	if len(g.Lines) == 0 {
		c.ClearRestaurant(restaurantID)
	}
}

// ClearRestaurant drops an entire group, leaving other restaurants untouched.
// Used after a successful checkout of that restaurant's order.
func (c *Cart) ClearRestaurant(restaurantID string) {
	for i := range c.Groups {
		if c.Groups[i].Restaurant.ID == restaurantID {
			c.Groups = append(c.Groups[:i], c.Groups[i+1:]...)
			return
		}
	}
}

// RestaurantTotal returns the group's total, or zero for an unknown id.
func (c *Cart) RestaurantTotal(restaurantID string) decimal.Decimal {
	g := c.Group(restaurantID)
	if g == nil {
		return decimal.Zero
	}
	return g.Total()
}

// TotalItemCount sums quantities across every line in every group.
func (c *Cart) TotalItemCount() int {
	n := 0
	for _, g := range c.Groups {
		for _, l := range g.Lines {
			n += l.Quantity
		}
	}
	return n
}

// IsEmpty reports whether no group remains.
func (c *Cart) IsEmpty() bool { return len(c.Groups) == 0 }
