package cart

import (
	"github.com/feastly/go-food-orders/internal/orders"
)

// Cart is the mutable, in-progress collection of line items for one customer
// session. It holds no I/O; the redis-backed Store persists it between
// requests.
type Cart struct {
	Items []orders.LineItem `json:"items"`
}

// AddItem appends a menu item with quantity 1, or bumps the quantity when the
// item is already in the cart. Adding an item from a different restaurant
// starts a fresh cart: an order never spans restaurants, and failing the
// constraint here is cheaper than at checkout.
func (c *Cart) AddItem(item orders.LineItem) {
	if len(c.Items) > 0 && c.Items[0].RestaurantID != item.RestaurantID {
		c.Items = nil
	}
	for i := range c.Items {
		if c.Items[i].ItemID == item.ItemID {
			c.Items[i].Quantity++
			return
		}
	}
	item.Quantity = 1
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets an item's quantity exactly; qty <= 0 removes the item.
// Unknown ids are ignored.
func (c *Cart) UpdateQuantity(itemID string, qty int) {
	if qty <= 0 {
		c.RemoveItem(itemID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			c.Items[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) RemoveItem(itemID string) {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() { c.Items = nil }

// ToDraft snapshots the cart into an immutable draft bound to the customer.
// The restaurant comes from the first item; AddItem guarantees all items
// share it.
func (c *Cart) ToDraft(customerID string) (orders.Draft, error) {
	if len(c.Items) == 0 {
		return orders.Draft{}, orders.ErrEmptyCart
	}
	items := append([]orders.LineItem(nil), c.Items...)
	return orders.Draft{
		CustomerID:   customerID,
		RestaurantID: items[0].RestaurantID,
		Items:        items,
	}, nil
}
