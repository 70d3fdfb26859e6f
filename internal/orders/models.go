package orders

import "time"

// All money is in minor units (cents).

type LineItem struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"unit_price_cents"`
	Quantity     int    `json:"quantity"`
	RestaurantID string `json:"restaurant_id"`
}

// Draft is the immutable, validated snapshot of a cart handed to the
// coordinator. Build one through cart.Cart.ToDraft; downstream code never
// touches the live cart.
type Draft struct {
	CustomerID   string
	RestaurantID string
	Items        []LineItem
}

func (d Draft) Subtotal() int64 {
	var sum int64
	for _, it := range d.Items {
		sum += it.UnitPrice * int64(it.Quantity)
	}
	return sum
}

type Order struct {
	ID           string     `json:"order_id"`
	CustomerID   string     `json:"customer_id"`
	RestaurantID string     `json:"restaurant_id"`
	Items        []LineItem `json:"items"`
	Subtotal     int64      `json:"subtotal_cents"`
	Tax          int64      `json:"tax_cents"`
	Total        int64      `json:"total_cents"`
	Status       Status     `json:"status"`
	PaymentTxnID string     `json:"payment_txn_id,omitempty"`
	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
