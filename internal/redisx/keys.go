package redisx

import "time"

const (
	// Server-side cart per customer: cart:{customer_id} -> JSON cart snapshot
	KeyCart = "cart:%s"

	// Checkout idempotency: idem:checkout:{customer_id}:{key} -> order_id
	KeyIdemCheckout = "idem:checkout:%s:%s"

	// Cached order status: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup processed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Pub/sub channel carrying order updates for one customer.
	ChannelOrderUpdates = "orders:updates:%s"
)

var (
	TTLCart        = 24 * time.Hour
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
