package orders

const (
	TopicOrderPlaced   = "orders.placed"
	TopicStatusChanged = "orders.status-changed"
)

// Partition key = order id, so every event for one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
