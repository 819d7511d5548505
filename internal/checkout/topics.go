package checkout

const (
	TopicOrderSubmitted    = "checkout.order.submitted"
	TopicPaymentSucceeded  = "checkout.payment.succeeded"
	TopicPaymentFailed     = "checkout.payment.failed"
	TopicCheckoutAbandoned = "checkout.abandoned"
)

// Partition key = order id, so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
