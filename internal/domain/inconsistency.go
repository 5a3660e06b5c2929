package domain

import "time"

const (
	InconsistencyPending  = "PENDING"
	InconsistencyResolved = "RESOLVED"
)

// Inconsistency records an inventory decrement that has no matching order
// and could not be reverted in-line.
type Inconsistency struct {
	RecordID     string     `dynamodbav:"record_id"     json:"record_id"`
	ProductID    ProductID  `dynamodbav:"product_id"    json:"product_id"`
	Quantity     int64      `dynamodbav:"quantity"      json:"quantity"`
	CustomerName string     `dynamodbav:"customer_name" json:"customer_name"`
	UnitPrice    int64      `dynamodbav:"unit_price"    json:"unit_price"`
	Reason       string     `dynamodbav:"reason"        json:"reason"`
	Status       string     `dynamodbav:"status"        json:"status"`
	DetectedAt   time.Time  `dynamodbav:"detected_at"   json:"detected_at"`
	ResolvedAt   *time.Time `dynamodbav:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
