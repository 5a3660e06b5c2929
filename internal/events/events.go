package events

import (
	"encoding/json"
	"time"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
)

const (
	EventOrderPlaced            = "OrderPlaced"
	EventInventoryInconsistency = "InventoryInconsistency"

	eventVersion    = 1
	eventTypeHeader = "x-event-type"
)

// Envelope wraps every event written to Kafka.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

// 주문 완료 이벤트
type OrderPlacedEvent struct {
	OrderID      string           `json:"order_id"`
	CustomerName string           `json:"customer_name"`
	ProductID    domain.ProductID `json:"product_id"`
	ProductTitle string           `json:"product_title"`
	Quantity     int64            `json:"quantity"`
	UnitPrice    int64            `json:"unit_price"`
	TotalPrice   int64            `json:"total_price"`
	Status       string           `json:"status"`
	OrderDate    time.Time        `json:"order_date"`
}

// 주문 없이 차감된 재고 이벤트
type InventoryInconsistencyEvent struct {
	domain.Inconsistency
}

func newOrderPlacedEvent(order domain.Order, productTitle string) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		ProductID:    order.ProductID,
		ProductTitle: productTitle,
		Quantity:     order.Quantity,
		UnitPrice:    order.UnitPrice,
		TotalPrice:   order.TotalPrice,
		Status:       order.Status,
		OrderDate:    order.OrderDate,
	}
}
