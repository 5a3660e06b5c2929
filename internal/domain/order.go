package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

type Order struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customer_name"`
	ProductID    ProductID `json:"product_id"`
	Quantity     int64     `json:"quantity"`
	UnitPrice    int64     `json:"unit_price"`
	TotalPrice   int64     `json:"total_price"`
	OrderDate    time.Time `json:"order_date"`
	Status       string    `json:"status"`
}

// OrderSummary is an order joined with its product at read time.
type OrderSummary struct {
	ID              string    `json:"id"`
	CustomerName    string    `json:"customer_name"`
	ProductTitle    string    `json:"product_title"`
	ProductSubtitle string    `json:"product_subtitle"`
	Price           string    `json:"price"`
	Quantity        int64     `json:"quantity"`
	UnitPrice       int64     `json:"unit_price"`
	TotalPrice      int64     `json:"total_price"`
	OrderDate       time.Time `json:"order_date"`
	Status          string    `json:"status"`
}

type PlaceOrderRequest struct {
	CustomerName string      `json:"customerName"`
	ProductID    ProductID   `json:"productId"`
	Quantity     json.Number `json:"quantity"`
}

// QuantityValue returns the requested quantity, or 0 when it is missing or
// not a whole number. Whole-valued decimals such as 2.0 count as integers.
// 0 is rejected downstream like any other invalid value.
func (r PlaceOrderRequest) QuantityValue() int64 {
	q := json.Number(strings.TrimSpace(r.Quantity.String()))
	if n, err := q.Int64(); err == nil {
		return n
	}
	f, err := q.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

type OrderConfirmation struct {
	ID             string    `json:"id"`
	CustomerName   string    `json:"customerName"`
	ProductTitle   string    `json:"productTitle"`
	Quantity       int64     `json:"quantity"`
	TotalPrice     int64     `json:"totalPrice"`
	OrderDate      time.Time `json:"orderDate"`
	RemainingStock int64     `json:"remainingStock"`
}
