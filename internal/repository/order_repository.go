package repository

import (
	"context"
	"fmt"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/query"
)

const MaxOrderListLimit = 100

const insertOrderSQL = `
INSERT INTO orders (customer_name, product_id, quantity, unit_price, total_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_date, status`

const orderSummaryColumns = `
    o.id,
    o.customer_name,
    p.title AS product_title,
    p.subtitle AS product_subtitle,
    p.price,
    o.quantity,
    o.unit_price,
    o.total_price,
    o.order_date,
    o.status`

const listOrdersSQL = `
SELECT` + orderSummaryColumns + `
FROM orders o
JOIN products p ON o.product_id = p.id
ORDER BY o.order_date DESC
LIMIT $1`

const listCustomerOrdersSQL = `
SELECT` + orderSummaryColumns + `
FROM orders o
JOIN products p ON o.product_id = p.id
WHERE o.customer_name = $1
ORDER BY o.order_date DESC`

type OrderRepository struct {
	exec query.Executor
}

func NewOrderRepository(exec query.Executor) *OrderRepository {
	return &OrderRepository{exec: exec}
}

// CreateOrder inserts the order and fills in the store-generated id,
// order date and status. Once the row is returned the order exists, so an
// unreadable order_date leaves OrderDate zero instead of failing.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	res, err := r.exec.Execute(ctx, insertOrderSQL,
		order.CustomerName,
		order.ProductID.BindValue(),
		order.Quantity,
		order.UnitPrice,
		order.TotalPrice,
	)
	if err != nil {
		return err
	}

	row := res.First()
	if row == nil {
		return fmt.Errorf("%w: no row returned", query.ErrResponseParse)
	}
	order.ID = row.String("id")
	order.Status = row.String("status")
	if orderDate, err := row.Time("order_date"); err == nil {
		order.OrderDate = orderDate
	}
	return nil
}

func (r *OrderRepository) ListOrders(ctx context.Context, limit int) ([]domain.OrderSummary, error) {
	if limit <= 0 || limit > MaxOrderListLimit {
		limit = MaxOrderListLimit
	}
	res, err := r.exec.Execute(ctx, listOrdersSQL, limit)
	if err != nil {
		return nil, err
	}
	return scanOrderSummaries(res.Rows)
}

func (r *OrderRepository) ListOrdersByCustomer(ctx context.Context, customerName string) ([]domain.OrderSummary, error) {
	res, err := r.exec.Execute(ctx, listCustomerOrdersSQL, customerName)
	if err != nil {
		return nil, err
	}
	return scanOrderSummaries(res.Rows)
}

func scanOrderSummaries(rows []query.Row) ([]domain.OrderSummary, error) {
	orders := make([]domain.OrderSummary, 0, len(rows))
	for _, row := range rows {
		o, err := scanOrderSummary(row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func scanOrderSummary(row query.Row) (domain.OrderSummary, error) {
	var (
		o   domain.OrderSummary
		err error
	)
	if o.Quantity, err = row.Int("quantity"); err != nil {
		return o, malformed(err)
	}
	if o.UnitPrice, err = row.Int("unit_price"); err != nil {
		return o, malformed(err)
	}
	if o.TotalPrice, err = row.Int("total_price"); err != nil {
		return o, malformed(err)
	}
	if o.OrderDate, err = row.Time("order_date"); err != nil {
		return o, malformed(err)
	}
	o.ID = row.String("id")
	o.CustomerName = row.String("customer_name")
	o.ProductTitle = row.String("product_title")
	o.ProductSubtitle = row.String("product_subtitle")
	o.Price = row.String("price")
	o.Status = row.String("status")
	return o, nil
}
