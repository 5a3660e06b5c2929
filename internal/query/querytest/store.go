// Package querytest provides an in-memory query.Executor that understands
// the statements the repositories issue, for use in tests.
package querytest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cloud-wave-best-zizon/order-service/internal/query"
)

type Product struct {
	ID           string
	Title        string
	Subtitle     string
	Price        string
	PriceNumeric int64
	Image        string
	Category     string
	Type         string
	Badge        string
}

type Order struct {
	ID           int64
	CustomerName string
	ProductID    string
	Quantity     int64
	UnitPrice    int64
	TotalPrice   int64
	OrderDate    time.Time
	Status       string
}

type Call struct {
	Query  string
	Params []any
}

// Store answers queries from in-memory tables. Rows are shaped like the
// query proxy's replies: numbers as json.Number, timestamps as RFC 3339 text.
type Store struct {
	mu       sync.Mutex
	products map[string]Product
	stock    map[string]int64
	orders   []Order
	calls    []Call
	clock    time.Time

	// FailOn, when set, is consulted before every query; a non-nil error
	// is returned instead of running it.
	FailOn func(query string, params []any) error
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]Product),
		stock:    make(map[string]int64),
		clock:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// AddProduct adds a product with an inventory row holding stock.
func (s *Store) AddProduct(p Product, stock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	s.stock[p.ID] = stock
}

// AddProductWithoutInventory adds a product that has no inventory row.
func (s *Store) AddProductWithoutInventory(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) SetStock(productID string, stock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[productID] = stock
}

func (s *Store) Stock(productID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[productID]
}

func (s *Store) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Order(nil), s.orders...)
}

func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsMatching counts recorded queries containing fragment.
func (s *Store) CallsMatching(fragment string) int {
	n := 0
	for _, c := range s.Calls() {
		if strings.Contains(c.Query, fragment) {
			n++
		}
	}
	return n
}

func (s *Store) Execute(ctx context.Context, q string, params ...any) (*query.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Query: q, Params: params})
	failOn := s.FailOn
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", query.ErrTransport, query.ErrNotSent, err)
	}

	if failOn != nil {
		if err := failOn(q, params); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case strings.Contains(q, "UPDATE inventory") && strings.Contains(q, "stock_quantity - $1"):
		return s.decrement(q, params)
	case strings.Contains(q, "UPDATE inventory") && strings.Contains(q, "stock_quantity + $1"):
		return s.restore(params)
	case strings.Contains(q, "UPDATE inventory") && strings.Contains(q, "reserved_quantity = 0"):
		return s.reset(params)
	case strings.Contains(q, "INSERT INTO orders"):
		return s.insertOrder(params)
	case strings.Contains(q, "FROM orders o"):
		return s.listOrders(q, params)
	case strings.Contains(q, "FROM products p"):
		return s.selectProducts(q, params)
	}
	return nil, fmt.Errorf("%w: querytest: unsupported statement %q", query.ErrStore, q)
}

func (s *Store) decrement(q string, params []any) (*query.Result, error) {
	qty, id := toInt(params[0]), key(params[1])
	cur, ok := s.stock[id]
	if !ok {
		return &query.Result{}, nil
	}
	if strings.Contains(q, "stock_quantity >= $1") && cur < qty {
		return &query.Result{}, nil
	}
	s.stock[id] = cur - qty
	return one(query.Row{"stock_quantity": num(s.stock[id])}), nil
}

func (s *Store) restore(params []any) (*query.Result, error) {
	qty, id := toInt(params[0]), key(params[1])
	cur, ok := s.stock[id]
	if !ok {
		return &query.Result{}, nil
	}
	s.stock[id] = cur + qty
	return one(query.Row{"stock_quantity": num(s.stock[id])}), nil
}

func (s *Store) reset(params []any) (*query.Result, error) {
	qty := toInt(params[0])
	for id := range s.stock {
		s.stock[id] = qty
	}
	return &query.Result{RowCount: len(s.stock)}, nil
}

func (s *Store) insertOrder(params []any) (*query.Result, error) {
	productID := key(params[1])
	if _, ok := s.products[productID]; !ok {
		return nil, fmt.Errorf("%w: violates foreign key constraint on product_id", query.ErrStore)
	}
	s.clock = s.clock.Add(time.Second)
	o := Order{
		ID:           int64(len(s.orders) + 1),
		CustomerName: key(params[0]),
		ProductID:    productID,
		Quantity:     toInt(params[2]),
		UnitPrice:    toInt(params[3]),
		TotalPrice:   toInt(params[4]),
		OrderDate:    s.clock,
		Status:       "pending",
	}
	s.orders = append(s.orders, o)
	return one(query.Row{
		"id":         num(o.ID),
		"order_date": o.OrderDate.Format(time.RFC3339Nano),
		"status":     o.Status,
	}), nil
}

func (s *Store) listOrders(q string, params []any) (*query.Result, error) {
	limit := len(s.orders)
	customer := ""
	byCustomer := strings.Contains(q, "o.customer_name = $1")
	if byCustomer {
		customer = key(params[0])
	} else if strings.Contains(q, "LIMIT $1") {
		limit = int(toInt(params[0]))
	}

	res := &query.Result{}
	for i := len(s.orders) - 1; i >= 0 && len(res.Rows) < limit; i-- {
		o := s.orders[i]
		if byCustomer && o.CustomerName != customer {
			continue
		}
		p := s.products[o.ProductID]
		res.Rows = append(res.Rows, query.Row{
			"id":               num(o.ID),
			"customer_name":    o.CustomerName,
			"product_title":    p.Title,
			"product_subtitle": p.Subtitle,
			"price":            p.Price,
			"quantity":         num(o.Quantity),
			"unit_price":       num(o.UnitPrice),
			"total_price":      num(o.TotalPrice),
			"order_date":       o.OrderDate.Format(time.RFC3339Nano),
			"status":           o.Status,
		})
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

func (s *Store) selectProducts(q string, params []any) (*query.Result, error) {
	ids := make([]string, 0, len(s.products))
	if strings.Contains(q, "WHERE p.id = $1") {
		if _, ok := s.products[key(params[0])]; ok {
			ids = append(ids, key(params[0]))
		}
	} else {
		for id := range s.products {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	}

	res := &query.Result{}
	for _, id := range ids {
		p := s.products[id]
		res.Rows = append(res.Rows, query.Row{
			"id":             idValue(p.ID),
			"title":          p.Title,
			"subtitle":       p.Subtitle,
			"price":          p.Price,
			"price_numeric":  num(p.PriceNumeric),
			"image":          p.Image,
			"category":       p.Category,
			"type":           p.Type,
			"badge":          p.Badge,
			"stock_quantity": num(s.stock[id]),
		})
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

func one(row query.Row) *query.Result {
	return &query.Result{Rows: []query.Row{row}, RowCount: 1}
}

func num(n int64) json.Number { return json.Number(strconv.FormatInt(n, 10)) }

func idValue(id string) any {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}

func key(v any) string { return fmt.Sprint(v) }

func toInt(v any) int64 {
	n, _ := strconv.ParseInt(fmt.Sprint(v), 10, 64)
	return n
}

func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
