package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/query"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const productColumns = `
    p.id,
    p.title,
    p.subtitle,
    p.price,
    p.price_numeric,
    p.image,
    p.category,
    p.type,
    p.badge,
    COALESCE(i.stock_quantity, 0) AS stock_quantity`

const listProductsSQL = `
SELECT` + productColumns + `
FROM products p
LEFT JOIN inventory i ON p.id = i.product_id
ORDER BY p.id`

const getProductSQL = `
SELECT` + productColumns + `
FROM products p
LEFT JOIN inventory i ON p.id = i.product_id
WHERE p.id = $1`

type ProductRepository struct {
	exec query.Executor
}

func NewProductRepository(exec query.Executor) *ProductRepository {
	return &ProductRepository{exec: exec}
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.ProductWithStock, error) {
	res, err := r.exec.Execute(ctx, listProductsSQL)
	if err != nil {
		return nil, err
	}

	products := make([]domain.ProductWithStock, 0, len(res.Rows))
	for _, row := range res.Rows {
		p, err := scanProduct(row)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// GetProduct returns the product joined with its current stock, or
// ErrProductNotFound.
func (r *ProductRepository) GetProduct(ctx context.Context, productID domain.ProductID) (*domain.ProductWithStock, error) {
	res, err := r.exec.Execute(ctx, getProductSQL, productID.BindValue())
	if err != nil {
		return nil, err
	}

	row := res.First()
	if row == nil {
		return nil, ErrProductNotFound
	}
	p, err := scanProduct(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProduct(row query.Row) (domain.ProductWithStock, error) {
	price, err := row.Int("price_numeric")
	if err != nil {
		return domain.ProductWithStock{}, malformed(err)
	}
	stock, err := row.Int("stock_quantity")
	if err != nil {
		return domain.ProductWithStock{}, malformed(err)
	}

	p := domain.Product{
		ID:           domain.ProductID(row.String("id")),
		Title:        row.String("title"),
		Subtitle:     row.String("subtitle"),
		Price:        row.String("price"),
		PriceNumeric: price,
		Image:        row.String("image"),
		Category:     row.String("category"),
		Type:         row.String("type"),
		Badge:        row.String("badge"),
	}
	return domain.NewProductWithStock(p, stock), nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", query.ErrResponseParse, err)
}
