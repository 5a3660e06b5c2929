package repository

import (
	"context"
	"fmt"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/query"
)

// 재고가 충분한 경우에만 차감 (stock_quantity >= $1)
const decrementStockSQL = `
UPDATE inventory
SET stock_quantity = stock_quantity - $1,
    updated_at = CURRENT_TIMESTAMP
WHERE product_id = $2 AND stock_quantity >= $1
RETURNING stock_quantity`

const restoreStockSQL = `
UPDATE inventory
SET stock_quantity = stock_quantity + $1,
    updated_at = CURRENT_TIMESTAMP
WHERE product_id = $2
RETURNING stock_quantity`

const resetInventorySQL = `
UPDATE inventory
SET stock_quantity = $1,
    reserved_quantity = 0,
    updated_at = CURRENT_TIMESTAMP`

type InventoryRepository struct {
	exec query.Executor
}

func NewInventoryRepository(exec query.Executor) *InventoryRepository {
	return &InventoryRepository{exec: exec}
}

// DecrementStock atomically subtracts quantity and returns the stock left.
// The store applies the update only while enough stock remains; when it
// does not (or the product has no inventory row) ErrInsufficientStock is
// returned and nothing changes.
func (r *InventoryRepository) DecrementStock(ctx context.Context, productID domain.ProductID, quantity int64) (int64, error) {
	res, err := r.exec.Execute(ctx, decrementStockSQL, quantity, productID.BindValue())
	if err != nil {
		return 0, err
	}

	row := res.First()
	if row == nil {
		return 0, ErrInsufficientStock
	}
	remaining, err := row.Int("stock_quantity")
	if err != nil {
		return 0, malformed(err)
	}
	return remaining, nil
}

// RestoreStock adds quantity back. Used to revert a decrement whose order
// could not be recorded.
func (r *InventoryRepository) RestoreStock(ctx context.Context, productID domain.ProductID, quantity int64) (int64, error) {
	res, err := r.exec.Execute(ctx, restoreStockSQL, quantity, productID.BindValue())
	if err != nil {
		return 0, err
	}

	row := res.First()
	if row == nil {
		return 0, fmt.Errorf("no inventory row for product %s", productID)
	}
	stock, err := row.Int("stock_quantity")
	if err != nil {
		return 0, malformed(err)
	}
	return stock, nil
}

// ResetAll sets every inventory row to quantity with nothing reserved and
// returns the number of rows touched.
func (r *InventoryRepository) ResetAll(ctx context.Context, quantity int64) (int, error) {
	res, err := r.exec.Execute(ctx, resetInventorySQL, quantity)
	if err != nil {
		return 0, err
	}
	return res.RowCount, nil
}
