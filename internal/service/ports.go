package service

import (
	"context"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
)

type ProductReader interface {
	ListProducts(ctx context.Context) ([]domain.ProductWithStock, error)
	GetProduct(ctx context.Context, productID domain.ProductID) (*domain.ProductWithStock, error)
}

type InventoryStore interface {
	DecrementStock(ctx context.Context, productID domain.ProductID, quantity int64) (int64, error)
	RestoreStock(ctx context.Context, productID domain.ProductID, quantity int64) (int64, error)
	ResetAll(ctx context.Context, quantity int64) (int, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	ListOrders(ctx context.Context, limit int) ([]domain.OrderSummary, error)
	ListOrdersByCustomer(ctx context.Context, customerName string) ([]domain.OrderSummary, error)
}

// Notifier announces order outcomes to other services.
type Notifier interface {
	OrderPlaced(ctx context.Context, order domain.Order, productTitle string) error
	InventoryInconsistent(ctx context.Context, rec domain.Inconsistency) error
}

// InconsistencyLedger keeps decrements that lost their order for later repair.
type InconsistencyLedger interface {
	Record(ctx context.Context, rec domain.Inconsistency) error
	ListPending(ctx context.Context, limit int32) ([]domain.Inconsistency, error)
	Resolve(ctx context.Context, recordID string) error
}
