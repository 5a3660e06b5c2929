package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/query"
	"github.com/cloud-wave-best-zizon/order-service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultCompensationTimeout = 10 * time.Second

type OrderService struct {
	products  ProductReader
	inventory InventoryStore
	orders    OrderStore
	notifier  Notifier
	ledger    InconsistencyLedger
	logger    *zap.Logger

	compensationTimeout time.Duration
	now                 func() time.Time
}

type OrderServiceOption func(*OrderService)

func WithNotifier(n Notifier) OrderServiceOption {
	return func(s *OrderService) { s.notifier = n }
}

func WithLedger(l InconsistencyLedger) OrderServiceOption {
	return func(s *OrderService) { s.ledger = l }
}

func WithCompensationTimeout(d time.Duration) OrderServiceOption {
	return func(s *OrderService) {
		if d > 0 {
			s.compensationTimeout = d
		}
	}
}

func NewOrderService(products ProductReader, inventory InventoryStore, orders OrderStore, logger *zap.Logger, opts ...OrderServiceOption) *OrderService {
	s := &OrderService{
		products:            products,
		inventory:           inventory,
		orders:              orders,
		logger:              logger,
		compensationTimeout: defaultCompensationTimeout,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder checks stock, decrements it and records the order, one store
// call at a time. Input is validated before anything is sent to the store.
//
// The decrement only succeeds while enough stock remains, so concurrent
// orders for the same product cannot drive stock negative. If the order
// insert is known not to have been applied, the decrement is reverted; if
// that fails too the gap is written to the inconsistency ledger. If the
// insert may have been applied (timeout after sending, unreadable reply)
// the decrement is kept, the order is written to the ledger for review and
// the error also matches ErrOrderOutcomeUnknown. The caller gets
// ErrDatabase in every case.
func (s *OrderService) PlaceOrder(ctx context.Context, customerName string, productID domain.ProductID, quantity int64) (*domain.OrderConfirmation, error) {
	customerName = strings.TrimSpace(customerName)
	switch {
	case customerName == "":
		return nil, invalid("customer name is required")
	case productID.Missing():
		return nil, invalid("product id is required")
	case quantity <= 0:
		return nil, invalid("quantity must be a positive integer")
	}

	// 1. 상품 + 현재 재고 조회
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, dbError("fetch product", err)
	}

	// 2. 재고 확인
	if product.StockQuantity < quantity {
		return nil, &InsufficientStockError{Available: product.StockQuantity, Requested: quantity}
	}
	if product.PriceNumeric > 0 && quantity > math.MaxInt64/product.PriceNumeric {
		return nil, invalid("order total overflows")
	}

	// 3. 재고 차감 (조건부 업데이트)
	remaining, err := s.inventory.DecrementStock(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			// 조회 이후 다른 주문이 먼저 재고를 가져감
			current := s.currentStock(ctx, productID, product.StockQuantity)
			s.logger.Info("Stock taken by a concurrent order",
				zap.String("product_id", productID.String()),
				zap.Int64("requested", quantity),
				zap.Int64("available", current))
			return nil, &InsufficientStockError{Available: current, Requested: quantity}
		}
		s.logger.Error("Failed to decrement stock",
			zap.String("product_id", productID.String()),
			zap.Int64("quantity", quantity),
			zap.Error(err))
		return nil, dbError("decrement stock", err)
	}

	// 4. 주문 기록 (단가는 1단계에서 조회한 값)
	order := &domain.Order{
		CustomerName: customerName,
		ProductID:    productID,
		Quantity:     quantity,
		UnitPrice:    product.PriceNumeric,
		TotalPrice:   product.PriceNumeric * quantity,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if !query.NotApplied(err) {
			s.logger.Error("Order insert outcome unknown, keeping stock decrement",
				zap.String("product_id", productID.String()),
				zap.Int64("quantity", quantity),
				zap.Error(err))
			s.reportInconsistency(ctx, order, fmt.Sprintf("ambiguous insert outcome: %v", err))
			return nil, fmt.Errorf("%w: %w", ErrOrderOutcomeUnknown, dbError("insert order", err))
		}
		s.logger.Error("Failed to record order after stock decrement",
			zap.String("product_id", productID.String()),
			zap.Int64("quantity", quantity),
			zap.Error(err))
		s.compensate(ctx, order, err)
		return nil, dbError("insert order", err)
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = s.now().UTC()
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("product_id", productID.String()),
		zap.Int64("quantity", quantity),
		zap.Int64("total_price", order.TotalPrice),
		zap.Int64("remaining_stock", remaining))

	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, *order, product.Title); err != nil {
			s.logger.Warn("Failed to publish order placed event",
				zap.String("order_id", order.ID),
				zap.Error(err))
		}
	}

	// 5. 결과
	return &domain.OrderConfirmation{
		ID:             order.ID,
		CustomerName:   order.CustomerName,
		ProductTitle:   product.Title,
		Quantity:       order.Quantity,
		TotalPrice:     order.TotalPrice,
		OrderDate:      order.OrderDate,
		RemainingStock: remaining,
	}, nil
}

func (s *OrderService) currentStock(ctx context.Context, productID domain.ProductID, fallback int64) int64 {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return fallback
	}
	return product.StockQuantity
}

// compensate puts back stock taken for an order that was never recorded.
// It runs on a context detached from the caller so a dropped client does
// not leave the decrement behind.
func (s *OrderService) compensate(ctx context.Context, order *domain.Order, cause error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()

	stock, err := s.inventory.RestoreStock(cctx, order.ProductID, order.Quantity)
	if err == nil {
		s.logger.Warn("Stock restored after failed order insert",
			zap.String("product_id", order.ProductID.String()),
			zap.Int64("quantity", order.Quantity),
			zap.Int64("stock", stock))
		return
	}

	s.logger.Error("Failed to restore stock",
		zap.String("product_id", order.ProductID.String()),
		zap.Int64("quantity", order.Quantity),
		zap.Error(err))
	s.reportInconsistency(ctx, order, fmt.Sprintf("insert order: %v; restore stock: %v", cause, err))
}

// reportInconsistency writes a decrement that may have lost its order to
// the ledger and announces it.
func (s *OrderService) reportInconsistency(ctx context.Context, order *domain.Order, reason string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout)
	defer cancel()

	rec := domain.Inconsistency{
		RecordID:     uuid.NewString(),
		ProductID:    order.ProductID,
		Quantity:     order.Quantity,
		CustomerName: order.CustomerName,
		UnitPrice:    order.UnitPrice,
		Reason:       reason,
		Status:       domain.InconsistencyPending,
		DetectedAt:   s.now().UTC(),
	}
	s.logger.Error("Inventory decremented without confirmed order",
		zap.String("record_id", rec.RecordID),
		zap.String("product_id", order.ProductID.String()),
		zap.Int64("quantity", order.Quantity),
		zap.String("reason", reason))

	if s.ledger != nil {
		if err := s.ledger.Record(cctx, rec); err != nil {
			s.logger.Error("Failed to record inconsistency",
				zap.String("record_id", rec.RecordID),
				zap.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.InventoryInconsistent(cctx, rec); err != nil {
			s.logger.Error("Failed to publish inconsistency event",
				zap.String("record_id", rec.RecordID),
				zap.Error(err))
		}
	}
}

func (s *OrderService) ListOrders(ctx context.Context, limit int) ([]domain.OrderSummary, error) {
	orders, err := s.orders.ListOrders(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, dbError("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) ListOrdersForCustomer(ctx context.Context, customerName string) ([]domain.OrderSummary, error) {
	if strings.TrimSpace(customerName) == "" {
		return nil, invalid("customer name is required")
	}
	orders, err := s.orders.ListOrdersByCustomer(ctx, customerName)
	if err != nil {
		s.logger.Error("Failed to list customer orders",
			zap.String("customer_name", customerName),
			zap.Error(err))
		return nil, dbError("list customer orders", err)
	}
	return orders, nil
}
