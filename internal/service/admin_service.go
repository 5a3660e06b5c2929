package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/reconcile"
	"go.uber.org/zap"
)

const defaultPendingLimit = 100

type AdminService struct {
	inventory     InventoryStore
	ledger        InconsistencyLedger
	resetEnabled  bool
	resetQuantity int64
	logger        *zap.Logger
}

type AdminOptions struct {
	ResetEnabled  bool
	ResetQuantity int64
	Ledger        InconsistencyLedger
}

func NewAdminService(inventory InventoryStore, opts AdminOptions, logger *zap.Logger) *AdminService {
	return &AdminService{
		inventory:     inventory,
		ledger:        opts.Ledger,
		resetEnabled:  opts.ResetEnabled,
		resetQuantity: opts.ResetQuantity,
		logger:        logger,
	}
}

// ResetInventory sets every product's stock to the configured quantity.
// It is off unless enabled in configuration.
func (s *AdminService) ResetInventory(ctx context.Context) (int, error) {
	if !s.resetEnabled {
		return 0, notImplemented("reset inventory")
	}

	affected, err := s.inventory.ResetAll(ctx, s.resetQuantity)
	if err != nil {
		s.logger.Error("Failed to reset inventory", zap.Error(err))
		return 0, dbError("reset inventory", err)
	}

	s.logger.Info("Inventory reset",
		zap.Int64("stock_quantity", s.resetQuantity),
		zap.Int("affected_rows", affected))
	return affected, nil
}

func (s *AdminService) ResetQuantity() int64 { return s.resetQuantity }

func (s *AdminService) PendingInconsistencies(ctx context.Context, limit int32) ([]domain.Inconsistency, error) {
	if s.ledger == nil {
		return nil, notImplemented("inconsistency ledger")
	}
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	recs, err := s.ledger.ListPending(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list inconsistencies", zap.Error(err))
		return nil, fmt.Errorf("%w: list inconsistencies: %w", ErrDatabase, err)
	}
	return recs, nil
}

// ResolveInconsistency marks a pending record as repaired by an operator.
func (s *AdminService) ResolveInconsistency(ctx context.Context, recordID string) error {
	if s.ledger == nil {
		return notImplemented("inconsistency ledger")
	}
	if strings.TrimSpace(recordID) == "" {
		return invalid("record id is required")
	}
	if err := s.ledger.Resolve(ctx, recordID); err != nil {
		if errors.Is(err, reconcile.ErrRecordNotPending) {
			return ErrRecordNotFound
		}
		s.logger.Error("Failed to resolve inconsistency",
			zap.String("record_id", recordID),
			zap.Error(err))
		return fmt.Errorf("%w: resolve inconsistency: %w", ErrDatabase, err)
	}

	s.logger.Info("Inconsistency resolved", zap.String("record_id", recordID))
	return nil
}

func (s *AdminService) ListProducts(context.Context) error { return notImplemented("list products") }

func (s *AdminService) ListInventory(context.Context) error { return notImplemented("list inventory") }

func (s *AdminService) CreateProduct(context.Context) error { return notImplemented("create product") }

func (s *AdminService) UpdateProduct(_ context.Context, _ string) error {
	return notImplemented("update product")
}

func (s *AdminService) DeleteProduct(_ context.Context, _ string) error {
	return notImplemented("delete product")
}

func (s *AdminService) AddInventory(_ context.Context, _ string) error {
	return notImplemented("add inventory")
}

func (s *AdminService) DeleteOrder(_ context.Context, _ string) error {
	return notImplemented("delete order")
}

func notImplemented(op string) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, op)
}
