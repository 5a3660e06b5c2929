package service

import (
	"context"
	"errors"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/repository"
	"go.uber.org/zap"
)

type CatalogService struct {
	products ProductReader
	logger   *zap.Logger
}

func NewCatalogService(products ProductReader, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   logger,
	}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.ProductWithStock, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, dbError("list products", err)
	}
	return products, nil
}

func (s *CatalogService) GetProductWithInventory(ctx context.Context, productID domain.ProductID) (*domain.ProductWithStock, error) {
	if productID == "" {
		return nil, invalid("product id is required")
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to get product",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		return nil, dbError("get product", err)
	}
	return product, nil
}
