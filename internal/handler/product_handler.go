package handler

import (
	"runtime"
	"time"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerInfo describes the deployment in the product listing.
type ServerInfo struct {
	Function string
	Platform string
	Region   string
}

func (i ServerInfo) fields() gin.H {
	return gin.H{
		"function":      i.Function,
		"runtime":       runtime.Version(),
		"platform":      i.Platform,
		"region":        i.Region,
		"response_time": time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type ProductHandler struct {
	catalogService *service.CatalogService
	info           ServerInfo
	logger         *zap.Logger
}

func NewProductHandler(catalogService *service.CatalogService, info ServerInfo, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		info:           info,
		logger:         logger,
	}
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err, msgDatabaseConnection)
		return
	}

	info := h.info.fields()
	info["products_count"] = len(products)
	respondOK(c, gin.H{
		"products":    products,
		"server_info": info,
	})
}

func (h *ProductHandler) GetProductInventory(c *gin.Context) {
	productID := domain.ProductID(c.Param("id"))

	product, err := h.catalogService.GetProductWithInventory(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err, msgDatabase)
		return
	}

	respondOK(c, gin.H{"product": product})
}
