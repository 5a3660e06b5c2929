package handler

import (
	"net/http"

	"github.com/cloud-wave-best-zizon/order-service/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BasePath is where every API route is mounted.
const BasePath = "/api/orders"

// PostFunctionName names the order-only trigger in server_info.
const PostFunctionName = "orders-post"

type Handlers struct {
	Products *ProductHandler
	Orders   *OrderHandler
	Admin    *AdminHandler
}

func NewRouter(h Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
	router.Use(middleware.MethodGuard())

	router.GET("/health", health)

	api := router.Group(BasePath)
	{
		api.GET("", h.Products.ListProducts)
		api.GET("/products", h.Products.ListProducts)
		api.GET("/products/:id/inventory", h.Products.GetProductInventory)

		api.POST("/create", h.Orders.CreateOrder)
		api.GET("/list", h.Orders.ListOrders)
		api.GET("/customer/:name", h.Orders.ListCustomerOrders)

		api.GET("/health", health)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/reset-inventory", h.Admin.ResetInventory)
		admin.GET("/inconsistencies", h.Admin.ListInconsistencies)
		admin.POST("/inconsistencies/:id/resolve", h.Admin.ResolveInconsistency)

		admin.GET("/products", h.Admin.ListProducts)
		admin.POST("/products", h.Admin.CreateProduct)
		admin.PUT("/products/:id", h.Admin.UpdateProduct)
		admin.DELETE("/products/:id", h.Admin.DeleteProduct)
		admin.GET("/inventory", h.Admin.ListInventory)
		admin.POST("/inventory/:id/add", h.Admin.AddInventory)
		admin.DELETE("/orders/:id", h.Admin.DeleteOrder)
	}

	router.NoRoute(func(c *gin.Context) {
		respondFail(c, http.StatusNotFound, msgRouteNotFound)
	})

	return router
}

// NewOrderPostRouter serves the order-only trigger: every POST places an
// order whatever its path, any other method gets 405.
func NewOrderPostRouter(orders *OrderHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			respondFail(c, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			return
		}
		orders.CreateOrder(c)
	})

	return router
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
