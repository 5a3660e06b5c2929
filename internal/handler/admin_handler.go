package handler

import (
	"fmt"
	"strconv"

	"github.com/cloud-wave-best-zizon/order-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService *service.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

func (h *AdminHandler) ResetInventory(c *gin.Context) {
	affected, err := h.adminService.ResetInventory(c.Request.Context())
	if err != nil {
		respondError(c, err, msgDatabase)
		return
	}

	respondOK(c, gin.H{
		"message":      fmt.Sprintf(msgInventoryReset, h.adminService.ResetQuantity()),
		"affectedRows": affected,
	})
}

func (h *AdminHandler) ListInconsistencies(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 32)

	recs, err := h.adminService.PendingInconsistencies(c.Request.Context(), int32(limit))
	if err != nil {
		respondError(c, err, msgDatabase)
		return
	}

	respondOK(c, gin.H{"inconsistencies": recs})
}

func (h *AdminHandler) ResolveInconsistency(c *gin.Context) {
	recordID := c.Param("id")
	if err := h.adminService.ResolveInconsistency(c.Request.Context(), recordID); err != nil {
		respondError(c, err, msgDatabase)
		return
	}

	respondOK(c, gin.H{"message": msgInconsistencyResolved})
}

func (h *AdminHandler) ListProducts(c *gin.Context) {
	respondError(c, h.adminService.ListProducts(c.Request.Context()), msgDatabase)
}

func (h *AdminHandler) ListInventory(c *gin.Context) {
	respondError(c, h.adminService.ListInventory(c.Request.Context()), msgDatabase)
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	respondError(c, h.adminService.CreateProduct(c.Request.Context()), msgDatabase)
}

func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	respondError(c, h.adminService.UpdateProduct(c.Request.Context(), c.Param("id")), msgDatabase)
}

func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	respondError(c, h.adminService.DeleteProduct(c.Request.Context(), c.Param("id")), msgDatabase)
}

func (h *AdminHandler) AddInventory(c *gin.Context) {
	respondError(c, h.adminService.AddInventory(c.Request.Context(), c.Param("id")), msgDatabase)
}

func (h *AdminHandler) DeleteOrder(c *gin.Context) {
	respondError(c, h.adminService.DeleteOrder(c.Request.Context(), c.Param("id")), msgDatabase)
}
