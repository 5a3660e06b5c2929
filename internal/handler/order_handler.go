package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/idempotency"
	"github.com/cloud-wave-best-zizon/order-service/internal/service"
	"github.com/cloud-wave-best-zizon/order-service/pkg/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

// IdempotencyStore keeps finished order responses by client key.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Load(ctx context.Context, key string) (*idempotency.Response, bool, error)
	Save(ctx context.Context, key string, resp idempotency.Response) error
	Release(ctx context.Context, key string) error
}

type OrderHandler struct {
	orderService *service.OrderService
	idempotency  IdempotencyStore
	info         *ServerInfo
	logger       *zap.Logger
}

// NewOrderHandler creates the order endpoints. idem may be nil, in which
// case Idempotency-Key is ignored.
func NewOrderHandler(orderService *service.OrderService, idem IdempotencyStore, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		idempotency:  idem,
		logger:       logger,
	}
}

// WithServerInfo returns a copy of h that adds server_info to successful
// create responses.
func (h *OrderHandler) WithServerInfo(info ServerInfo) *OrderHandler {
	cp := *h
	cp.info = &info
	return &cp
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if key == "" || h.idempotency == nil {
		status, body, _ := h.placeOrder(c)
		h.write(c, status, body)
		return
	}

	ctx := c.Request.Context()
	if h.replayIfAnswered(c, key) {
		return
	}

	reserved, err := h.idempotency.Reserve(ctx, key)
	if err != nil {
		// 저장소 장애 시 키 없이 처리
		h.logger.Warn("Idempotency store unavailable",
			zap.String("idempotency_key", key),
			zap.Error(err))
		status, body, _ := h.placeOrder(c)
		h.write(c, status, body)
		return
	}
	if !reserved {
		if h.replayIfAnswered(c, key) {
			return
		}
		respondFail(c, http.StatusConflict, msgOrderInProgress)
		return
	}

	status, body, err := h.placeOrder(c)
	h.write(c, status, body)
	h.remember(context.WithoutCancel(ctx), key, status, body, err)
}

func (h *OrderHandler) placeOrder(c *gin.Context) (int, gin.H, error) {
	var req domain.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request", zap.Error(err))
		return http.StatusBadRequest, failBody(msgInvalidBody), nil
	}

	confirmation, err := h.orderService.PlaceOrder(c.Request.Context(), req.CustomerName, req.ProductID, req.QuantityValue())
	if err != nil {
		_ = c.Error(err)
		status, body := errorResponse(err, msgOrderProcessing)
		return status, body, err
	}

	body := gin.H{
		"success": true,
		"message": msgOrderPlaced,
		"order":   confirmation,
	}
	if h.info != nil {
		body["server_info"] = h.info.fields()
	}
	return http.StatusOK, body, nil
}

func (h *OrderHandler) write(c *gin.Context, status int, body gin.H) {
	if status == http.StatusOK {
		middleware.SetCORSHeaders(c)
	}
	c.JSON(status, body)
}

func (h *OrderHandler) replayIfAnswered(c *gin.Context, key string) bool {
	resp, ok, err := h.idempotency.Load(c.Request.Context(), key)
	if err != nil {
		h.logger.Warn("Failed to load idempotent response",
			zap.String("idempotency_key", key),
			zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	if resp.Status == http.StatusOK {
		middleware.SetCORSHeaders(c)
	}
	c.Header(replayedHeader, "true")
	c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
	return true
}

// remember stores a settled response for replay. Server errors release the
// key so the client can retry, unless the order may already exist.
func (h *OrderHandler) remember(ctx context.Context, key string, status int, body gin.H, err error) {
	if status >= http.StatusInternalServerError && !errors.Is(err, service.ErrOrderOutcomeUnknown) {
		if err := h.idempotency.Release(ctx, key); err != nil {
			h.logger.Warn("Failed to release idempotency key",
				zap.String("idempotency_key", key),
				zap.Error(err))
		}
		return
	}

	b, err := json.Marshal(body)
	if err != nil {
		h.logger.Warn("Failed to encode response for replay", zap.Error(err))
		return
	}
	if err := h.idempotency.Save(ctx, key, idempotency.Response{Status: status, Body: b}); err != nil {
		h.logger.Warn("Failed to save idempotent response",
			zap.String("idempotency_key", key),
			zap.Error(err))
	}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	// 잘못된 limit은 기본값으로 처리
	limit, _ := strconv.Atoi(c.Query("limit"))

	orders, err := h.orderService.ListOrders(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, msgDatabase)
		return
	}

	respondOK(c, gin.H{"orders": orders})
}

func (h *OrderHandler) ListCustomerOrders(c *gin.Context) {
	customerName := c.Param("name")

	orders, err := h.orderService.ListOrdersForCustomer(c.Request.Context(), customerName)
	if err != nil {
		respondError(c, err, msgDatabase)
		return
	}

	respondOK(c, gin.H{"orders": orders})
}
