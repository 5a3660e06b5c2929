package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cloud-wave-best-zizon/order-service/internal/service"
	"github.com/cloud-wave-best-zizon/order-service/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// 사용자에게 보이는 메시지
const (
	msgInvalidOrder      = "주문 정보가 올바르지 않습니다."
	msgProductNotFound   = "상품을 찾을 수 없습니다."
	msgInsufficientStock = "재고가 부족합니다. (현재 재고: %d개)"
	msgOrderPlaced       = "주문이 성공적으로 완료되었습니다."
	msgInventoryReset    = "모든 상품의 재고가 %d개로 리셋되었습니다."
	msgOrderInProgress   = "동일한 주문 요청이 처리 중입니다."
	msgInvalidBody       = "Invalid request format"
	msgNotImplemented    = "Not implemented"
	msgRouteNotFound     = "Route not found"
	msgMethodNotAllowed  = "Method not allowed"
	msgRecordNotFound    = "Record not found"

	msgInconsistencyResolved = "불일치 기록이 처리되었습니다."
)

// 500 응답 메시지
const (
	msgDatabaseConnection = "Database connection error"
	msgDatabase           = "Database error"
	msgOrderProcessing    = "Order processing error"
)

func respondOK(c *gin.Context, body gin.H) {
	middleware.SetCORSHeaders(c)
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// errorResponse maps a service error to its status and body. internalMessage
// is used for store failures; their cause goes in "error".
func errorResponse(err error, internalMessage string) (int, gin.H) {
	var stockErr *service.InsufficientStockError

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, failBody(msgInvalidOrder)
	case errors.As(err, &stockErr):
		return http.StatusBadRequest, failBody(fmt.Sprintf(msgInsufficientStock, stockErr.Available))
	case errors.Is(err, service.ErrProductNotFound):
		return http.StatusNotFound, failBody(msgProductNotFound)
	case errors.Is(err, service.ErrRecordNotFound):
		return http.StatusNotFound, failBody(msgRecordNotFound)
	case errors.Is(err, service.ErrNotImplemented):
		return http.StatusNotImplemented, failBody(msgNotImplemented)
	}

	body := failBody(internalMessage)
	body["error"] = err.Error()
	return http.StatusInternalServerError, body
}

func respondError(c *gin.Context, err error, internalMessage string) {
	_ = c.Error(err)
	status, body := errorResponse(err, internalMessage)
	c.JSON(status, body)
}

func failBody(message string) gin.H {
	return gin.H{
		"success": false,
		"message": message,
	}
}
