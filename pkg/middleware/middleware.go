package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-Id"
	RequestIDKey    = "request_id"
)

const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "Content-Type, Idempotency-Key, X-Request-Id"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
)

var allowedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// RequestID는 요청마다 ID를 부여하고 응답 헤더에 돌려줍니다
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(RequestIDKey)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}

// SetCORSHeaders adds the headers every successful response carries.
func SetCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", corsAllowOrigin)
	c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
	c.Header("Access-Control-Allow-Methods", corsAllowMethods)
}

// CORS answers preflight requests on any path.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}
		SetCORSHeaders(c)
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// MethodGuard rejects methods the API never serves, before routing.
func MethodGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allowedMethods[c.Request.Method] {
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{
				"success": false,
				"message": "Method not allowed",
			})
			return
		}
		c.Next()
	}
}
