// Package function serves the API behind a Cloud Functions trigger. Each
// trigger descriptor is replayed as an HTTP request through the same router
// the server uses, or through the order-only router for the POST trigger.
package function

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloud-wave-best-zizon/order-service/internal/handler"
	"go.uber.org/zap"
)

// Request is the trigger descriptor. Method and Resource are fallbacks for
// HTTPMethod and Path. Body is either a JSON string holding the raw body or
// the JSON body itself.
type Request struct {
	HTTPMethod            string            `json:"httpMethod"`
	Method                string            `json:"method"`
	Path                  string            `json:"path"`
	Resource              string            `json:"resource"`
	PathParameters        map[string]string `json:"pathParameters"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
	Headers               map[string]string `json:"headers"`
	Body                  json.RawMessage   `json:"body"`
}

type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type Adapter struct {
	handler http.Handler
	logger  *zap.Logger

	defaultMethod string
	// postOnly ignores the descriptor path; every call goes to one handler.
	postOnly bool
}

// NewAdapter maps descriptors onto the full route table under
// handler.BasePath. A missing method means GET.
func NewAdapter(h http.Handler, logger *zap.Logger) *Adapter {
	return &Adapter{
		handler:       h,
		logger:        logger,
		defaultMethod: http.MethodGet,
	}
}

// NewPostAdapter serves the order-only trigger in front of
// handler.NewOrderPostRouter. A missing method means POST and the path is
// ignored.
func NewPostAdapter(h http.Handler, logger *zap.Logger) *Adapter {
	return &Adapter{
		handler:       h,
		logger:        logger,
		defaultMethod: http.MethodPost,
		postOnly:      true,
	}
}

// HandleJSON decodes a raw trigger payload and serves it.
func (a *Adapter) HandleJSON(ctx context.Context, payload []byte) Response {
	var req Request
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			a.logger.Warn("Invalid trigger payload", zap.Error(err))
			return failure(http.StatusBadRequest, "Invalid request format")
		}
	}
	return a.Handle(ctx, req)
}

func (a *Adapter) Handle(ctx context.Context, req Request) Response {
	method := firstNonEmpty(req.HTTPMethod, req.Method, a.defaultMethod)
	target := &url.URL{Path: "/"}
	if !a.postOnly {
		target.Path = targetPath(firstNonEmpty(req.Path, req.Resource, "/"), req.PathParameters)
		target.RawQuery = queryString(req.QueryStringParameters)
	}

	body, err := requestBody(req.Body)
	if err != nil {
		a.logger.Warn("Invalid trigger body", zap.Error(err))
		return failure(http.StatusBadRequest, "Invalid request format")
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target.String(), bytes.NewReader(body))
	if err != nil {
		a.logger.Warn("Invalid trigger request",
			zap.String("method", method),
			zap.String("path", target.Path),
			zap.Error(err))
		return failure(http.StatusBadRequest, "Invalid request format")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if len(body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	rec := newRecorder()
	a.handler.ServeHTTP(rec, httpReq)
	return rec.response()
}

// targetPath maps the descriptor path onto the router's base path. The path
// may be a resource template whose {name} segments come from params.
func targetPath(path string, params map[string]string) string {
	if p, err := url.PathUnescape(path); err == nil {
		path = p
	}
	for name, value := range params {
		path = strings.ReplaceAll(path, "{"+name+"}", value)
	}

	apiPath := strings.Replace(path, handler.BasePath, "", 1)
	if apiPath == "/" {
		apiPath = ""
	}
	return handler.BasePath + apiPath
}

func queryString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(k, v)
	}
	return q.Encode()
}

// requestBody unwraps a body sent as a JSON string; any other JSON value is
// the body itself.
func requestBody(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func failure(status int, message string) Response {
	b, _ := json.Marshal(map[string]any{
		"success": false,
		"message": message,
	})
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}
