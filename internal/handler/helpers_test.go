package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/idempotency"
	"github.com/cloud-wave-best-zizon/order-service/internal/query"
	"github.com/cloud-wave-best-zizon/order-service/internal/query/querytest"
	"github.com/cloud-wave-best-zizon/order-service/internal/reconcile"
	"github.com/cloud-wave-best-zizon/order-service/internal/repository"
	"github.com/cloud-wave-best-zizon/order-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var album = querytest.Product{
	ID:           "1",
	Title:        "Ellie 'Multiverse' Official Album",
	Subtitle:     "1st Full Album - Limited Edition",
	Price:        "₩25,000",
	PriceNumeric: 25000,
	Image:        "media/img/ellie-album.jpg",
	Category:     "음반",
	Type:         "album",
	Badge:        "HOT",
}

type memoryIdempotency struct {
	mu       sync.Mutex
	entries  map[string]*idempotency.Response
	released []string
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{entries: map[string]*idempotency.Response{}}
}

func (m *memoryIdempotency) Reserve(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = nil
	return true, nil
}

func (m *memoryIdempotency) Load(_ context.Context, key string) (*idempotency.Response, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp := m.entries[key]
	return resp, resp != nil, nil
}

func (m *memoryIdempotency) Save(_ context.Context, key string, resp idempotency.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &resp
	return nil
}

func (m *memoryIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.released = append(m.released, key)
	return nil
}

type stubLedger struct {
	records []domain.Inconsistency
}

func (l *stubLedger) Record(_ context.Context, rec domain.Inconsistency) error {
	l.records = append(l.records, rec)
	return nil
}

func (l *stubLedger) ListPending(_ context.Context, _ int32) ([]domain.Inconsistency, error) {
	return l.records, nil
}

func (l *stubLedger) Resolve(_ context.Context, recordID string) error {
	for i := range l.records {
		if l.records[i].RecordID == recordID && l.records[i].Status == domain.InconsistencyPending {
			l.records[i].Status = domain.InconsistencyResolved
			return nil
		}
	}
	return reconcile.ErrRecordNotPending
}

type fixture struct {
	store  *querytest.Store
	idem   *memoryIdempotency
	ledger *stubLedger
	router *gin.Engine
}

type fixtureOptions struct {
	resetEnabled bool
	withLedger   bool
	// lostInsertReply applies the order insert and then reports a timeout.
	lostInsertReply bool
}

type executorFunc func(ctx context.Context, q string, params ...any) (*query.Result, error)

func (f executorFunc) Execute(ctx context.Context, q string, params ...any) (*query.Result, error) {
	return f(ctx, q, params...)
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		store: querytest.NewStore(),
		idem:  newMemoryIdempotency(),
	}
	logger := zap.NewNop()

	var exec query.Executor = f.store
	if opts.lostInsertReply {
		exec = executorFunc(func(ctx context.Context, q string, params ...any) (*query.Result, error) {
			res, err := f.store.Execute(ctx, q, params...)
			if err == nil && strings.Contains(q, "INSERT INTO orders") {
				return nil, fmt.Errorf("%w: context deadline exceeded", query.ErrTransport)
			}
			return res, err
		})
	}

	products := repository.NewProductRepository(exec)
	inventory := repository.NewInventoryRepository(exec)
	orders := repository.NewOrderRepository(exec)

	adminOpts := service.AdminOptions{ResetEnabled: opts.resetEnabled, ResetQuantity: 100}
	var orderOpts []service.OrderServiceOption
	if opts.withLedger {
		f.ledger = &stubLedger{}
		adminOpts.Ledger = f.ledger
		orderOpts = append(orderOpts, service.WithLedger(f.ledger))
	}

	catalogService := service.NewCatalogService(products, logger)
	orderService := service.NewOrderService(products, inventory, orders, logger, orderOpts...)
	adminService := service.NewAdminService(inventory, adminOpts, logger)

	f.router = NewRouter(Handlers{
		Products: NewProductHandler(catalogService, ServerInfo{Function: "orders", Platform: "samsung-cloud-platform", Region: "kr-west1"}, logger),
		Orders:   NewOrderHandler(orderService, f.idem, logger),
		Admin:    NewAdminHandler(adminService, logger),
	}, logger)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	require.NotEmpty(t, w.Header().Get("Access-Control-Allow-Headers"))
}
