package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/query"
	"github.com/cloud-wave-best-zizon/order-service/internal/query/querytest"
	"github.com/cloud-wave-best-zizon/order-service/internal/reconcile"
	"github.com/cloud-wave-best-zizon/order-service/internal/repository"
	"go.uber.org/zap"
)

var albumProduct = querytest.Product{
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

type fakeNotifier struct {
	mu           sync.Mutex
	placed       []domain.Order
	inconsistent []domain.Inconsistency
	errOnPublish error
}

func (f *fakeNotifier) OrderPlaced(_ context.Context, order domain.Order, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, order)
	return f.errOnPublish
}

func (f *fakeNotifier) InventoryInconsistent(_ context.Context, rec domain.Inconsistency) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inconsistent = append(f.inconsistent, rec)
	return f.errOnPublish
}

type fakeLedger struct {
	mu      sync.Mutex
	records []domain.Inconsistency
	err     error
}

func (f *fakeLedger) Record(_ context.Context, rec domain.Inconsistency) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLedger) ListPending(_ context.Context, limit int32) ([]domain.Inconsistency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Inconsistency, 0, len(f.records))
	for _, r := range f.records {
		if r.Status == domain.InconsistencyPending && int32(len(out)) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) Resolve(_ context.Context, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.records {
		if f.records[i].RecordID == recordID && f.records[i].Status == domain.InconsistencyPending {
			f.records[i].Status = domain.InconsistencyResolved
			return nil
		}
	}
	return reconcile.ErrRecordNotPending
}

type testStack struct {
	store    *querytest.Store
	orders   *OrderService
	catalog  *CatalogService
	notifier *fakeNotifier
	ledger   *fakeLedger
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	store := querytest.NewStore()
	notifier := &fakeNotifier{}
	ledger := &fakeLedger{}
	logger := zap.NewNop()

	products := repository.NewProductRepository(store)
	inventory := repository.NewInventoryRepository(store)
	orders := repository.NewOrderRepository(store)

	return &testStack{
		store:    store,
		orders:   NewOrderService(products, inventory, orders, logger, WithNotifier(notifier), WithLedger(ledger)),
		catalog:  NewCatalogService(products, logger),
		notifier: notifier,
		ledger:   ledger,
	}
}

func productWithPrice(id string, price int64) querytest.Product {
	p := albumProduct
	p.ID = id
	p.Title = "Product " + id
	p.PriceNumeric = price
	return p
}

var errConnRefused = errors.New("dial tcp 10.0.0.7:2866: connect: connection refused")

type executorFunc func(ctx context.Context, q string, params ...any) (*query.Result, error)

func (f executorFunc) Execute(ctx context.Context, q string, params ...any) (*query.Result, error) {
	return f(ctx, q, params...)
}
