package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/cloud-wave-best-zizon/order-service/internal/domain"
	"github.com/cloud-wave-best-zizon/order-service/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProducts(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 50)
	sold := album
	sold.ID, sold.Title = "2", "Sold Out Poster"
	f.store.AddProduct(sold, 0)

	for _, path := range []string{"/api/orders/products", "/api/orders"} {
		w := f.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, w.Code, path)
		assertCORS(t, w)

		body := decode(t, w)
		assert.Equal(t, true, body["success"])

		products := body["products"].([]any)
		require.Len(t, products, 2)
		first := products[0].(map[string]any)
		assert.EqualValues(t, 1, first["id"])
		assert.Equal(t, album.Title, first["title"])
		assert.EqualValues(t, 25000, first["price_numeric"])
		assert.EqualValues(t, 50, first["stock_quantity"])
		assert.Equal(t, "50", first["stock_display"])
		assert.Equal(t, domain.SoldOutLabel, products[1].(map[string]any)["stock_display"])

		info := body["server_info"].(map[string]any)
		assert.Equal(t, "orders", info["function"])
		assert.Equal(t, "samsung-cloud-platform", info["platform"])
		assert.Equal(t, "kr-west1", info["region"])
		assert.EqualValues(t, 2, info["products_count"])
		assert.NotEmpty(t, info["runtime"])
		assert.NotEmpty(t, info["response_time"])
	}
}

func TestListProducts_StoreDown(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.FailOn = func(string, []any) error {
		return fmt.Errorf("%w: connection refused", query.ErrTransport)
	}

	w := f.do(t, http.MethodGet, "/api/orders/products", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Database connection error", body["message"])
	assert.Contains(t, body["error"], "connection refused")
}

func TestGetProductInventory(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 7)

	w := f.do(t, http.MethodGet, "/api/orders/products/1/inventory", "")
	require.Equal(t, http.StatusOK, w.Code)
	assertCORS(t, w)
	product := decode(t, w)["product"].(map[string]any)
	assert.EqualValues(t, 7, product["stock_quantity"])
	assert.Equal(t, "7", product["stock_display"])

	w = f.do(t, http.MethodGet, "/api/orders/products/999/inventory", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"상품을 찾을 수 없습니다."}`, w.Body.String())
}

// A: 재고 50에서 2개 주문
func TestCreateOrder_ScenarioA(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 50)

	w := f.do(t, http.MethodPost, "/api/orders/create", `{"customerName":"홍길동","productId":1,"quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assertCORS(t, w)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "주문이 성공적으로 완료되었습니다.", body["message"])

	order := body["order"].(map[string]any)
	assert.Equal(t, "1", order["id"])
	assert.Equal(t, "홍길동", order["customerName"])
	assert.Equal(t, album.Title, order["productTitle"])
	assert.EqualValues(t, 2, order["quantity"])
	assert.EqualValues(t, 50000, order["totalPrice"])
	assert.EqualValues(t, 48, order["remainingStock"])
	assert.NotEmpty(t, order["orderDate"])

	assert.Equal(t, int64(48), f.store.Stock("1"))
	require.Len(t, f.store.Orders(), 1)
}

// B: 재고 1에서 5개 주문
func TestCreateOrder_ScenarioB(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 1)

	w := f.do(t, http.MethodPost, "/api/orders/create", `{"customerName":"홍길동","productId":"1","quantity":5}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"success":false,"message":"재고가 부족합니다. (현재 재고: 1개)"}`, w.Body.String())

	assert.Equal(t, int64(1), f.store.Stock("1"))
	assert.Empty(t, f.store.Orders())
	assert.Zero(t, f.store.CallsMatching("UPDATE inventory"))
}

// C: 잘못된 입력은 저장소를 호출하지 않음
func TestCreateOrder_ScenarioC(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 50)

	bodies := []string{
		`{"customerName":"홍길동","productId":1,"quantity":0}`,
		`{"customerName":"홍길동","productId":1,"quantity":-3}`,
		`{"customerName":"홍길동","productId":1,"quantity":1.5}`,
		`{"customerName":"홍길동","productId":1}`,
		`{"customerName":"   ","productId":1,"quantity":1}`,
		`{"productId":1,"quantity":1}`,
		`{"customerName":"홍길동","quantity":1}`,
		`{"customerName":"홍길동","productId":0,"quantity":1}`,
		`{"customerName":"홍길동","productId":"0","quantity":1}`,
	}
	for _, b := range bodies {
		w := f.do(t, http.MethodPost, "/api/orders/create", b)
		assert.Equal(t, http.StatusBadRequest, w.Code, b)
		assert.JSONEq(t, `{"success":false,"message":"주문 정보가 올바르지 않습니다."}`, w.Body.String(), b)
	}
	assert.Empty(t, f.store.Calls())
}

func TestCreateOrder_WholeFloatQuantity(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 50)

	w := f.do(t, http.MethodPost, "/api/orders/create", `{"customerName":"홍길동","productId":1,"quantity":2.0}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(48), f.store.Stock("1"))
	require.Len(t, f.store.Orders(), 1)
	assert.Equal(t, int64(2), f.store.Orders()[0].Quantity)
}

// D: 없는 상품
func TestCreateOrder_ScenarioD(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 50)

	w := f.do(t, http.MethodPost, "/api/orders/create", `{"customerName":"홍길동","productId":999,"quantity":1}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"상품을 찾을 수 없습니다."}`, w.Body.String())
	assert.Zero(t, f.store.CallsMatching("UPDATE inventory"))
	assert.Zero(t, f.store.CallsMatching("INSERT INTO orders"))
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	for _, b := range []string{`{"customerName":`, `[]`, `{"quantity":"many"}`} {
		w := f.do(t, http.MethodPost, "/api/orders/create", b)
		assert.Equal(t, http.StatusBadRequest, w.Code, b)
		assert.Equal(t, false, decode(t, w)["success"])
	}
	assert.Empty(t, f.store.Calls())
}

func TestCreateOrder_InsertFailure(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 10)
	f.store.FailOn = func(q string, _ []any) error {
		if strings.Contains(q, "INSERT INTO orders") {
			return fmt.Errorf("%w: deadlock detected", query.ErrStore)
		}
		return nil
	}

	w := f.do(t, http.MethodPost, "/api/orders/create", `{"customerName":"홍길동","productId":1,"quantity":3}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Order processing error", body["message"])
	assert.Contains(t, body["error"], "deadlock detected")

	assert.Equal(t, int64(10), f.store.Stock("1"), "stock restored after the failed insert")
	assert.Empty(t, f.store.Orders())
}

func TestListOrders(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	f.store.AddProduct(album, 50)
	for _, name := range []string{"홍길동", "김철수", "홍길동"} {
		w := f.do(t, http.MethodPost, "/api/orders/create", fmt.Sprintf(`{"customerName":%q,"productId":1,"quantity":1}`, name))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := f.do(t, http.MethodGet, "/api/orders/list", "")
	require.Equal(t, http.StatusOK, w.Code)
	assertCORS(t, w)
	orders := decode(t, w)["orders"].([]any)
	require.Len(t, orders, 3)
	newest := orders[0].(map[string]any)
	assert.Equal(t, "3", newest["id"])
	assert.Equal(t, album.Title, newest["product_title"])
	assert.Equal(t, album.Price, newest["price"])
	assert.EqualValues(t, 25000, newest["total_price"])

	w = f.do(t, http.MethodGet, "/api/orders/list?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["orders"].([]any), 1)

	w = f.do(t, http.MethodGet, "/api/orders/customer/"+url.PathEscape("홍길동"), "")
	require.Equal(t, http.StatusOK, w.Code)
	orders = decode(t, w)["orders"].([]any)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, "홍길동", o.(map[string]any)["customer_name"])
	}

	w = f.do(t, http.MethodGet, "/api/orders/customer/nobody", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"orders":[]}`, w.Body.String())
}

func TestAdminResetInventory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{})
		f.store.AddProduct(album, 3)

		w := f.do(t, http.MethodPost, "/api/orders/admin/reset-inventory", "")
		require.Equal(t, http.StatusNotImplemented, w.Code)
		assert.JSONEq(t, `{"success":false,"message":"Not implemented"}`, w.Body.String())
		assert.Equal(t, int64(3), f.store.Stock("1"))
	})

	t.Run("enabled", func(t *testing.T) {
		f := newFixture(t, fixtureOptions{resetEnabled: true})
		f.store.AddProduct(album, 3)
		other := album
		other.ID = "2"
		f.store.AddProduct(other, 0)

		w := f.do(t, http.MethodPost, "/api/orders/admin/reset-inventory", "")
		require.Equal(t, http.StatusOK, w.Code)
		assertCORS(t, w)
		assert.JSONEq(t, `{"success":true,"message":"모든 상품의 재고가 100개로 리셋되었습니다.","affectedRows":2}`, w.Body.String())
		assert.Equal(t, int64(100), f.store.Stock("1"))
		assert.Equal(t, int64(100), f.store.Stock("2"))
	})
}

func TestAdminStubs(t *testing.T) {
	f := newFixture(t, fixtureOptions{resetEnabled: true})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/orders/admin/products"},
		{http.MethodGet, "/api/orders/admin/inventory"},
		{http.MethodPost, "/api/orders/admin/products"},
		{http.MethodPut, "/api/orders/admin/products/1"},
		{http.MethodDelete, "/api/orders/admin/products/1"},
		{http.MethodPost, "/api/orders/admin/inventory/1/add"},
		{http.MethodDelete, "/api/orders/admin/orders/1"},
	}
	for _, r := range routes {
		w := f.do(t, r.method, r.path, "")
		assert.Equal(t, http.StatusNotImplemented, w.Code, "%s %s", r.method, r.path)
		assert.JSONEq(t, `{"success":false,"message":"Not implemented"}`, w.Body.String())
	}
	assert.Empty(t, f.store.Calls())
}

func TestAdminInconsistencies(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	w := f.do(t, http.MethodGet, "/api/orders/admin/inconsistencies", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	f = newFixture(t, fixtureOptions{withLedger: true})
	f.ledger.records = []domain.Inconsistency{{
		RecordID:  "rec-1",
		ProductID: "1",
		Quantity:  2,
		Status:    domain.InconsistencyPending,
	}}

	w = f.do(t, http.MethodGet, "/api/orders/admin/inconsistencies?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode(t, w)["inconsistencies"].([]any)
	require.Len(t, recs, 1)
	rec := recs[0].(map[string]any)
	assert.Equal(t, "rec-1", rec["record_id"])
	assert.EqualValues(t, 1, rec["product_id"])
	assert.Equal(t, domain.InconsistencyPending, rec["status"])
}

func TestRouting(t *testing.T) {
	f := newFixture(t, fixtureOptions{})

	w := f.do(t, http.MethodGet, "/api/orders/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, w.Body.String())

	w = f.do(t, http.MethodDelete, "/api/orders/products", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPatch, "/api/orders/create", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Method not allowed"}`, w.Body.String())

	w = f.do(t, http.MethodOptions, "/api/orders/create", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assertCORS(t, w)

	w = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, "/api/orders/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, f.store.Calls())
}

func TestAdminResolveInconsistency(t *testing.T) {
	f := newFixture(t, fixtureOptions{withLedger: true})
	f.ledger.records = []domain.Inconsistency{{RecordID: "rec-1", Status: domain.InconsistencyPending}}

	w := f.do(t, http.MethodPost, "/api/orders/admin/inconsistencies/rec-1/resolve", "")
	require.Equal(t, http.StatusOK, w.Code)
	assertCORS(t, w)
	assert.Equal(t, true, decode(t, w)["success"])
	assert.Equal(t, domain.InconsistencyResolved, f.ledger.records[0].Status)

	w = f.do(t, http.MethodPost, "/api/orders/admin/inconsistencies/rec-1/resolve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Record not found"}`, w.Body.String())
}
