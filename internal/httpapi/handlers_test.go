package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"servisku/backend/internal/cache"
	"servisku/backend/internal/service"
	"servisku/backend/internal/store/memory"
)

// newTestAPI builds the full API over an in-memory store so handler
// tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.New()
	svc := service.New(repo, cache.NoopReportCache{}, decimal.Zero, 5*time.Second, zerolog.Nop())
	return New(svc, "*", zerolog.Nop())
}

func doJSON(t *testing.T, handler http.Handler, method string, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func createCustomer(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/customers", map[string]any{"name": "Budi Santoso"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create customer: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeBody(t, rec, &created)
	return created["id"].(string)
}

func createProduct(t *testing.T, handler http.Handler, stock int) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", map[string]any{
		"name":            "LCD panel",
		"purchase_price":  45.0,
		"selling_price":   65.0,
		"stock_quantity":  stock,
		"min_stock_level": 2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var created map[string]any
	decodeBody(t, rec, &created)
	return created["id"].(string)
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
}

func TestCustomerCreateAndGet(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	id := createCustomer(t, handler)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/customers/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var customer map[string]any
	decodeBody(t, rec, &customer)
	if customer["name"] != "Budi Santoso" {
		t.Fatalf("expected name Budi Santoso, got %v", customer["name"])
	}
}

func TestGetAbsentCustomerReturnsNullBody(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodGet, "/api/v1/customers/cust-missing", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for absent read, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "null\n" {
		t.Fatalf("expected null body, got %q", body)
	}
}

func TestUpdateMissingCustomerReturns404(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodPatch, "/api/v1/customers/cust-missing", map[string]any{"name": "Nobody"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateCustomerRejectsUnknownField(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodPost, "/api/v1/customers", map[string]any{
		"name":     "Budi Santoso",
		"nickname": "Budi",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestSaleWithInsufficientStockReturns409(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	customerID := createCustomer(t, handler)
	productID := createProduct(t, handler, 1)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/transactions", map[string]any{
		"type":        "sale",
		"customer_id": customerID,
		"items": []map[string]any{
			{"product_id": productID, "quantity": 5},
		},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestServiceTicketInvalidStatusReturns422(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	customerID := createCustomer(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/services", map[string]any{
		"customer_id":        customerID,
		"device_description": "iPhone 12, cracked screen",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create ticket: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var ticket map[string]any
	decodeBody(t, rec, &ticket)

	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/services/"+ticket["id"].(string), map[string]any{
		"status": "repaired",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestPosCheckout(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	customerID := createCustomer(t, handler)
	productID := createProduct(t, handler, 10)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/pos/checkout", map[string]any{
		"customer_id": customerID,
		"tax_rate":    10,
		"items": []map[string]any{
			{"product_id": productID, "quantity": 2},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		Subtotal    float64 `json:"subtotal"`
		TaxAmount   float64 `json:"tax_amount"`
		TotalAmount float64 `json:"total_amount"`
	}
	decodeBody(t, rec, &resp)
	if resp.Subtotal != 130 {
		t.Fatalf("expected subtotal 130, got %v", resp.Subtotal)
	}
	if resp.TaxAmount != 13 {
		t.Fatalf("expected tax 13, got %v", resp.TaxAmount)
	}
	if resp.TotalAmount != 143 {
		t.Fatalf("expected total 143, got %v", resp.TotalAmount)
	}

	// Stock must reflect the sale.
	rec = doJSON(t, handler, http.MethodGet, "/api/v1/products/"+productID, nil)
	var product struct {
		StockQuantity int `json:"stock_quantity"`
	}
	decodeBody(t, rec, &product)
	if product.StockQuantity != 8 {
		t.Fatalf("expected stock 8, got %d", product.StockQuantity)
	}
}

func TestInvoiceFromService(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	customerID := createCustomer(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/services", map[string]any{
		"customer_id":        customerID,
		"device_description": "Laptop, dead battery",
	})
	var ticket map[string]any
	decodeBody(t, rec, &ticket)
	ticketID := ticket["id"].(string)

	rec = doJSON(t, handler, http.MethodPatch, "/api/v1/services/"+ticketID, map[string]any{
		"status":     "completed",
		"final_cost": 120.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update ticket: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/invoices/from-service", map[string]any{
		"service_id": ticketID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var invoice struct {
		Subtotal    float64 `json:"subtotal"`
		TotalAmount float64 `json:"total_amount"`
		Status      string  `json:"status"`
	}
	decodeBody(t, rec, &invoice)
	if invoice.Subtotal != 120 || invoice.TotalAmount != 120 {
		t.Fatalf("expected 120/120, got %v/%v", invoice.Subtotal, invoice.TotalAmount)
	}
	if invoice.Status != "draft" {
		t.Fatalf("expected draft, got %s", invoice.Status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodDelete, "/api/v1/customers", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestDashboardSummaryEndpoint(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	createProduct(t, handler, 1)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/dashboard/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary struct {
		Inventory struct {
			LowStockCount int `json:"low_stock_count"`
		} `json:"inventory"`
	}
	decodeBody(t, rec, &summary)
	if summary.Inventory.LowStockCount != 1 {
		t.Fatalf("expected 1 low-stock product, got %d", summary.Inventory.LowStockCount)
	}
}

func TestCorsPreflight(t *testing.T) {
	api := newTestAPI(t)
	rec := doJSON(t, api.Handler(), http.MethodOptions, "/api/v1/customers", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Fatalf("expected wildcard origin, got %q", origin)
	}
}

func TestGetServiceItemByID(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	customerID := createCustomer(t, handler)
	productID := createProduct(t, handler, 10)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/services", map[string]any{
		"customer_id":        customerID,
		"device_description": "Tablet, broken glass",
	})
	var ticket map[string]any
	decodeBody(t, rec, &ticket)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/services/"+ticket["id"].(string)+"/items", map[string]any{
		"product_id": productID,
		"quantity":   1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create service item: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var item map[string]any
	decodeBody(t, rec, &item)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/service-items/"+item["id"].(string), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var fetched map[string]any
	decodeBody(t, rec, &fetched)
	if fetched["id"] != item["id"] {
		t.Fatalf("expected item %v, got %v", item["id"], fetched["id"])
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/service-items/sitem-missing", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "null\n" {
		t.Fatalf("expected 200 null for absent item, got %d (%q)", rec.Code, rec.Body.String())
	}
}

func TestRejectedRequestIsLogged(t *testing.T) {
	var logged bytes.Buffer
	repo := memory.New()
	svc := service.New(repo, cache.NoopReportCache{}, decimal.Zero, 5*time.Second, zerolog.Nop())
	api := New(svc, "*", zerolog.New(&logged))

	rec := doJSON(t, api.Handler(), http.MethodPatch, "/api/v1/customers/cust-missing", map[string]any{
		"name": "Nobody",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !bytes.Contains(logged.Bytes(), []byte("request rejected")) {
		t.Fatalf("expected rejected request in log output, got %q", logged.String())
	}
}
