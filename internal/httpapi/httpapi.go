package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"servisku/backend/internal/domain"
	"servisku/backend/internal/service"
	"servisku/backend/internal/store"
)

type API struct {
	service       *service.Service
	allowedOrigin string
	logger        zerolog.Logger
}

func New(svc *service.Service, allowedOrigin string, logger zerolog.Logger) *API {
	return &API{
		service:       svc,
		allowedOrigin: allowedOrigin,
		logger:        logger,
	}
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", a.handleHealth)

	mux.HandleFunc("/api/v1/customers", a.handleCustomers)
	mux.HandleFunc("/api/v1/customers/", a.handleCustomerActions)
	mux.HandleFunc("/api/v1/suppliers", a.handleSuppliers)
	mux.HandleFunc("/api/v1/suppliers/", a.handleSupplierActions)
	mux.HandleFunc("/api/v1/products", a.handleProducts)
	mux.HandleFunc("/api/v1/products/low-stock", a.handleLowStockProducts)
	mux.HandleFunc("/api/v1/products/", a.handleProductActions)

	mux.HandleFunc("/api/v1/services", a.handleServiceTickets)
	mux.HandleFunc("/api/v1/services/", a.handleServiceTicketActions)
	mux.HandleFunc("/api/v1/service-items/", a.handleServiceItemActions)

	mux.HandleFunc("/api/v1/transactions", a.handleTransactions)
	mux.HandleFunc("/api/v1/transactions/", a.handleTransactionActions)
	mux.HandleFunc("/api/v1/transaction-items/", a.handleTransactionItemActions)

	mux.HandleFunc("/api/v1/invoices", a.handleInvoices)
	mux.HandleFunc("/api/v1/invoices/from-service", a.handleInvoiceFromService)
	mux.HandleFunc("/api/v1/invoices/", a.handleInvoiceActions)

	mux.HandleFunc("/api/v1/pos/checkout", a.handlePosCheckout)

	mux.HandleFunc("/api/v1/reports/services", a.handleServiceReport)
	mux.HandleFunc("/api/v1/reports/inventory", a.handleInventoryReport)
	mux.HandleFunc("/api/v1/reports/sales", a.handleSalesSummary)
	mux.HandleFunc("/api/v1/dashboard/summary", a.handleDashboardSummary)

	mux.HandleFunc("/api/v1/audit-logs", a.handleAuditLogs)

	return a.withMiddleware(mux)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPatch || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(startedAt)).
			Msg("request")
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Customers.

func (a *API) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers, err := a.service.ListCustomers(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customers)
	case http.MethodPost:
		var req domain.CustomerCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		customer, err := a.service.CreateCustomer(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, customer)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleCustomerActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/customers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, a.logger, http.StatusNotFound, errors.New("not found"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		customer, err := a.service.GetCustomer(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	case http.MethodPut, http.MethodPatch:
		var req domain.CustomerUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		customer, err := a.service.UpdateCustomer(r.Context(), id, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, customer)
	case http.MethodDelete:
		if err := a.service.DeleteCustomer(r.Context(), id); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// Suppliers.

func (a *API) handleSuppliers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		suppliers, err := a.service.ListSuppliers(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, suppliers)
	case http.MethodPost:
		var req domain.SupplierCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		supplier, err := a.service.CreateSupplier(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, supplier)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleSupplierActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/suppliers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, a.logger, http.StatusNotFound, errors.New("not found"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		supplier, err := a.service.GetSupplier(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, supplier)
	case http.MethodPut, http.MethodPatch:
		var req domain.SupplierUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		supplier, err := a.service.UpdateSupplier(r.Context(), id, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, supplier)
	case http.MethodDelete:
		if err := a.service.DeleteSupplier(r.Context(), id); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// Products.

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		products, err := a.service.ListProducts(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	case http.MethodPost:
		var req domain.ProductCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.CreateProduct(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, product)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleLowStockProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	products, err := a.service.ListLowStockProducts(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *API) handleProductActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, a.logger, http.StatusNotFound, errors.New("not found"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := a.service.GetProduct(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case http.MethodPut, http.MethodPatch:
		var req domain.ProductUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		product, err := a.service.UpdateProduct(r.Context(), id, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, product)
	case http.MethodDelete:
		if err := a.service.DeleteProduct(r.Context(), id); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// Service tickets and their consumed parts.

func (a *API) handleServiceTickets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tickets, err := a.service.ListServiceTickets(r.Context(), r.URL.Query().Get("customer_id"), r.URL.Query().Get("status"))
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tickets)
	case http.MethodPost:
		var req domain.ServiceTicketCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		ticket, err := a.service.CreateServiceTicket(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ticket)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleServiceTicketActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/services/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		a.handleServiceTicketByID(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "items":
		a.handleServiceTicketItems(w, r, parts[0])
	default:
		writeError(w, a.logger, http.StatusNotFound, errors.New("not found"))
	}
}

func (a *API) handleServiceTicketByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		ticket, err := a.service.GetServiceTicket(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	case http.MethodPut, http.MethodPatch:
		var req domain.ServiceTicketUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		ticket, err := a.service.UpdateServiceTicket(r.Context(), id, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ticket)
	case http.MethodDelete:
		if err := a.service.DeleteServiceTicket(r.Context(), id); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleServiceTicketItems(w http.ResponseWriter, r *http.Request, serviceID string) {
	switch r.Method {
	case http.MethodGet:
		items, err := a.service.ListServiceItems(r.Context(), serviceID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req domain.ServiceItemCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		req.ServiceID = serviceID
		item, err := a.service.CreateServiceItem(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleServiceItemActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/service-items/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, a.logger, http.StatusNotFound, errors.New("not found"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		item, err := a.service.GetServiceItem(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := a.service.DeleteServiceItem(r.Context(), id); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// Transactions.

func (a *API) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		transactions, err := a.service.ListTransactions(r.Context(), query.Get("type"), query.Get("from"), query.Get("to"))
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transactions)
	case http.MethodPost:
		var req domain.TransactionCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		tx, err := a.service.CreateTransaction(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleTransactionActions(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/transactions/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		a.handleTransactionByID(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "items":
		a.handleTransactionItems(w, r, parts[0])
	default:
		writeError(w, a.logger, http.StatusNotFound, errors.New("not found"))
	}
}

func (a *API) handleTransactionByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		tx, err := a.service.GetTransaction(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	case http.MethodDelete:
		if err := a.service.DeleteTransaction(r.Context(), id); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleTransactionItems(w http.ResponseWriter, r *http.Request, transactionID string) {
	if r.Method != http.MethodPost {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req domain.TransactionItemCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.logger, http.StatusBadRequest, err)
		return
	}
	req.TransactionID = transactionID
	item, err := a.service.AddTransactionItem(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleTransactionItemActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/transaction-items/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, a.logger, http.StatusNotFound, errors.New("not found"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		item, err := a.service.GetTransactionItem(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := a.service.DeleteTransactionItem(r.Context(), id); err != nil {
			a.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// Invoices.

func (a *API) handleInvoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		invoices, err := a.service.ListInvoices(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invoices)
	case http.MethodPost:
		var req domain.InvoiceCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		invoice, err := a.service.CreateInvoice(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, invoice)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (a *API) handleInvoiceFromService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req struct {
		ServiceID string `json:"service_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.logger, http.StatusBadRequest, err)
		return
	}
	if req.ServiceID == "" {
		writeError(w, a.logger, http.StatusBadRequest, errors.New("service_id is required"))
		return
	}
	invoice, err := a.service.GenerateInvoiceFromService(r.Context(), req.ServiceID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

func (a *API) handleInvoiceActions(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/invoices/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, a.logger, http.StatusNotFound, errors.New("not found"))
		return
	}

	switch r.Method {
	case http.MethodGet:
		invoice, err := a.service.GetInvoice(r.Context(), id)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invoice)
	case http.MethodPut, http.MethodPatch:
		var req domain.InvoiceUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, a.logger, http.StatusBadRequest, err)
			return
		}
		invoice, err := a.service.UpdateInvoice(r.Context(), id, req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, invoice)
	default:
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

// POS checkout.

func (a *API) handlePosCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req domain.PosTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.logger, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.CreatePosTransaction(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Reports.

func (a *API) handleServiceReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	report, err := a.service.ServiceReport(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleInventoryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	report, err := a.service.InventoryReport(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	query := r.URL.Query()
	summary, err := a.service.SalesSummary(r.Context(), query.Get("period"), query.Get("from"), query.Get("to"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	summary, err := a.service.DashboardSummary(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Audit logs.

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, a.logger, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 100, 500)
	logs, err := a.service.ListAuditLogs(r.Context(), r.URL.Query().Get("date"), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// writeServiceError maps the store's sentinel errors onto HTTP status
// codes. Anything unrecognized is a 500 with a generic body.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalidStatus):
		status = http.StatusUnprocessableEntity
	}
	if status < http.StatusInternalServerError {
		a.logger.Warn().Err(err).Int("status", status).Msg("request rejected")
	}
	writeError(w, a.logger, status, err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}

// For 5xx responses the body carries a generic message so internal
// details (SQL errors, file paths) never leak to clients.
func writeError(w http.ResponseWriter, logger zerolog.Logger, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		logger.Error().Err(err).Int("status", status).Msg("internal error")
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
