package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"servisku/backend/internal/cache"
	"servisku/backend/internal/domain"
	"servisku/backend/internal/store"
	"servisku/backend/internal/xid"
)

type Service struct {
	repo           store.Repository
	reports        cache.ReportCache
	reportTTL      time.Duration
	defaultTaxRate decimal.Decimal
	logger         zerolog.Logger
}

func New(repo store.Repository, reports cache.ReportCache, defaultTaxRate decimal.Decimal, reportTTL time.Duration, logger zerolog.Logger) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if reportTTL < time.Second {
		reportTTL = 30 * time.Second
	}

	return &Service{
		repo:           repo,
		reports:        reports,
		reportTTL:      reportTTL,
		defaultTaxRate: defaultTaxRate,
		logger:         logger,
	}
}

// Customers.

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Customer{}, store.ErrValidation
	}

	created, err := s.repo.CreateCustomer(ctx, domain.Customer{
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_create", "customer", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// GetCustomer returns nil without error when the id is unknown; reads
// of a single record treat absence as an empty result, not a failure.
func (s *Service) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	customer, err := s.repo.GetCustomerByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return customer, err
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	existing, err := s.repo.GetCustomerByID(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return domain.Customer{}, store.ErrValidation
		}
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		existing.Email = req.Email
	}
	if req.Phone != nil {
		existing.Phone = req.Phone
	}
	if req.Address != nil {
		existing.Address = req.Address
	}

	saved, err := s.repo.UpdateCustomer(ctx, *existing)
	if err != nil {
		return domain.Customer{}, err
	}

	s.logAudit(ctx, "customer_update", "customer", saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return *saved, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "customer_delete", "customer", id, "")
	return nil
}

// Suppliers.

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Supplier{}, store.ErrValidation
	}

	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		Name:    strings.TrimSpace(req.Name),
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		return domain.Supplier{}, err
	}

	s.logAudit(ctx, "supplier_create", "supplier", created.ID, fmt.Sprintf("name=%s", created.Name))
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	supplier, err := s.repo.GetSupplierByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return supplier, err
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, req domain.SupplierUpdateRequest) (domain.Supplier, error) {
	existing, err := s.repo.GetSupplierByID(ctx, id)
	if err != nil {
		return domain.Supplier{}, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return domain.Supplier{}, store.ErrValidation
		}
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		existing.Email = req.Email
	}
	if req.Phone != nil {
		existing.Phone = req.Phone
	}
	if req.Address != nil {
		existing.Address = req.Address
	}

	saved, err := s.repo.UpdateSupplier(ctx, *existing)
	if err != nil {
		return domain.Supplier{}, err
	}

	s.logAudit(ctx, "supplier_update", "supplier", saved.ID, fmt.Sprintf("name=%s", saved.Name))
	return *saved, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "supplier_delete", "supplier", id, "")
	return nil
}

// Products.

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Product{}, store.ErrValidation
	}
	if req.PurchasePrice.IsNegative() || req.SellingPrice.IsNegative() {
		return domain.Product{}, store.ErrValidation
	}
	if req.StockQuantity < 0 || req.MinStockLevel < 0 {
		return domain.Product{}, store.ErrValidation
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		StockQuantity: req.StockQuantity,
		MinStockLevel: req.MinStockLevel,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,stock=%d", created.Name, created.StockQuantity))
	return *created, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return product, err
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return domain.Product{}, store.ErrValidation
		}
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.PurchasePrice != nil {
		if req.PurchasePrice.IsNegative() {
			return domain.Product{}, store.ErrValidation
		}
		existing.PurchasePrice = *req.PurchasePrice
	}
	if req.SellingPrice != nil {
		if req.SellingPrice.IsNegative() {
			return domain.Product{}, store.ErrValidation
		}
		existing.SellingPrice = *req.SellingPrice
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return domain.Product{}, store.ErrValidation
		}
		existing.StockQuantity = *req.StockQuantity
	}
	if req.MinStockLevel != nil {
		if *req.MinStockLevel < 0 {
			return domain.Product{}, store.ErrValidation
		}
		existing.MinStockLevel = *req.MinStockLevel
	}

	saved, err := s.repo.UpdateProduct(ctx, *existing)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("name=%s,stock=%d", saved.Name, saved.StockQuantity))
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func (s *Service) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListLowStockProducts(ctx)
}

// Service tickets.

func (s *Service) CreateServiceTicket(ctx context.Context, req domain.ServiceTicketCreateRequest) (domain.ServiceTicket, error) {
	if strings.TrimSpace(req.DeviceDescription) == "" || req.CustomerID == "" {
		return domain.ServiceTicket{}, store.ErrValidation
	}
	if _, err := s.repo.GetCustomerByID(ctx, req.CustomerID); err != nil {
		return domain.ServiceTicket{}, err
	}

	ticket := domain.ServiceTicket{
		CustomerID:        req.CustomerID,
		DeviceDescription: strings.TrimSpace(req.DeviceDescription),
		IssueDescription:  req.IssueDescription,
		Status:            domain.ServiceStatusReceived,
		EstimatedCost:     req.EstimatedCost,
	}
	if req.ReceivedDate != "" {
		received, err := domain.ParseDate(req.ReceivedDate)
		if err != nil {
			return domain.ServiceTicket{}, store.ErrValidation
		}
		ticket.ReceivedDate = received
	}

	created, err := s.repo.CreateServiceTicket(ctx, ticket)
	if err != nil {
		return domain.ServiceTicket{}, err
	}

	s.logAudit(ctx, "service_create", "service_ticket", created.ID, fmt.Sprintf("customer=%s,device=%s", created.CustomerID, created.DeviceDescription))
	return *created, nil
}

func (s *Service) ListServiceTickets(ctx context.Context, customerID string, status string) ([]domain.ServiceTicket, error) {
	if status != "" && !domain.IsValidServiceStatus(status) {
		return nil, store.ErrInvalidStatus
	}
	return s.repo.ListServiceTickets(ctx, store.ServiceTicketFilter{CustomerID: customerID, Status: status})
}

func (s *Service) GetServiceTicket(ctx context.Context, id string) (*domain.ServiceTicket, error) {
	ticket, err := s.repo.GetServiceTicketByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return ticket, err
}

func (s *Service) UpdateServiceTicket(ctx context.Context, id string, req domain.ServiceTicketUpdateRequest) (domain.ServiceTicket, error) {
	existing, err := s.repo.GetServiceTicketByID(ctx, id)
	if err != nil {
		return domain.ServiceTicket{}, err
	}

	if req.DeviceDescription != nil {
		if strings.TrimSpace(*req.DeviceDescription) == "" {
			return domain.ServiceTicket{}, store.ErrValidation
		}
		existing.DeviceDescription = strings.TrimSpace(*req.DeviceDescription)
	}
	if req.IssueDescription != nil {
		existing.IssueDescription = req.IssueDescription
	}
	if req.EstimatedCost != nil {
		existing.EstimatedCost = req.EstimatedCost
	}
	if req.FinalCost != nil {
		if req.FinalCost.IsNegative() {
			return domain.ServiceTicket{}, store.ErrValidation
		}
		existing.FinalCost = req.FinalCost
	}
	if req.CompletedDate != nil {
		completed, err := domain.ParseDate(*req.CompletedDate)
		if err != nil {
			return domain.ServiceTicket{}, store.ErrValidation
		}
		existing.CompletedDate = &completed
	}
	if req.Status != nil {
		if !domain.IsValidServiceStatus(*req.Status) {
			return domain.ServiceTicket{}, store.ErrInvalidStatus
		}
		existing.Status = *req.Status
		if existing.Status == domain.ServiceStatusCompleted && existing.CompletedDate == nil {
			today := domain.DateUTC(time.Now())
			existing.CompletedDate = &today
		}
	}

	saved, err := s.repo.UpdateServiceTicket(ctx, *existing)
	if err != nil {
		return domain.ServiceTicket{}, err
	}

	s.logAudit(ctx, "service_update", "service_ticket", saved.ID, fmt.Sprintf("status=%s", saved.Status))
	return *saved, nil
}

func (s *Service) DeleteServiceTicket(ctx context.Context, id string) error {
	if err := s.repo.DeleteServiceTicket(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "service_delete", "service_ticket", id, "")
	return nil
}

// Service items.

func (s *Service) CreateServiceItem(ctx context.Context, req domain.ServiceItemCreateRequest) (domain.ServiceItem, error) {
	if req.ServiceID == "" || req.ProductID == "" {
		return domain.ServiceItem{}, store.ErrValidation
	}
	if req.Quantity < 1 {
		return domain.ServiceItem{}, store.ErrValidation
	}

	product, err := s.repo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return domain.ServiceItem{}, err
	}

	unitPrice := product.SellingPrice
	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return domain.ServiceItem{}, store.ErrValidation
		}
		unitPrice = *req.UnitPrice
	}

	created, err := s.repo.CreateServiceItem(ctx, domain.ServiceItem{
		ServiceID: req.ServiceID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: unitPrice,
	})
	if err != nil {
		return domain.ServiceItem{}, err
	}

	s.logAudit(ctx, "service_item_create", "service_item", created.ID, fmt.Sprintf("service=%s,product=%s,qty=%d", created.ServiceID, created.ProductID, created.Quantity))
	return *created, nil
}

func (s *Service) ListServiceItems(ctx context.Context, serviceID string) ([]domain.ServiceItem, error) {
	return s.repo.ListServiceItems(ctx, serviceID)
}

func (s *Service) GetServiceItem(ctx context.Context, id string) (*domain.ServiceItem, error) {
	item, err := s.repo.GetServiceItemByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return item, err
}

func (s *Service) DeleteServiceItem(ctx context.Context, id string) error {
	if err := s.repo.DeleteServiceItem(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "service_item_delete", "service_item", id, "")
	return nil
}

// Transactions.

func (s *Service) CreateTransaction(ctx context.Context, req domain.TransactionCreateRequest) (domain.Transaction, error) {
	if !domain.IsValidTransactionType(req.Type) {
		return domain.Transaction{}, store.ErrValidation
	}
	if len(req.Items) == 0 {
		return domain.Transaction{}, store.ErrValidation
	}
	// A sale is to a customer, a purchase from a supplier.
	if req.Type == domain.TransactionTypeSale && (req.CustomerID == nil || *req.CustomerID == "") {
		return domain.Transaction{}, store.ErrValidation
	}
	if req.Type == domain.TransactionTypePurchase && (req.SupplierID == nil || *req.SupplierID == "") {
		return domain.Transaction{}, store.ErrValidation
	}
	if req.CustomerID != nil {
		if _, err := s.repo.GetCustomerByID(ctx, *req.CustomerID); err != nil {
			return domain.Transaction{}, err
		}
	}
	if req.SupplierID != nil {
		if _, err := s.repo.GetSupplierByID(ctx, *req.SupplierID); err != nil {
			return domain.Transaction{}, err
		}
	}

	tx := domain.Transaction{
		Type:       req.Type,
		CustomerID: req.CustomerID,
		SupplierID: req.SupplierID,
		Notes:      req.Notes,
	}
	if req.TransactionDate != "" {
		date, err := domain.ParseDate(req.TransactionDate)
		if err != nil {
			return domain.Transaction{}, store.ErrValidation
		}
		tx.TransactionDate = date
	}

	total := decimal.Zero
	items := make([]domain.TransactionItem, 0, len(req.Items))
	for _, line := range req.Items {
		if line.ProductID == "" || line.Quantity < 1 {
			return domain.Transaction{}, store.ErrValidation
		}
		unitPrice, err := s.resolveUnitPrice(ctx, req.Type, line.ProductID, line.UnitPrice)
		if err != nil {
			return domain.Transaction{}, err
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		items = append(items, domain.TransactionItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
	}
	tx.TotalAmount = total
	tx.Items = items

	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}

	s.logAudit(ctx, "transaction_create", "transaction", created.ID, fmt.Sprintf("type=%s,items=%d,total=%s", created.Type, len(created.Items), created.TotalAmount))
	return *created, nil
}

func (s *Service) ListTransactions(ctx context.Context, txType string, from string, to string) ([]domain.Transaction, error) {
	if txType != "" && !domain.IsValidTransactionType(txType) {
		return nil, store.ErrValidation
	}
	filter := store.TransactionFilter{Type: txType}
	if from != "" {
		parsed, err := domain.ParseDate(from)
		if err != nil {
			return nil, store.ErrValidation
		}
		filter.From = parsed
	}
	if to != "" {
		parsed, err := domain.ParseDate(to)
		if err != nil {
			return nil, store.ErrValidation
		}
		// The query range is half-open; include the whole end day.
		filter.To = parsed.AddDate(0, 0, 1)
	}
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := s.repo.GetTransactionByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return tx, err
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "transaction_delete", "transaction", id, "")
	return nil
}

func (s *Service) AddTransactionItem(ctx context.Context, req domain.TransactionItemCreateRequest) (domain.TransactionItem, error) {
	if req.TransactionID == "" || req.ProductID == "" || req.Quantity < 1 {
		return domain.TransactionItem{}, store.ErrValidation
	}

	tx, err := s.repo.GetTransactionByID(ctx, req.TransactionID)
	if err != nil {
		return domain.TransactionItem{}, err
	}
	unitPrice, err := s.resolveUnitPrice(ctx, tx.Type, req.ProductID, req.UnitPrice)
	if err != nil {
		return domain.TransactionItem{}, err
	}

	created, err := s.repo.AddTransactionItem(ctx, domain.TransactionItem{
		TransactionID: req.TransactionID,
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		UnitPrice:     unitPrice,
	})
	if err != nil {
		return domain.TransactionItem{}, err
	}

	s.logAudit(ctx, "transaction_item_create", "transaction_item", created.ID, fmt.Sprintf("transaction=%s,product=%s,qty=%d", created.TransactionID, created.ProductID, created.Quantity))
	return *created, nil
}

func (s *Service) GetTransactionItem(ctx context.Context, id string) (*domain.TransactionItem, error) {
	item, err := s.repo.GetTransactionItemByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return item, err
}

func (s *Service) DeleteTransactionItem(ctx context.Context, id string) error {
	if err := s.repo.DeleteTransactionItem(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "transaction_item_delete", "transaction_item", id, "")
	return nil
}

// resolveUnitPrice falls back to the product's catalog price for the
// transaction direction: selling price on a sale, purchase price on a
// purchase.
func (s *Service) resolveUnitPrice(ctx context.Context, txType string, productID string, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		if override.IsNegative() {
			return decimal.Decimal{}, store.ErrValidation
		}
		return *override, nil
	}
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if txType == domain.TransactionTypePurchase {
		return product.PurchasePrice, nil
	}
	return product.SellingPrice, nil
}

// Invoices.

func (s *Service) CreateInvoice(ctx context.Context, req domain.InvoiceCreateRequest) (domain.Invoice, error) {
	if req.CustomerID == "" {
		return domain.Invoice{}, store.ErrValidation
	}
	if req.Subtotal.IsNegative() {
		return domain.Invoice{}, store.ErrValidation
	}
	if _, err := s.repo.GetCustomerByID(ctx, req.CustomerID); err != nil {
		return domain.Invoice{}, err
	}
	if req.ServiceID != nil {
		if _, err := s.repo.GetServiceTicketByID(ctx, *req.ServiceID); err != nil {
			return domain.Invoice{}, err
		}
	}
	if req.TransactionID != nil {
		if _, err := s.repo.GetTransactionByID(ctx, *req.TransactionID); err != nil {
			return domain.Invoice{}, err
		}
	}

	taxAmount := decimal.Zero
	if req.TaxAmount != nil {
		if req.TaxAmount.IsNegative() {
			return domain.Invoice{}, store.ErrValidation
		}
		taxAmount = *req.TaxAmount
	}

	invoice := domain.Invoice{
		InvoiceNumber: req.InvoiceNumber,
		CustomerID:    req.CustomerID,
		ServiceID:     req.ServiceID,
		TransactionID: req.TransactionID,
		Subtotal:      req.Subtotal,
		TaxAmount:     taxAmount,
		TotalAmount:   req.Subtotal.Add(taxAmount),
		Status:        domain.InvoiceStatusDraft,
		Notes:         req.Notes,
	}
	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = newInvoiceNumber("")
	}
	if req.IssueDate != "" {
		issued, err := domain.ParseDate(req.IssueDate)
		if err != nil {
			return domain.Invoice{}, store.ErrValidation
		}
		invoice.IssueDate = issued
	} else {
		invoice.IssueDate = domain.DateUTC(time.Now())
	}
	if req.DueDate != "" {
		due, err := domain.ParseDate(req.DueDate)
		if err != nil {
			return domain.Invoice{}, store.ErrValidation
		}
		invoice.DueDate = due
	} else {
		invoice.DueDate = invoice.IssueDate.AddDate(0, 0, 14)
	}
	if invoice.DueDate.Before(invoice.IssueDate) {
		return domain.Invoice{}, store.ErrValidation
	}

	created, err := s.repo.CreateInvoice(ctx, invoice)
	if err != nil {
		return domain.Invoice{}, err
	}

	s.logAudit(ctx, "invoice_create", "invoice", created.ID, fmt.Sprintf("number=%s,total=%s", created.InvoiceNumber, created.TotalAmount))
	return *created, nil
}

// GenerateInvoiceFromService builds a draft invoice covering a repair:
// the parts consumed plus the ticket's final labor cost, tax-free.
func (s *Service) GenerateInvoiceFromService(ctx context.Context, serviceID string) (domain.Invoice, error) {
	ticket, err := s.repo.GetServiceTicketByID(ctx, serviceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	items, err := s.repo.ListServiceItems(ctx, serviceID)
	if err != nil {
		return domain.Invoice{}, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
	}
	if ticket.FinalCost != nil {
		subtotal = subtotal.Add(*ticket.FinalCost)
	}

	issueDate := domain.DateUTC(time.Now())
	invoice := domain.Invoice{
		InvoiceNumber: newInvoiceNumber(ticket.ID),
		CustomerID:    ticket.CustomerID,
		ServiceID:     &ticket.ID,
		Subtotal:      subtotal,
		TaxAmount:     decimal.Zero,
		TotalAmount:   subtotal,
		Status:        domain.InvoiceStatusDraft,
		IssueDate:     issueDate,
		DueDate:       issueDate.AddDate(0, 0, 14),
	}

	created, err := s.repo.CreateInvoice(ctx, invoice)
	if err != nil {
		return domain.Invoice{}, err
	}

	s.logAudit(ctx, "invoice_from_service", "invoice", created.ID, fmt.Sprintf("service=%s,total=%s", serviceID, created.TotalAmount))
	return *created, nil
}

func (s *Service) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return s.repo.ListInvoices(ctx)
}

func (s *Service) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.repo.GetInvoiceByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return invoice, err
}

func (s *Service) UpdateInvoice(ctx context.Context, id string, req domain.InvoiceUpdateRequest) (domain.Invoice, error) {
	existing, err := s.repo.GetInvoiceByID(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}

	if req.Notes != nil {
		existing.Notes = req.Notes
	}
	if req.PaidDate != nil {
		paid, err := domain.ParseDate(*req.PaidDate)
		if err != nil {
			return domain.Invoice{}, store.ErrValidation
		}
		existing.PaidDate = &paid
	}
	if req.Status != nil {
		if !domain.IsValidInvoiceStatus(*req.Status) {
			return domain.Invoice{}, store.ErrInvalidStatus
		}
		existing.Status = *req.Status
		if existing.Status == domain.InvoiceStatusPaid && existing.PaidDate == nil {
			today := domain.DateUTC(time.Now())
			existing.PaidDate = &today
		}
	}

	saved, err := s.repo.UpdateInvoice(ctx, *existing)
	if err != nil {
		return domain.Invoice{}, err
	}

	s.logAudit(ctx, "invoice_update", "invoice", saved.ID, fmt.Sprintf("status=%s", saved.Status))
	return *saved, nil
}

// POS checkout.

var oneHundred = decimal.NewFromInt(100)

// CreatePosTransaction rings up an over-the-counter sale: the cart's
// parts, an optional completed repair's service charge, and tax on top
// of both. Stock moves atomically with the sale record.
func (s *Service) CreatePosTransaction(ctx context.Context, req domain.PosTransactionRequest) (domain.PosTransactionResponse, error) {
	if req.CustomerID == "" || len(req.Items) == 0 {
		return domain.PosTransactionResponse{}, store.ErrValidation
	}
	taxRate := s.defaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(oneHundred) {
		return domain.PosTransactionResponse{}, store.ErrValidation
	}

	customer, err := s.repo.GetCustomerByID(ctx, req.CustomerID)
	if err != nil {
		return domain.PosTransactionResponse{}, err
	}

	serviceCharge := decimal.Zero
	if req.ServiceID != nil {
		ticket, err := s.repo.GetServiceTicketByID(ctx, *req.ServiceID)
		if err != nil {
			return domain.PosTransactionResponse{}, err
		}
		if ticket.CustomerID != req.CustomerID {
			return domain.PosTransactionResponse{}, store.ErrValidation
		}
		if ticket.Status != domain.ServiceStatusCompleted && ticket.Status != domain.ServiceStatusReadyForPickup {
			return domain.PosTransactionResponse{}, store.ErrInvalidStatus
		}
		if ticket.FinalCost != nil {
			serviceCharge = *ticket.FinalCost
		}
	}
	if req.ServiceCharge != nil {
		if req.ServiceCharge.IsNegative() {
			return domain.PosTransactionResponse{}, store.ErrValidation
		}
		serviceCharge = *req.ServiceCharge
	}

	subtotal := decimal.Zero
	lines := make([]domain.PosLineSummary, 0, len(req.Items))
	items := make([]domain.TransactionItem, 0, len(req.Items))
	for _, cartItem := range req.Items {
		if cartItem.ProductID == "" || cartItem.Quantity < 1 {
			return domain.PosTransactionResponse{}, store.ErrValidation
		}
		product, err := s.repo.GetProductByID(ctx, cartItem.ProductID)
		if err != nil {
			return domain.PosTransactionResponse{}, err
		}
		unitPrice := product.SellingPrice
		if cartItem.UnitPrice != nil {
			if cartItem.UnitPrice.IsNegative() {
				return domain.PosTransactionResponse{}, store.ErrValidation
			}
			unitPrice = *cartItem.UnitPrice
		}
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(cartItem.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, domain.PosLineSummary{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    cartItem.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  lineTotal,
		})
		items = append(items, domain.TransactionItem{
			ProductID: cartItem.ProductID,
			Quantity:  cartItem.Quantity,
			UnitPrice: unitPrice,
		})
	}

	taxBase := subtotal.Add(serviceCharge)
	taxAmount := taxBase.Mul(taxRate).Div(oneHundred).Round(2)
	totalAmount := taxBase.Add(taxAmount)

	tx := domain.Transaction{
		Type:          domain.TransactionTypeSale,
		CustomerID:    &req.CustomerID,
		TotalAmount:   totalAmount,
		ServiceCharge: serviceCharge,
		Notes:         req.Notes,
		Items:         items,
	}

	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return domain.PosTransactionResponse{}, err
	}

	s.logAudit(ctx, "pos_checkout", "transaction", created.ID, fmt.Sprintf("customer=%s,items=%d,total=%s", req.CustomerID, len(items), totalAmount))

	return domain.PosTransactionResponse{
		Transaction:   *created,
		Customer:      *customer,
		Items:         lines,
		Subtotal:      subtotal,
		ServiceCharge: serviceCharge,
		TaxAmount:     taxAmount,
		TotalAmount:   totalAmount,
	}, nil
}

// Reports.

func (s *Service) ServiceReport(ctx context.Context, from string, to string) (domain.ServiceReport, error) {
	fromDate, toDate, err := parseRange(from, to)
	if err != nil {
		return domain.ServiceReport{}, err
	}
	return s.repo.GetServiceReport(ctx, fromDate, toDate)
}

func (s *Service) InventoryReport(ctx context.Context) (domain.InventoryReport, error) {
	return s.repo.GetInventoryReport(ctx)
}

func (s *Service) SalesSummary(ctx context.Context, period string, from string, to string) (domain.SalesSummary, error) {
	var fromDate, toDate time.Time
	if from != "" || to != "" {
		parsedFrom, parsedTo, err := parseRange(from, to)
		if err != nil {
			return domain.SalesSummary{}, err
		}
		fromDate, toDate = parsedFrom, parsedTo
		if period == "" {
			period = "custom"
		}
	} else {
		if period == "" {
			period = domain.PeriodDaily
		}
		var err error
		fromDate, toDate, err = periodRange(period, time.Now())
		if err != nil {
			return domain.SalesSummary{}, err
		}
	}

	summary, err := s.repo.GetSalesSummary(ctx, fromDate, toDate)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	summary.Period = period
	return summary, nil
}

// DashboardSummary combines today's service, inventory, and sales
// figures. Results are cached for a short TTL since dashboards poll.
func (s *Service) DashboardSummary(ctx context.Context) (domain.DashboardSummary, error) {
	today := domain.DateUTC(time.Now())
	key := "dashboard:" + today.Format("2006-01-02")

	if cached, ok, err := s.reports.Get(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
	} else if ok {
		return *cached, nil
	}

	tomorrow := today.AddDate(0, 0, 1)
	services, err := s.repo.GetServiceReport(ctx, today, tomorrow)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	inventory, err := s.repo.GetInventoryReport(ctx)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	sales, err := s.repo.GetSalesSummary(ctx, today, tomorrow)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	sales.Period = domain.PeriodDaily

	summary := domain.DashboardSummary{
		Date:      today.Format("2006-01-02"),
		Services:  services,
		Inventory: inventory,
		Sales:     sales,
	}

	if err := s.reports.Set(ctx, key, &summary, s.reportTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
	}
	return summary, nil
}

// Audit logs.

func (s *Service) ListAuditLogs(ctx context.Context, date string, limit int) ([]domain.AuditLog, error) {
	day := domain.DateUTC(time.Now())
	if date != "" {
		parsed, err := domain.ParseDate(date)
		if err != nil {
			return nil, store.ErrValidation
		}
		day = parsed
	}
	return s.repo.ListAuditLogs(ctx, day, day.AddDate(0, 0, 1), limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Str("entity", entityType+"/"+entityID).Msg("audit log write failed")
	}
}

// newInvoiceNumber builds a printable number from a source entity id
// (the originating service ticket) or, given an empty id, a fresh one.
func newInvoiceNumber(sourceID string) string {
	if sourceID == "" {
		sourceID = xid.New("inv")
	}
	parts := strings.SplitN(sourceID, "-", 2)
	fragment := parts[len(parts)-1]
	if len(fragment) > 8 {
		fragment = fragment[:8]
	}
	return fmt.Sprintf("INV-%s-%d", strings.ToUpper(fragment), time.Now().Unix())
}

func parseRange(from string, to string) (time.Time, time.Time, error) {
	fromDate := domain.DateUTC(time.Now()).AddDate(0, -1, 0)
	toDate := domain.DateUTC(time.Now()).AddDate(0, 0, 1)
	if from != "" {
		parsed, err := domain.ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, store.ErrValidation
		}
		fromDate = parsed
	}
	if to != "" {
		parsed, err := domain.ParseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, store.ErrValidation
		}
		toDate = parsed.AddDate(0, 0, 1)
	}
	if !fromDate.Before(toDate) {
		return time.Time{}, time.Time{}, store.ErrValidation
	}
	return fromDate, toDate, nil
}

// periodRange maps a named period to a half-open [from, to) window
// containing the reference time.
func periodRange(period string, ref time.Time) (time.Time, time.Time, error) {
	day := domain.DateUTC(ref)
	switch period {
	case domain.PeriodDaily:
		return day, day.AddDate(0, 0, 1), nil
	case domain.PeriodWeekly:
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := day.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 7), nil
	case domain.PeriodMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), nil
	case domain.PeriodYearly:
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, time.Time{}, store.ErrValidation
	}
}
