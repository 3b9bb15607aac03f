package store

import (
	"context"
	"errors"
	"time"

	"servisku/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidStatus     = errors.New("invalid status")
)

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	Type string
	From time.Time
	To   time.Time
}

// ServiceTicketFilter narrows ListServiceTickets.
type ServiceTicketFilter struct {
	CustomerID string
	Status     string
}

// Repository is the persistence contract. Implementations must make
// every multi-statement mutation atomic: item inserts and their stock
// adjustments either all happen or none do, and a stock decrement only
// succeeds while the product holds at least the requested quantity.
type Repository interface {
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error

	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListLowStockProducts(ctx context.Context) ([]domain.Product, error)

	CreateServiceTicket(ctx context.Context, ticket domain.ServiceTicket) (*domain.ServiceTicket, error)
	ListServiceTickets(ctx context.Context, filter ServiceTicketFilter) ([]domain.ServiceTicket, error)
	GetServiceTicketByID(ctx context.Context, id string) (*domain.ServiceTicket, error)
	UpdateServiceTicket(ctx context.Context, ticket domain.ServiceTicket) (*domain.ServiceTicket, error)
	DeleteServiceTicket(ctx context.Context, id string) error

	CreateServiceItem(ctx context.Context, item domain.ServiceItem) (*domain.ServiceItem, error)
	ListServiceItems(ctx context.Context, serviceID string) ([]domain.ServiceItem, error)
	GetServiceItemByID(ctx context.Context, id string) (*domain.ServiceItem, error)
	DeleteServiceItem(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	AddTransactionItem(ctx context.Context, item domain.TransactionItem) (*domain.TransactionItem, error)
	GetTransactionItemByID(ctx context.Context, id string) (*domain.TransactionItem, error)
	DeleteTransactionItem(ctx context.Context, id string) error

	CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)
	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
	GetInvoiceByID(ctx context.Context, id string) (*domain.Invoice, error)
	UpdateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)

	GetServiceReport(ctx context.Context, from time.Time, to time.Time) (domain.ServiceReport, error)
	GetInventoryReport(ctx context.Context) (domain.InventoryReport, error)
	GetSalesSummary(ctx context.Context, from time.Time, to time.Time) (domain.SalesSummary, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
