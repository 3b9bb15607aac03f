package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money fields render as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DateUTC truncates a timestamp to its calendar date at UTC midnight.
// All date-only columns (transaction_date, received_date, issue_date,
// due_date, paid_date) are stored and exposed this way.
func DateUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" calendar date into a UTC-midnight timestamp.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return DateUTC(parsed), nil
}

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CustomerCreateRequest struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type CustomerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SupplierCreateRequest struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type SupplierUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ProductCreateRequest struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel int             `json:"min_stock_level"`
}

type ProductUpdateRequest struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	MinStockLevel *int             `json:"min_stock_level,omitempty"`
}

// ServiceTicket is a device repair order. Status walks
// received -> in_progress -> ready_for_pickup -> completed.
type ServiceTicket struct {
	ID                string           `json:"id"`
	CustomerID        string           `json:"customer_id"`
	DeviceDescription string           `json:"device_description"`
	IssueDescription  *string          `json:"issue_description"`
	Status            string           `json:"status"`
	EstimatedCost     *decimal.Decimal `json:"estimated_cost"`
	FinalCost         *decimal.Decimal `json:"final_cost"`
	ReceivedDate      time.Time        `json:"received_date"`
	CompletedDate     *time.Time       `json:"completed_date"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type ServiceTicketCreateRequest struct {
	CustomerID        string           `json:"customer_id"`
	DeviceDescription string           `json:"device_description"`
	IssueDescription  *string          `json:"issue_description,omitempty"`
	EstimatedCost     *decimal.Decimal `json:"estimated_cost,omitempty"`
	ReceivedDate      string           `json:"received_date,omitempty"`
}

type ServiceTicketUpdateRequest struct {
	DeviceDescription *string          `json:"device_description,omitempty"`
	IssueDescription  *string          `json:"issue_description,omitempty"`
	Status            *string          `json:"status,omitempty"`
	EstimatedCost     *decimal.Decimal `json:"estimated_cost,omitempty"`
	FinalCost         *decimal.Decimal `json:"final_cost,omitempty"`
	CompletedDate     *string          `json:"completed_date,omitempty"`
}

// ServiceItem is a stocked part consumed by a repair. Creating one
// decrements the product's stock; deleting one restores it.
type ServiceItem struct {
	ID         string          `json:"id"`
	ServiceID  string          `json:"service_id"`
	ProductID  string          `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

type ServiceItemCreateRequest struct {
	ServiceID string           `json:"service_id"`
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type Transaction struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	CustomerID      *string           `json:"customer_id"`
	SupplierID      *string           `json:"supplier_id"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	ServiceCharge   decimal.Decimal   `json:"service_charge"`
	Notes           *string           `json:"notes"`
	TransactionDate time.Time         `json:"transaction_date"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []TransactionItem `json:"items"`
}

type TransactionItem struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	CreatedAt     time.Time       `json:"created_at"`
}

type TransactionLineRequest struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type TransactionCreateRequest struct {
	Type            string                   `json:"type"`
	CustomerID      *string                  `json:"customer_id,omitempty"`
	SupplierID      *string                  `json:"supplier_id,omitempty"`
	Notes           *string                  `json:"notes,omitempty"`
	TransactionDate string                   `json:"transaction_date,omitempty"`
	Items           []TransactionLineRequest `json:"items"`
}

type TransactionItemCreateRequest struct {
	TransactionID string           `json:"transaction_id"`
	ProductID     string           `json:"product_id"`
	Quantity      int              `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
}

type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    string          `json:"customer_id"`
	ServiceID     *string         `json:"service_id"`
	TransactionID *string         `json:"transaction_id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	PaidDate      *time.Time      `json:"paid_date"`
	Notes         *string         `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type InvoiceCreateRequest struct {
	CustomerID    string           `json:"customer_id"`
	ServiceID     *string          `json:"service_id,omitempty"`
	TransactionID *string          `json:"transaction_id,omitempty"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	TaxAmount     *decimal.Decimal `json:"tax_amount,omitempty"`
	IssueDate     string           `json:"issue_date,omitempty"`
	DueDate       string           `json:"due_date,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

type InvoiceUpdateRequest struct {
	Status   *string `json:"status,omitempty"`
	PaidDate *string `json:"paid_date,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// POS checkout.

type PosCartItem struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type PosTransactionRequest struct {
	CustomerID    string           `json:"customer_id"`
	ServiceID     *string          `json:"service_id,omitempty"`
	Items         []PosCartItem    `json:"items"`
	TaxRate       *decimal.Decimal `json:"tax_rate,omitempty"`
	ServiceCharge *decimal.Decimal `json:"service_charge,omitempty"`
	Notes         *string          `json:"notes,omitempty"`
}

type PosLineSummary struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type PosTransactionResponse struct {
	Transaction   Transaction      `json:"transaction"`
	Customer      Customer         `json:"customer"`
	Items         []PosLineSummary `json:"items"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	ServiceCharge decimal.Decimal  `json:"service_charge"`
	TaxAmount     decimal.Decimal  `json:"tax_amount"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
}

// Reports.

type ServiceReport struct {
	From               time.Time       `json:"from"`
	To                 time.Time       `json:"to"`
	TotalServices      int             `json:"total_services"`
	CompletedServices  int             `json:"completed_services"`
	InProgressServices int             `json:"in_progress_services"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	AverageServiceCost decimal.Decimal `json:"average_service_cost"`
}

type InventoryReport struct {
	TotalProducts   int             `json:"total_products"`
	LowStockCount   int             `json:"low_stock_count"`
	LowStock        []Product       `json:"low_stock"`
	TotalStockValue decimal.Decimal `json:"total_stock_value"`
}

type SalesSummary struct {
	Period        string          `json:"period"`
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	SaleCount     int             `json:"sale_count"`
	PurchaseCount int             `json:"purchase_count"`
	SaleTotal     decimal.Decimal `json:"sale_total"`
	PurchaseTotal decimal.Decimal `json:"purchase_total"`
	NetAmount     decimal.Decimal `json:"net_amount"`
}

type DashboardSummary struct {
	Date      string          `json:"date"`
	Services  ServiceReport   `json:"services"`
	Inventory InventoryReport `json:"inventory"`
	Sales     SalesSummary    `json:"sales"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	ServiceStatusReceived       = "received"
	ServiceStatusInProgress     = "in_progress"
	ServiceStatusReadyForPickup = "ready_for_pickup"
	ServiceStatusCompleted      = "completed"
)

const (
	TransactionTypePurchase = "purchase"
	TransactionTypeSale     = "sale"
)

const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// IsValidServiceStatus reports whether the status is one of the four
// repair ticket states.
func IsValidServiceStatus(status string) bool {
	switch status {
	case ServiceStatusReceived, ServiceStatusInProgress, ServiceStatusReadyForPickup, ServiceStatusCompleted:
		return true
	default:
		return false
	}
}

func IsValidInvoiceStatus(status string) bool {
	switch status {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

func IsValidTransactionType(txType string) bool {
	return txType == TransactionTypePurchase || txType == TransactionTypeSale
}
