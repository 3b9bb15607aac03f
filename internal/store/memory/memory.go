package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"servisku/backend/internal/domain"
	"servisku/backend/internal/store"
	"servisku/backend/internal/xid"
)

// Store is an in-memory Repository used in dev mode and in tests.
// A single mutex makes every multi-step mutation atomic, which keeps
// the stock invariant (never negative) race-free without a database.
type Store struct {
	mu                 sync.RWMutex
	customersByID      map[string]domain.Customer
	suppliersByID      map[string]domain.Supplier
	productsByID       map[string]domain.Product
	ticketsByID        map[string]domain.ServiceTicket
	serviceItemsByID   map[string]domain.ServiceItem
	transactionsByID   map[string]domain.Transaction
	invoicesByID       map[string]domain.Invoice
	invoiceIDsByNumber map[string]string
	auditLogs          []domain.AuditLog
}

func New() *Store {
	return &Store{
		customersByID:      make(map[string]domain.Customer),
		suppliersByID:      make(map[string]domain.Supplier),
		productsByID:       make(map[string]domain.Product),
		ticketsByID:        make(map[string]domain.ServiceTicket),
		serviceItemsByID:   make(map[string]domain.ServiceItem),
		transactionsByID:   make(map[string]domain.Transaction),
		invoicesByID:       make(map[string]domain.Invoice),
		invoiceIDsByNumber: make(map[string]string),
	}
}

// NewSeeded returns a store pre-loaded with a small demo dataset so the
// backend is usable immediately when no DATABASE_URL is configured.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	customers := []domain.Customer{
		{ID: "cust-demo-01", Name: "Budi Santoso", Email: ptr("budi@example.com"), Phone: ptr("0812-1111-2222")},
		{ID: "cust-demo-02", Name: "Siti Rahma", Phone: ptr("0813-3333-4444")},
	}
	for _, c := range customers {
		c.CreatedAt = now
		c.UpdatedAt = now
		s.customersByID[c.ID] = c
	}

	suppliers := []domain.Supplier{
		{ID: "supp-demo-01", Name: "PT Sparepart Jaya", Email: ptr("sales@sparepartjaya.example"), Address: ptr("Jl. Elektronik No. 12, Jakarta")},
	}
	for _, sp := range suppliers {
		sp.CreatedAt = now
		sp.UpdatedAt = now
		s.suppliersByID[sp.ID] = sp
	}

	products := []domain.Product{
		{ID: "prod-demo-01", Name: "LCD iPhone 12", PurchasePrice: dec("450000"), SellingPrice: dec("650000"), StockQuantity: 8, MinStockLevel: 3},
		{ID: "prod-demo-02", Name: "Baterai Samsung A52", PurchasePrice: dec("120000"), SellingPrice: dec("185000"), StockQuantity: 15, MinStockLevel: 5},
		{ID: "prod-demo-03", Name: "Konektor Charger Tipe-C", PurchasePrice: dec("25000"), SellingPrice: dec("45000"), StockQuantity: 2, MinStockLevel: 10},
	}
	for _, p := range products {
		p.CreatedAt = now
		p.UpdatedAt = now
		s.productsByID[p.ID] = p
	}

	return s
}

func ptr(v string) *string { return &v }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// Customers.

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.Name) == "" {
		return nil, store.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	s.customersByID[customer.ID] = customer
	created := customer
	return &created, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].CreatedAt.Before(customers[j].CreatedAt) })
	return customers, nil
}

func (s *Store) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.customersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := customer
	return &found, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.customersByID[customer.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	customer.CreatedAt = existing.CreatedAt
	customer.UpdatedAt = time.Now().UTC()
	s.customersByID[customer.ID] = customer
	updated := customer
	return &updated, nil
}

func (s *Store) DeleteCustomer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customersByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.customersByID, id)
	return nil
}

// Suppliers.

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if strings.TrimSpace(supplier.Name) == "" {
		return nil, store.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if supplier.ID == "" {
		supplier.ID = xid.New("supp")
	}
	now := time.Now().UTC()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	s.suppliersByID[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliersByID))
	for _, sp := range s.suppliersByID {
		suppliers = append(suppliers, sp)
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].CreatedAt.Before(suppliers[j].CreatedAt) })
	return suppliers, nil
}

func (s *Store) GetSupplierByID(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, ok := s.suppliersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := supplier
	return &found, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.suppliersByID[supplier.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	supplier.CreatedAt = existing.CreatedAt
	supplier.UpdatedAt = time.Now().UTC()
	s.suppliersByID[supplier.ID] = supplier
	updated := supplier
	return &updated, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliersByID[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.suppliersByID, id)
	return nil
}

// Products.

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" || product.StockQuantity < 0 || product.MinStockLevel < 0 {
		return nil, store.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.productsByID[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.productsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := product
	return &found, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.StockQuantity < 0 || product.MinStockLevel < 0 {
		return nil, store.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.productsByID[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.productsByID[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productsByID[id]; !ok {
		return store.ErrNotFound
	}
	for _, item := range s.serviceItemsByID {
		if item.ProductID == id {
			return store.ErrValidation
		}
	}
	for _, tx := range s.transactionsByID {
		for _, item := range tx.Items {
			if item.ProductID == id {
				return store.ErrValidation
			}
		}
	}
	delete(s.productsByID, id)
	return nil
}

func (s *Store) ListLowStockProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	low := make([]domain.Product, 0, 8)
	for _, p := range s.productsByID {
		if p.StockQuantity < p.MinStockLevel {
			low = append(low, p)
		}
	}
	sort.Slice(low, func(i, j int) bool { return low[i].Name < low[j].Name })
	return low, nil
}

// Service tickets.

func (s *Store) CreateServiceTicket(_ context.Context, ticket domain.ServiceTicket) (*domain.ServiceTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customersByID[ticket.CustomerID]; !ok {
		return nil, store.ErrNotFound
	}
	if ticket.ID == "" {
		ticket.ID = xid.New("svc")
	}
	if ticket.Status == "" {
		ticket.Status = domain.ServiceStatusReceived
	}
	if ticket.ReceivedDate.IsZero() {
		ticket.ReceivedDate = domain.DateUTC(time.Now())
	}
	now := time.Now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.ticketsByID[ticket.ID] = ticket
	created := ticket
	return &created, nil
}

func (s *Store) ListServiceTickets(_ context.Context, filter store.ServiceTicketFilter) ([]domain.ServiceTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]domain.ServiceTicket, 0, len(s.ticketsByID))
	for _, t := range s.ticketsByID {
		if filter.CustomerID != "" && t.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		tickets = append(tickets, t)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].CreatedAt.Before(tickets[j].CreatedAt) })
	return tickets, nil
}

func (s *Store) GetServiceTicketByID(_ context.Context, id string) (*domain.ServiceTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.ticketsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := ticket
	return &found, nil
}

func (s *Store) UpdateServiceTicket(_ context.Context, ticket domain.ServiceTicket) (*domain.ServiceTicket, error) {
	if !domain.IsValidServiceStatus(ticket.Status) {
		return nil, store.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.ticketsByID[ticket.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	ticket.CreatedAt = existing.CreatedAt
	ticket.UpdatedAt = time.Now().UTC()
	s.ticketsByID[ticket.ID] = ticket
	updated := ticket
	return &updated, nil
}

func (s *Store) DeleteServiceTicket(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ticketsByID[id]; !ok {
		return store.ErrNotFound
	}
	for _, item := range s.serviceItemsByID {
		if item.ServiceID == id {
			return store.ErrValidation
		}
	}
	delete(s.ticketsByID, id)
	return nil
}

// Service items. Creation decrements the product's stock; deletion
// restores it. Both run under one lock so no partial write can leak.

func (s *Store) CreateServiceItem(_ context.Context, item domain.ServiceItem) (*domain.ServiceItem, error) {
	if item.Quantity < 1 {
		return nil, store.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ticketsByID[item.ServiceID]; !ok {
		return nil, store.ErrNotFound
	}
	product, ok := s.productsByID[item.ProductID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if product.StockQuantity < item.Quantity {
		return nil, store.ErrInsufficientStock
	}

	product.StockQuantity -= item.Quantity
	product.UpdatedAt = time.Now().UTC()
	s.productsByID[product.ID] = product

	if item.ID == "" {
		item.ID = xid.New("sitem")
	}
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	item.CreatedAt = time.Now().UTC()
	s.serviceItemsByID[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) ListServiceItems(_ context.Context, serviceID string) ([]domain.ServiceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.ServiceItem, 0, 8)
	for _, item := range s.serviceItemsByID {
		if item.ServiceID == serviceID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (s *Store) GetServiceItemByID(_ context.Context, id string) (*domain.ServiceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.serviceItemsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := item
	return &found, nil
}

func (s *Store) DeleteServiceItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.serviceItemsByID[id]
	if !ok {
		return store.ErrNotFound
	}
	if product, ok := s.productsByID[item.ProductID]; ok {
		product.StockQuantity += item.Quantity
		product.UpdatedAt = time.Now().UTC()
		s.productsByID[product.ID] = product
	}
	delete(s.serviceItemsByID, id)
	return nil
}

// Transactions.

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if !domain.IsValidTransactionType(tx.Type) {
		return nil, store.ErrValidation
	}
	if len(tx.Items) == 0 {
		return nil, store.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate and stage every stock change before applying any,
	// so a failing line leaves nothing half-written.
	staged := make(map[string]int, len(tx.Items))
	for _, item := range tx.Items {
		if item.Quantity < 1 {
			return nil, store.ErrValidation
		}
		product, ok := s.productsByID[item.ProductID]
		if !ok {
			return nil, store.ErrNotFound
		}
		delta := item.Quantity
		if tx.Type == domain.TransactionTypeSale {
			delta = -item.Quantity
		}
		staged[item.ProductID] += delta
		if product.StockQuantity+staged[item.ProductID] < 0 {
			return nil, store.ErrInsufficientStock
		}
	}

	now := time.Now().UTC()
	for productID, delta := range staged {
		product := s.productsByID[productID]
		product.StockQuantity += delta
		product.UpdatedAt = now
		s.productsByID[productID] = product
	}

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.TransactionDate.IsZero() {
		tx.TransactionDate = domain.DateUTC(now)
	}
	tx.CreatedAt = now

	items := make([]domain.TransactionItem, 0, len(tx.Items))
	for _, item := range tx.Items {
		if item.ID == "" {
			item.ID = xid.New("titem")
		}
		item.TransactionID = tx.ID
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.CreatedAt = now
		items = append(items, item)
	}
	tx.Items = items
	s.transactionsByID[tx.ID] = tx
	created := tx
	created.Items = append([]domain.TransactionItem(nil), items...)
	return &created, nil
}

func (s *Store) ListTransactions(_ context.Context, filter store.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transactions := make([]domain.Transaction, 0, len(s.transactionsByID))
	for _, tx := range s.transactionsByID {
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() && tx.TransactionDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !tx.TransactionDate.Before(filter.To) {
			continue
		}
		copied := tx
		copied.Items = append([]domain.TransactionItem(nil), tx.Items...)
		transactions = append(transactions, copied)
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].CreatedAt.Before(transactions[j].CreatedAt) })
	return transactions, nil
}

func (s *Store) GetTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := tx
	found.Items = append([]domain.TransactionItem(nil), tx.Items...)
	return &found, nil
}

// DeleteTransaction reverses every item's stock effect before removing
// the record: a sale puts stock back, a purchase takes it out again.
// Reversing a purchase fails with ErrInsufficientStock when the goods
// have already been sold on.
func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return store.ErrNotFound
	}

	staged := make(map[string]int, len(tx.Items))
	for _, item := range tx.Items {
		product, ok := s.productsByID[item.ProductID]
		if !ok {
			continue
		}
		delta := item.Quantity
		if tx.Type == domain.TransactionTypePurchase {
			delta = -item.Quantity
		}
		staged[item.ProductID] += delta
		if product.StockQuantity+staged[item.ProductID] < 0 {
			return store.ErrInsufficientStock
		}
	}

	now := time.Now().UTC()
	for productID, delta := range staged {
		product := s.productsByID[productID]
		product.StockQuantity += delta
		product.UpdatedAt = now
		s.productsByID[productID] = product
	}
	delete(s.transactionsByID, id)
	return nil
}

func (s *Store) AddTransactionItem(_ context.Context, item domain.TransactionItem) (*domain.TransactionItem, error) {
	if item.Quantity < 1 {
		return nil, store.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactionsByID[item.TransactionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	product, ok := s.productsByID[item.ProductID]
	if !ok {
		return nil, store.ErrNotFound
	}

	if tx.Type == domain.TransactionTypeSale {
		if product.StockQuantity < item.Quantity {
			return nil, store.ErrInsufficientStock
		}
		product.StockQuantity -= item.Quantity
	} else {
		product.StockQuantity += item.Quantity
	}
	now := time.Now().UTC()
	product.UpdatedAt = now
	s.productsByID[product.ID] = product

	if item.ID == "" {
		item.ID = xid.New("titem")
	}
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	item.CreatedAt = now
	tx.Items = append(tx.Items, item)
	tx.TotalAmount = tx.TotalAmount.Add(item.TotalPrice)
	s.transactionsByID[tx.ID] = tx

	created := item
	return &created, nil
}

func (s *Store) GetTransactionItemByID(_ context.Context, id string) (*domain.TransactionItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.transactionsByID {
		for _, item := range tx.Items {
			if item.ID == id {
				found := item
				return &found, nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteTransactionItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for txID, tx := range s.transactionsByID {
		for i, item := range tx.Items {
			if item.ID != id {
				continue
			}

			if product, ok := s.productsByID[item.ProductID]; ok {
				if tx.Type == domain.TransactionTypePurchase {
					if product.StockQuantity < item.Quantity {
						return store.ErrInsufficientStock
					}
					product.StockQuantity -= item.Quantity
				} else {
					product.StockQuantity += item.Quantity
				}
				product.UpdatedAt = time.Now().UTC()
				s.productsByID[product.ID] = product
			}

			tx.Items = append(tx.Items[:i], tx.Items[i+1:]...)
			tx.TotalAmount = tx.TotalAmount.Sub(item.TotalPrice)
			s.transactionsByID[txID] = tx
			return nil
		}
	}
	return store.ErrNotFound
}

// Invoices.

func (s *Store) CreateInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if invoice.InvoiceNumber == "" {
		return nil, store.ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoiceIDsByNumber[invoice.InvoiceNumber]; exists {
		return nil, store.ErrValidation
	}
	if invoice.ID == "" {
		invoice.ID = xid.New("inv")
	}
	if invoice.Status == "" {
		invoice.Status = domain.InvoiceStatusDraft
	}
	now := time.Now().UTC()
	if invoice.IssueDate.IsZero() {
		invoice.IssueDate = domain.DateUTC(now)
	}
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	s.invoicesByID[invoice.ID] = invoice
	s.invoiceIDsByNumber[invoice.InvoiceNumber] = invoice.ID
	created := invoice
	return &created, nil
}

func (s *Store) ListInvoices(_ context.Context) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices := make([]domain.Invoice, 0, len(s.invoicesByID))
	for _, inv := range s.invoicesByID {
		invoices = append(invoices, inv)
	}
	sort.Slice(invoices, func(i, j int) bool { return invoices[i].CreatedAt.Before(invoices[j].CreatedAt) })
	return invoices, nil
}

func (s *Store) GetInvoiceByID(_ context.Context, id string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoice, ok := s.invoicesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := invoice
	return &found, nil
}

func (s *Store) UpdateInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if !domain.IsValidInvoiceStatus(invoice.Status) {
		return nil, store.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.invoicesByID[invoice.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	invoice.CreatedAt = existing.CreatedAt
	invoice.UpdatedAt = time.Now().UTC()
	s.invoicesByID[invoice.ID] = invoice
	updated := invoice
	return &updated, nil
}

// Reports.

func (s *Store) GetServiceReport(_ context.Context, from time.Time, to time.Time) (domain.ServiceReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.ServiceReport{From: from, To: to}
	costSum := decimal.Zero
	costCount := 0
	for _, t := range s.ticketsByID {
		if t.ReceivedDate.Before(from) || !t.ReceivedDate.Before(to) {
			continue
		}
		report.TotalServices++
		switch t.Status {
		case domain.ServiceStatusCompleted:
			report.CompletedServices++
			if t.FinalCost != nil {
				report.TotalRevenue = report.TotalRevenue.Add(*t.FinalCost)
			}
		case domain.ServiceStatusInProgress:
			report.InProgressServices++
		}
		if t.FinalCost != nil {
			costSum = costSum.Add(*t.FinalCost)
			costCount++
		}
	}
	if costCount > 0 {
		report.AverageServiceCost = costSum.DivRound(decimal.NewFromInt(int64(costCount)), 2)
	}
	return report, nil
}

func (s *Store) GetInventoryReport(_ context.Context) (domain.InventoryReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := domain.InventoryReport{LowStock: make([]domain.Product, 0, 8)}
	for _, p := range s.productsByID {
		report.TotalProducts++
		if p.StockQuantity < p.MinStockLevel {
			report.LowStockCount++
			report.LowStock = append(report.LowStock, p)
		}
		report.TotalStockValue = report.TotalStockValue.Add(p.PurchasePrice.Mul(decimal.NewFromInt(int64(p.StockQuantity))))
	}
	sort.Slice(report.LowStock, func(i, j int) bool { return report.LowStock[i].Name < report.LowStock[j].Name })
	return report, nil
}

func (s *Store) GetSalesSummary(_ context.Context, from time.Time, to time.Time) (domain.SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := domain.SalesSummary{From: from, To: to}
	for _, tx := range s.transactionsByID {
		if tx.TransactionDate.Before(from) || !tx.TransactionDate.Before(to) {
			continue
		}
		switch tx.Type {
		case domain.TransactionTypeSale:
			summary.SaleCount++
			summary.SaleTotal = summary.SaleTotal.Add(tx.TotalAmount)
		case domain.TransactionTypePurchase:
			summary.PurchaseCount++
			summary.PurchaseTotal = summary.PurchaseTotal.Add(tx.TotalAmount)
		}
	}
	summary.NetAmount = summary.SaleTotal.Sub(summary.PurchaseTotal)
	return summary, nil
}

// Audit logs.

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(logs) < limit; i-- {
		entry := s.auditLogs[i]
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}
