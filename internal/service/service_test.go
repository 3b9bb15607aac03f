package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"servisku/backend/internal/cache"
	"servisku/backend/internal/domain"
	"servisku/backend/internal/store"
	"servisku/backend/internal/store/memory"
)

func newTestService() *Service {
	repo := memory.New()
	return New(repo, cache.NoopReportCache{}, decimal.Zero, 5*time.Second, zerolog.Nop())
}

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", value, err)
	}
	return parsed
}

func decPtr(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	parsed := dec(t, value)
	return &parsed
}

func strPtr(value string) *string {
	return &value
}

func createTestCustomer(t *testing.T, svc *Service) domain.Customer {
	t.Helper()
	customer, err := svc.CreateCustomer(context.Background(), domain.CustomerCreateRequest{
		Name:  "Budi Santoso",
		Phone: strPtr("0812-1111-2222"),
	})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	return customer
}

func createTestSupplier(t *testing.T, svc *Service) domain.Supplier {
	t.Helper()
	supplier, err := svc.CreateSupplier(context.Background(), domain.SupplierCreateRequest{
		Name:  "PT Sparepart Jaya",
		Phone: strPtr("021-555-0101"),
	})
	if err != nil {
		t.Fatalf("create supplier failed: %v", err)
	}
	return supplier
}

func createTestProduct(t *testing.T, svc *Service, name string, selling string, stock int, minStock int) domain.Product {
	t.Helper()
	product, err := svc.CreateProduct(context.Background(), domain.ProductCreateRequest{
		Name:          name,
		PurchasePrice: dec(t, "10.00"),
		SellingPrice:  dec(t, selling),
		StockQuantity: stock,
		MinStockLevel: minStock,
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createTestTicket(t *testing.T, svc *Service, customerID string) domain.ServiceTicket {
	t.Helper()
	ticket, err := svc.CreateServiceTicket(context.Background(), domain.ServiceTicketCreateRequest{
		CustomerID:        customerID,
		DeviceDescription: "iPhone 12, cracked screen",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	return ticket
}

func TestSaleDecrementsStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	product := createTestProduct(t, svc, "LCD panel", "65.00", 10, 2)

	_, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:       domain.TransactionTypeSale,
		CustomerID: &customer.ID,
		Items:      []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	saved, err := svc.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if saved.StockQuantity != 7 {
		t.Fatalf("expected stock 7, got %d", saved.StockQuantity)
	}
}

func TestSaleInsufficientStockLeavesStockUntouched(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	first := createTestProduct(t, svc, "LCD panel", "65.00", 10, 2)
	second := createTestProduct(t, svc, "Battery", "18.00", 1, 2)

	customer := createTestCustomer(t, svc)
	_, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:       domain.TransactionTypeSale,
		CustomerID: &customer.ID,
		Items: []domain.TransactionLineRequest{
			{ProductID: first.ID, Quantity: 5},
			{ProductID: second.ID, Quantity: 2},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	savedFirst, _ := svc.GetProduct(ctx, first.ID)
	savedSecond, _ := svc.GetProduct(ctx, second.ID)
	if savedFirst.StockQuantity != 10 || savedSecond.StockQuantity != 1 {
		t.Fatalf("expected stock untouched (10, 1), got (%d, %d)", savedFirst.StockQuantity, savedSecond.StockQuantity)
	}
}

func TestPurchaseIncrementsStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := createTestProduct(t, svc, "Charger port", "12.00", 2, 5)

	supplier := createTestSupplier(t, svc)
	_, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:       domain.TransactionTypePurchase,
		SupplierID: &supplier.ID,
		Items:      []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 20}},
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	saved, _ := svc.GetProduct(ctx, product.ID)
	if saved.StockQuantity != 22 {
		t.Fatalf("expected stock 22, got %d", saved.StockQuantity)
	}
}

func TestServiceItemCreateComputesTotalAndDecrementsStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)
	product := createTestProduct(t, svc, "Flex cable", "25.50", 100, 5)

	item, err := svc.CreateServiceItem(ctx, domain.ServiceItemCreateRequest{
		ServiceID: ticket.ID,
		ProductID: product.ID,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("create service item failed: %v", err)
	}
	if !item.TotalPrice.Equal(dec(t, "51.00")) {
		t.Fatalf("expected total 51.00, got %s", item.TotalPrice)
	}

	saved, _ := svc.GetProduct(ctx, product.ID)
	if saved.StockQuantity != 98 {
		t.Fatalf("expected stock 98, got %d", saved.StockQuantity)
	}
}

func TestServiceItemDeleteRestoresStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)
	product := createTestProduct(t, svc, "Flex cable", "25.50", 10, 2)

	item, err := svc.CreateServiceItem(ctx, domain.ServiceItemCreateRequest{
		ServiceID: ticket.ID,
		ProductID: product.ID,
		Quantity:  4,
	})
	if err != nil {
		t.Fatalf("create service item failed: %v", err)
	}

	if err := svc.DeleteServiceItem(ctx, item.ID); err != nil {
		t.Fatalf("delete service item failed: %v", err)
	}

	saved, _ := svc.GetProduct(ctx, product.ID)
	if saved.StockQuantity != 10 {
		t.Fatalf("expected stock restored to 10, got %d", saved.StockQuantity)
	}
}

func TestServiceItemRejectsZeroQuantity(t *testing.T) {
	svc := newTestService()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)
	product := createTestProduct(t, svc, "Flex cable", "25.50", 10, 2)

	_, err := svc.CreateServiceItem(context.Background(), domain.ServiceItemCreateRequest{
		ServiceID: ticket.ID,
		ProductID: product.ID,
		Quantity:  0,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGenerateInvoiceFromService(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)
	product := createTestProduct(t, svc, "Screen assembly", "75.00", 10, 2)

	if _, err := svc.CreateServiceItem(ctx, domain.ServiceItemCreateRequest{
		ServiceID: ticket.ID,
		ProductID: product.ID,
		Quantity:  2,
	}); err != nil {
		t.Fatalf("create service item failed: %v", err)
	}

	if _, err := svc.UpdateServiceTicket(ctx, ticket.ID, domain.ServiceTicketUpdateRequest{
		Status:    strPtr(domain.ServiceStatusCompleted),
		FinalCost: decPtr(t, "120.00"),
	}); err != nil {
		t.Fatalf("update ticket failed: %v", err)
	}

	invoice, err := svc.GenerateInvoiceFromService(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("generate invoice failed: %v", err)
	}
	// Two parts at 75.00 plus 120.00 labor, no tax.
	if !invoice.Subtotal.Equal(dec(t, "270.00")) {
		t.Fatalf("expected subtotal 270.00, got %s", invoice.Subtotal)
	}
	if !invoice.TaxAmount.IsZero() {
		t.Fatalf("expected zero tax, got %s", invoice.TaxAmount)
	}
	if !invoice.TotalAmount.Equal(invoice.Subtotal) {
		t.Fatalf("expected total equal to subtotal, got %s", invoice.TotalAmount)
	}
	if invoice.Status != domain.InvoiceStatusDraft {
		t.Fatalf("expected draft status, got %s", invoice.Status)
	}
	if invoice.ServiceID == nil || *invoice.ServiceID != ticket.ID {
		t.Fatalf("expected invoice linked to ticket %s", ticket.ID)
	}
}

func TestGenerateInvoiceMissingTicketReturnsNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.GenerateInvoiceFromService(context.Background(), "svc-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCustomerPartialUpdatePreservesOtherFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)

	updated, err := svc.UpdateCustomer(ctx, customer.ID, domain.CustomerUpdateRequest{
		Email: strPtr("budi@example.com"),
	})
	if err != nil {
		t.Fatalf("update customer failed: %v", err)
	}
	if updated.Name != customer.Name {
		t.Fatalf("expected name preserved, got %q", updated.Name)
	}
	if updated.Phone == nil || *updated.Phone != *customer.Phone {
		t.Fatalf("expected phone preserved")
	}
	if updated.Email == nil || *updated.Email != "budi@example.com" {
		t.Fatalf("expected email set")
	}
}

func TestUpdateMissingCustomerReturnsNotFound(t *testing.T) {
	svc := newTestService()
	_, err := svc.UpdateCustomer(context.Background(), "cust-missing", domain.CustomerUpdateRequest{
		Name: strPtr("Nobody"),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetCustomerAbsenceReturnsNil(t *testing.T) {
	svc := newTestService()
	customer, err := svc.GetCustomer(context.Background(), "cust-missing")
	if err != nil {
		t.Fatalf("expected no error on absent read, got %v", err)
	}
	if customer != nil {
		t.Fatalf("expected nil customer")
	}
}

func TestDeleteMissingSupplierReturnsNotFound(t *testing.T) {
	svc := newTestService()
	err := svc.DeleteSupplier(context.Background(), "supp-missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLowStockUsesStrictComparison(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	createTestProduct(t, svc, "At threshold", "10.00", 5, 5)
	below := createTestProduct(t, svc, "Below threshold", "10.00", 2, 5)

	low, err := svc.ListLowStockProducts(ctx)
	if err != nil {
		t.Fatalf("low stock list failed: %v", err)
	}
	if len(low) != 1 || low[0].ID != below.ID {
		t.Fatalf("expected only the below-threshold product, got %d entries", len(low))
	}
}

func TestPosCheckoutComputesTotals(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	product := createTestProduct(t, svc, "Tempered glass", "15.00", 50, 5)

	resp, err := svc.CreatePosTransaction(ctx, domain.PosTransactionRequest{
		CustomerID: customer.ID,
		Items:      []domain.PosCartItem{{ProductID: product.ID, Quantity: 2}},
		TaxRate:    decPtr(t, "10"),
	})
	if err != nil {
		t.Fatalf("pos checkout failed: %v", err)
	}
	if !resp.Subtotal.Equal(dec(t, "30.00")) {
		t.Fatalf("expected subtotal 30.00, got %s", resp.Subtotal)
	}
	if !resp.TaxAmount.Equal(dec(t, "3.00")) {
		t.Fatalf("expected tax 3.00, got %s", resp.TaxAmount)
	}
	if !resp.TotalAmount.Equal(dec(t, "33.00")) {
		t.Fatalf("expected total 33.00, got %s", resp.TotalAmount)
	}

	saved, _ := svc.GetProduct(ctx, product.ID)
	if saved.StockQuantity != 48 {
		t.Fatalf("expected stock 48, got %d", saved.StockQuantity)
	}
}

func TestPosCheckoutFallsBackToDefaultTaxRate(t *testing.T) {
	repo := memory.New()
	svc := New(repo, cache.NoopReportCache{}, decimal.RequireFromString("11"), 5*time.Second, zerolog.Nop())
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	product := createTestProduct(t, svc, "Tempered glass", "100.00", 10, 2)

	resp, err := svc.CreatePosTransaction(ctx, domain.PosTransactionRequest{
		CustomerID: customer.ID,
		Items:      []domain.PosCartItem{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("pos checkout failed: %v", err)
	}
	if !resp.TaxAmount.Equal(dec(t, "11.00")) {
		t.Fatalf("expected default 11%% tax of 11.00, got %s", resp.TaxAmount)
	}
}

func TestPosCheckoutAddsServiceCharge(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)
	product := createTestProduct(t, svc, "Tempered glass", "15.00", 50, 5)

	if _, err := svc.UpdateServiceTicket(ctx, ticket.ID, domain.ServiceTicketUpdateRequest{
		Status:    strPtr(domain.ServiceStatusCompleted),
		FinalCost: decPtr(t, "100.00"),
	}); err != nil {
		t.Fatalf("update ticket failed: %v", err)
	}

	resp, err := svc.CreatePosTransaction(ctx, domain.PosTransactionRequest{
		CustomerID: customer.ID,
		ServiceID:  &ticket.ID,
		Items:      []domain.PosCartItem{{ProductID: product.ID, Quantity: 1}},
		TaxRate:    decPtr(t, "10"),
	})
	if err != nil {
		t.Fatalf("pos checkout failed: %v", err)
	}
	if !resp.ServiceCharge.Equal(dec(t, "100.00")) {
		t.Fatalf("expected service charge 100.00, got %s", resp.ServiceCharge)
	}
	// (15 + 100) taxed at 10% = 11.50; total 126.50.
	if !resp.TaxAmount.Equal(dec(t, "11.50")) {
		t.Fatalf("expected tax 11.50, got %s", resp.TaxAmount)
	}
	if !resp.TotalAmount.Equal(dec(t, "126.50")) {
		t.Fatalf("expected total 126.50, got %s", resp.TotalAmount)
	}
}

func TestPosCheckoutRejectsForeignTicket(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := createTestCustomer(t, svc)
	other, err := svc.CreateCustomer(ctx, domain.CustomerCreateRequest{Name: "Siti Rahma"})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	ticket := createTestTicket(t, svc, owner.ID)
	product := createTestProduct(t, svc, "Tempered glass", "15.00", 50, 5)

	if _, err := svc.UpdateServiceTicket(ctx, ticket.ID, domain.ServiceTicketUpdateRequest{
		Status: strPtr(domain.ServiceStatusCompleted),
	}); err != nil {
		t.Fatalf("update ticket failed: %v", err)
	}

	_, err = svc.CreatePosTransaction(ctx, domain.PosTransactionRequest{
		CustomerID: other.ID,
		ServiceID:  &ticket.ID,
		Items:      []domain.PosCartItem{{ProductID: product.ID, Quantity: 1}},
		TaxRate:    decPtr(t, "0"),
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPosCheckoutRejectsUnfinishedTicket(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)
	product := createTestProduct(t, svc, "Tempered glass", "15.00", 50, 5)

	_, err := svc.CreatePosTransaction(ctx, domain.PosTransactionRequest{
		CustomerID: customer.ID,
		ServiceID:  &ticket.ID,
		Items:      []domain.PosCartItem{{ProductID: product.ID, Quantity: 1}},
		TaxRate:    decPtr(t, "0"),
	})
	if !errors.Is(err, store.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestTransactionItemDeleteRestoresStockAndTotal(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := createTestProduct(t, svc, "LCD panel", "65.00", 10, 2)

	customer := createTestCustomer(t, svc)
	tx, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:       domain.TransactionTypeSale,
		CustomerID: &customer.ID,
		Items:      []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	if err := svc.DeleteTransactionItem(ctx, tx.Items[0].ID); err != nil {
		t.Fatalf("delete transaction item failed: %v", err)
	}

	saved, _ := svc.GetProduct(ctx, product.ID)
	if saved.StockQuantity != 10 {
		t.Fatalf("expected stock restored to 10, got %d", saved.StockQuantity)
	}
	reloaded, err := svc.GetTransaction(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get transaction failed: %v", err)
	}
	if !reloaded.TotalAmount.IsZero() {
		t.Fatalf("expected header total zero after removing only item, got %s", reloaded.TotalAmount)
	}
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := createTestProduct(t, svc, "LCD panel", "65.00", 10, 2)

	customer := createTestCustomer(t, svc)
	tx, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:       domain.TransactionTypeSale,
		CustomerID: &customer.ID,
		Items:      []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete transaction failed: %v", err)
	}

	saved, _ := svc.GetProduct(ctx, product.ID)
	if saved.StockQuantity != 10 {
		t.Fatalf("expected stock restored to 10, got %d", saved.StockQuantity)
	}
}

func TestServiceTicketInvalidStatusRejected(t *testing.T) {
	svc := newTestService()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)

	_, err := svc.UpdateServiceTicket(context.Background(), ticket.ID, domain.ServiceTicketUpdateRequest{
		Status: strPtr("repaired"),
	})
	if !errors.Is(err, store.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCompletedStatusDefaultsCompletedDate(t *testing.T) {
	svc := newTestService()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)

	updated, err := svc.UpdateServiceTicket(context.Background(), ticket.ID, domain.ServiceTicketUpdateRequest{
		Status: strPtr(domain.ServiceStatusCompleted),
	})
	if err != nil {
		t.Fatalf("update ticket failed: %v", err)
	}
	if updated.CompletedDate == nil {
		t.Fatalf("expected completed date to be set")
	}
	if !updated.CompletedDate.Equal(domain.DateUTC(time.Now())) {
		t.Fatalf("expected completed date today, got %s", updated.CompletedDate)
	}
}

func TestInvoicePaidStatusDefaultsPaidDate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)

	invoice, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		CustomerID: customer.ID,
		Subtotal:   dec(t, "200.00"),
	})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}

	updated, err := svc.UpdateInvoice(ctx, invoice.ID, domain.InvoiceUpdateRequest{
		Status: strPtr(domain.InvoiceStatusPaid),
	})
	if err != nil {
		t.Fatalf("update invoice failed: %v", err)
	}
	if updated.PaidDate == nil {
		t.Fatalf("expected paid date to be set")
	}
}

func TestCreateTicketForMissingCustomer(t *testing.T) {
	svc := newTestService()
	_, err := svc.CreateServiceTicket(context.Background(), domain.ServiceTicketCreateRequest{
		CustomerID:        "cust-missing",
		DeviceDescription: "Laptop",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProductReferencedByServiceItem(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)
	product := createTestProduct(t, svc, "Flex cable", "25.50", 10, 2)

	if _, err := svc.CreateServiceItem(ctx, domain.ServiceItemCreateRequest{
		ServiceID: ticket.ID,
		ProductID: product.ID,
		Quantity:  1,
	}); err != nil {
		t.Fatalf("create service item failed: %v", err)
	}

	if err := svc.DeleteProduct(ctx, product.ID); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation deleting referenced product, got %v", err)
	}
}

func TestSalesSummaryCountsByType(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := createTestProduct(t, svc, "LCD panel", "65.00", 10, 2)

	customer := createTestCustomer(t, svc)
	supplier := createTestSupplier(t, svc)
	if _, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:       domain.TransactionTypePurchase,
		SupplierID: &supplier.ID,
		Items:      []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 5}},
	}); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:       domain.TransactionTypeSale,
		CustomerID: &customer.ID,
		Items:      []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	summary, err := svc.SalesSummary(ctx, domain.PeriodDaily, "", "")
	if err != nil {
		t.Fatalf("sales summary failed: %v", err)
	}
	if summary.SaleCount != 1 || summary.PurchaseCount != 1 {
		t.Fatalf("expected 1 sale and 1 purchase, got %d/%d", summary.SaleCount, summary.PurchaseCount)
	}
	if !summary.SaleTotal.Equal(dec(t, "130.00")) {
		t.Fatalf("expected sale total 130.00, got %s", summary.SaleTotal)
	}
	if !summary.PurchaseTotal.Equal(dec(t, "50.00")) {
		t.Fatalf("expected purchase total 50.00, got %s", summary.PurchaseTotal)
	}
	if !summary.NetAmount.Equal(dec(t, "80.00")) {
		t.Fatalf("expected net 80.00, got %s", summary.NetAmount)
	}
}

func TestSalesSummaryRejectsUnknownPeriod(t *testing.T) {
	svc := newTestService()
	_, err := svc.SalesSummary(context.Background(), "quarterly", "", "")
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDashboardSummaryAggregates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	createTestTicket(t, svc, customer.ID)
	createTestProduct(t, svc, "Low part", "10.00", 1, 5)

	summary, err := svc.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("dashboard summary failed: %v", err)
	}
	if summary.Services.TotalServices != 1 {
		t.Fatalf("expected 1 service today, got %d", summary.Services.TotalServices)
	}
	if summary.Inventory.LowStockCount != 1 {
		t.Fatalf("expected 1 low-stock product, got %d", summary.Inventory.LowStockCount)
	}
	if summary.Sales.Period != domain.PeriodDaily {
		t.Fatalf("expected daily period, got %s", summary.Sales.Period)
	}
}

func TestAuditLogsRecordedForMutations(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	createTestCustomer(t, svc)

	logs, err := svc.ListAuditLogs(ctx, "", 10)
	if err != nil {
		t.Fatalf("list audit logs failed: %v", err)
	}
	if len(logs) == 0 {
		t.Fatalf("expected at least one audit entry")
	}
	if logs[0].Action != "customer_create" {
		t.Fatalf("expected customer_create action, got %s", logs[0].Action)
	}
}

func TestCreateInvoiceRequiresExistingServiceTicket(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)

	_, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		CustomerID: customer.ID,
		ServiceID:  strPtr("svc-does-not-exist"),
		Subtotal:   dec(t, "100.00"),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing ticket reference, got %v", err)
	}
}

func TestCreateInvoiceRequiresExistingTransaction(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)

	_, err := svc.CreateInvoice(ctx, domain.InvoiceCreateRequest{
		CustomerID:    customer.ID,
		TransactionID: strPtr("tx-does-not-exist"),
		Subtotal:      dec(t, "100.00"),
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing transaction reference, got %v", err)
	}
}

func TestSaleRequiresCustomer(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := createTestProduct(t, svc, "LCD panel", "65.00", 10, 2)

	_, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:  domain.TransactionTypeSale,
		Items: []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 1}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation for sale without customer, got %v", err)
	}

	saved, _ := svc.GetProduct(ctx, product.ID)
	if saved.StockQuantity != 10 {
		t.Fatalf("expected stock untouched at 10, got %d", saved.StockQuantity)
	}
}

func TestPurchaseRequiresSupplier(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	product := createTestProduct(t, svc, "Charger port", "12.00", 2, 5)

	_, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:  domain.TransactionTypePurchase,
		Items: []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 5}},
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation for purchase without supplier, got %v", err)
	}
}

func TestInvoiceNumberDerivedFromTicketID(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	ticket := createTestTicket(t, svc, customer.ID)

	if _, err := svc.UpdateServiceTicket(ctx, ticket.ID, domain.ServiceTicketUpdateRequest{
		Status:    strPtr(domain.ServiceStatusCompleted),
		FinalCost: decPtr(t, "150.00"),
	}); err != nil {
		t.Fatalf("update ticket failed: %v", err)
	}

	invoice, err := svc.GenerateInvoiceFromService(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("generate invoice failed: %v", err)
	}

	fragment := strings.ToUpper(strings.SplitN(ticket.ID, "-", 2)[1][:8])
	if !strings.HasPrefix(invoice.InvoiceNumber, "INV-"+fragment+"-") {
		t.Fatalf("expected number derived from ticket id %s, got %s", ticket.ID, invoice.InvoiceNumber)
	}
}

func TestGetServiceItemAbsentReturnsNil(t *testing.T) {
	svc := newTestService()

	item, err := svc.GetServiceItem(context.Background(), "sitem-missing")
	if err != nil {
		t.Fatalf("expected nil error for absent service item, got %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil service item, got %+v", item)
	}
}

func TestGetTransactionItemRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	customer := createTestCustomer(t, svc)
	product := createTestProduct(t, svc, "LCD panel", "65.00", 10, 2)

	tx, err := svc.CreateTransaction(ctx, domain.TransactionCreateRequest{
		Type:       domain.TransactionTypeSale,
		CustomerID: &customer.ID,
		Items:      []domain.TransactionLineRequest{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	item, err := svc.GetTransactionItem(ctx, tx.Items[0].ID)
	if err != nil {
		t.Fatalf("get transaction item failed: %v", err)
	}
	if item == nil || item.TransactionID != tx.ID {
		t.Fatalf("expected item belonging to %s, got %+v", tx.ID, item)
	}
}
