package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"servisku/backend/internal/domain"
	"servisku/backend/internal/store"
)

func seedProduct(t *testing.T, s *Store, stock int) domain.Product {
	t.Helper()
	product, err := s.CreateProduct(context.Background(), domain.Product{
		Name:          "LCD panel",
		PurchasePrice: decimal.RequireFromString("45.00"),
		SellingPrice:  decimal.RequireFromString("65.00"),
		StockQuantity: stock,
		MinStockLevel: 2,
	})
	if err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return *product
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	s := New()
	ctx := context.Background()
	product := seedProduct(t, s, 10)

	const attempts = 50
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateTransaction(ctx, domain.Transaction{
				Type: domain.TransactionTypeSale,
				Items: []domain.TransactionItem{
					{ProductID: product.ID, Quantity: 1, UnitPrice: product.SellingPrice},
				},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, store.ErrInsufficientStock) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 10 {
		t.Fatalf("expected exactly 10 sales to succeed, got %d", succeeded)
	}

	saved, err := s.GetProductByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if saved.StockQuantity != 0 {
		t.Fatalf("expected stock 0, got %d", saved.StockQuantity)
	}
}

func TestTransactionAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()
	ok := seedProduct(t, s, 10)
	scarce, err := s.CreateProduct(ctx, domain.Product{
		Name:          "Battery",
		PurchasePrice: decimal.RequireFromString("12.00"),
		SellingPrice:  decimal.RequireFromString("18.00"),
		StockQuantity: 1,
		MinStockLevel: 2,
	})
	if err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	_, err = s.CreateTransaction(ctx, domain.Transaction{
		Type: domain.TransactionTypeSale,
		Items: []domain.TransactionItem{
			{ProductID: ok.ID, Quantity: 5, UnitPrice: ok.SellingPrice},
			{ProductID: scarce.ID, Quantity: 3, UnitPrice: scarce.SellingPrice},
		},
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	savedOK, _ := s.GetProductByID(ctx, ok.ID)
	savedScarce, _ := s.GetProductByID(ctx, scarce.ID)
	if savedOK.StockQuantity != 10 || savedScarce.StockQuantity != 1 {
		t.Fatalf("expected no partial writes, got stock (%d, %d)", savedOK.StockQuantity, savedScarce.StockQuantity)
	}

	transactions, err := s.ListTransactions(ctx, store.TransactionFilter{})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("expected no transaction records, got %d", len(transactions))
	}
}

func TestDeletePurchaseWhenGoodsSoldOn(t *testing.T) {
	s := New()
	ctx := context.Background()
	product := seedProduct(t, s, 0)

	purchase, err := s.CreateTransaction(ctx, domain.Transaction{
		Type: domain.TransactionTypePurchase,
		Items: []domain.TransactionItem{
			{ProductID: product.ID, Quantity: 5, UnitPrice: product.PurchasePrice},
		},
	})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	if _, err := s.CreateTransaction(ctx, domain.Transaction{
		Type: domain.TransactionTypeSale,
		Items: []domain.TransactionItem{
			{ProductID: product.ID, Quantity: 4, UnitPrice: product.SellingPrice},
		},
	}); err != nil {
		t.Fatalf("sale failed: %v", err)
	}

	// Only 1 unit remains; unwinding the 5-unit purchase would go negative.
	if err := s.DeleteTransaction(ctx, purchase.ID); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	saved, _ := s.GetProductByID(ctx, product.ID)
	if saved.StockQuantity != 1 {
		t.Fatalf("expected stock 1, got %d", saved.StockQuantity)
	}
}

func TestCreateInvoiceRejectsDuplicateNumber(t *testing.T) {
	s := New()
	ctx := context.Background()
	customer, err := s.CreateCustomer(ctx, domain.Customer{Name: "Budi Santoso"})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}

	invoice := domain.Invoice{
		InvoiceNumber: "INV-TEST-1",
		CustomerID:    customer.ID,
		Subtotal:      decimal.RequireFromString("100.00"),
		TotalAmount:   decimal.RequireFromString("100.00"),
	}
	if _, err := s.CreateInvoice(ctx, invoice); err != nil {
		t.Fatalf("first invoice failed: %v", err)
	}
	if _, err := s.CreateInvoice(ctx, invoice); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation on duplicate number, got %v", err)
	}
}

func TestDeleteTicketWithItemsRefused(t *testing.T) {
	s := New()
	ctx := context.Background()
	customer, err := s.CreateCustomer(ctx, domain.Customer{Name: "Budi Santoso"})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	product := seedProduct(t, s, 10)
	ticket, err := s.CreateServiceTicket(ctx, domain.ServiceTicket{
		CustomerID:        customer.ID,
		DeviceDescription: "Laptop, dead battery",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	if _, err := s.CreateServiceItem(ctx, domain.ServiceItem{
		ServiceID: ticket.ID,
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: product.SellingPrice,
	}); err != nil {
		t.Fatalf("create service item failed: %v", err)
	}

	if err := s.DeleteServiceTicket(ctx, ticket.ID); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestConcurrentServiceItemsAgainstSales(t *testing.T) {
	s := New()
	ctx := context.Background()
	customer, err := s.CreateCustomer(ctx, domain.Customer{Name: "Budi Santoso"})
	if err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	ticket, err := s.CreateServiceTicket(ctx, domain.ServiceTicket{
		CustomerID:        customer.ID,
		DeviceDescription: "Phone",
	})
	if err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}
	product := seedProduct(t, s, 20)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(viaService bool) {
			defer wg.Done()
			if viaService {
				_, _ = s.CreateServiceItem(ctx, domain.ServiceItem{
					ServiceID: ticket.ID,
					ProductID: product.ID,
					Quantity:  1,
					UnitPrice: product.SellingPrice,
				})
			} else {
				_, _ = s.CreateTransaction(ctx, domain.Transaction{
					Type: domain.TransactionTypeSale,
					Items: []domain.TransactionItem{
						{ProductID: product.ID, Quantity: 1, UnitPrice: product.SellingPrice},
					},
				})
			}
		}(i%2 == 0)
	}
	wg.Wait()

	saved, _ := s.GetProductByID(ctx, product.ID)
	if saved.StockQuantity < 0 {
		t.Fatalf("stock went negative: %d", saved.StockQuantity)
	}
}
