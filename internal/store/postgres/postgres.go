package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"servisku/backend/internal/domain"
	"servisku/backend/internal/store"
	"servisku/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Customers.

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, store.ErrValidation
	}
	if customer.ID == "" {
		customer.ID = xid.New("cust")
	}
	now := time.Now().UTC()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, email, phone, address, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, customer.ID, customer.Name, nullStr(customer.Email), nullStr(customer.Phone), nullStr(customer.Address), customer.CreatedAt, customer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := customer
	return &created, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, address, created_at, updated_at
		FROM customers
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	return customers, rows.Err()
}

func (s *Store) GetCustomerByID(ctx context.Context, id string) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address, created_at, updated_at
		FROM customers
		WHERE id = $1
	`, id)
	customer, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	customer.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = $2, email = $3, phone = $4, address = $5, updated_at = $6
		WHERE id = $1
	`, customer.ID, customer.Name, nullStr(customer.Email), nullStr(customer.Phone), nullStr(customer.Address), customer.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return s.GetCustomerByID(ctx, customer.ID)
}

func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrValidation
		}
		return err
	}
	return requireRow(res)
}

// Suppliers.

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, store.ErrValidation
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("supp")
	}
	now := time.Now().UTC()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, email, phone, address, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, supplier.ID, supplier.Name, nullStr(supplier.Email), nullStr(supplier.Phone), nullStr(supplier.Address), supplier.CreatedAt, supplier.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, address, created_at, updated_at
		FROM suppliers
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var sp domain.Supplier
		var email, phone, address sql.NullString
		if err := rows.Scan(&sp.ID, &sp.Name, &email, &phone, &address, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		sp.Email = strPtr(email)
		sp.Phone = strPtr(phone)
		sp.Address = strPtr(address)
		suppliers = append(suppliers, sp)
	}
	return suppliers, rows.Err()
}

func (s *Store) GetSupplierByID(ctx context.Context, id string) (*domain.Supplier, error) {
	var sp domain.Supplier
	var email, phone, address sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, address, created_at, updated_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&sp.ID, &sp.Name, &email, &phone, &address, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sp.Email = strPtr(email)
	sp.Phone = strPtr(phone)
	sp.Address = strPtr(address)
	return &sp, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET name = $2, email = $3, phone = $4, address = $5, updated_at = $6
		WHERE id = $1
	`, supplier.ID, supplier.Name, nullStr(supplier.Email), nullStr(supplier.Phone), nullStr(supplier.Address), supplier.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return s.GetSupplierByID(ctx, supplier.ID)
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrValidation
		}
		return err
	}
	return requireRow(res)
}

// Products.

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.StockQuantity < 0 || product.MinStockLevel < 0 {
		return nil, store.ErrValidation
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, purchase_price, selling_price, stock_quantity, min_stock_level, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, product.ID, product.Name, nullStr(product.Description), product.PurchasePrice, product.SellingPrice,
		product.StockQuantity, product.MinStockLevel, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		return nil, err
	}

	created := product
	return &created, nil
}

const productColumns = `id, name, description, purchase_price, selling_price, stock_quantity, min_stock_level, created_at, updated_at`

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.StockQuantity < 0 || product.MinStockLevel < 0 {
		return nil, store.ErrValidation
	}
	product.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, description = $3, purchase_price = $4, selling_price = $5,
		    stock_quantity = $6, min_stock_level = $7, updated_at = $8
		WHERE id = $1
	`, product.ID, product.Name, nullStr(product.Description), product.PurchasePrice, product.SellingPrice,
		product.StockQuantity, product.MinStockLevel, product.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return s.GetProductByID(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM products
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM service_items WHERE product_id = $1)
		  AND NOT EXISTS (SELECT 1 FROM transaction_items WHERE product_id = $1)
	`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrValidation
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return store.ErrValidation
		}
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE stock_quantity < min_stock_level
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Service tickets.

const ticketColumns = `id, customer_id, device_description, issue_description, status, estimated_cost, final_cost, received_date, completed_date, created_at, updated_at`

func (s *Store) CreateServiceTicket(ctx context.Context, ticket domain.ServiceTicket) (*domain.ServiceTicket, error) {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_tickets (id, customer_id, device_description, issue_description, status, estimated_cost, final_cost, received_date, completed_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, ticket.ID, ticket.CustomerID, ticket.DeviceDescription, nullStr(ticket.IssueDescription), ticket.Status,
		nullDec(ticket.EstimatedCost), nullDec(ticket.FinalCost), ticket.ReceivedDate, nullTime(ticket.CompletedDate),
		ticket.CreatedAt, ticket.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := ticket
	return &created, nil
}

func (s *Store) ListServiceTickets(ctx context.Context, filter store.ServiceTicketFilter) ([]domain.ServiceTicket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ticketColumns+`
		FROM service_tickets
		WHERE ($1 = '' OR customer_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at
	`, filter.CustomerID, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.ServiceTicket, 0, 64)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (s *Store) GetServiceTicketByID(ctx context.Context, id string) (*domain.ServiceTicket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+ticketColumns+`
		FROM service_tickets
		WHERE id = $1
	`, id)
	ticket, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *Store) UpdateServiceTicket(ctx context.Context, ticket domain.ServiceTicket) (*domain.ServiceTicket, error) {
	if !domain.IsValidServiceStatus(ticket.Status) {
		return nil, store.ErrInvalidStatus
	}
	ticket.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE service_tickets
		SET device_description = $2, issue_description = $3, status = $4,
		    estimated_cost = $5, final_cost = $6, completed_date = $7, updated_at = $8
		WHERE id = $1
	`, ticket.ID, ticket.DeviceDescription, nullStr(ticket.IssueDescription), ticket.Status,
		nullDec(ticket.EstimatedCost), nullDec(ticket.FinalCost), nullTime(ticket.CompletedDate), ticket.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return s.GetServiceTicketByID(ctx, ticket.ID)
}

func (s *Store) DeleteServiceTicket(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM service_tickets
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM service_items WHERE service_id = $1)
	`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrValidation
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM service_tickets WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return store.ErrValidation
		}
		return store.ErrNotFound
	}
	return nil
}

// Service items. The insert and the stock decrement commit together:
// a serializable transaction takes stock only while enough remains.

func (s *Store) CreateServiceItem(ctx context.Context, item domain.ServiceItem) (*domain.ServiceItem, error) {
	if item.Quantity < 1 {
		return nil, store.ErrValidation
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var exists bool
	if err := pgTx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM service_tickets WHERE id = $1)`, item.ServiceID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}

	if err := takeStock(ctx, pgTx, item.ProductID, item.Quantity); err != nil {
		return nil, err
	}

	if item.ID == "" {
		item.ID = xid.New("sitem")
	}
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	item.CreatedAt = time.Now().UTC()

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO service_items (id, service_id, product_id, quantity, unit_price, total_price, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, item.ID, item.ServiceID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, item.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	created := item
	return &created, nil
}

func (s *Store) ListServiceItems(ctx context.Context, serviceID string) ([]domain.ServiceItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service_id, product_id, quantity, unit_price, total_price, created_at
		FROM service_items
		WHERE service_id = $1
		ORDER BY created_at
	`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ServiceItem, 0, 8)
	for rows.Next() {
		var item domain.ServiceItem
		if err := rows.Scan(&item.ID, &item.ServiceID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) GetServiceItemByID(ctx context.Context, id string) (*domain.ServiceItem, error) {
	var item domain.ServiceItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, service_id, product_id, quantity, unit_price, total_price, created_at
		FROM service_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.ServiceID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteServiceItem(ctx context.Context, id string) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	var productID string
	var quantity int
	err = pgTx.QueryRowContext(ctx, `
		SELECT product_id, quantity FROM service_items WHERE id = $1 FOR UPDATE
	`, id).Scan(&productID, &quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}

	if err := returnStock(ctx, pgTx, productID, quantity); err != nil {
		return err
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM service_items WHERE id = $1`, id); err != nil {
		return err
	}
	return pgTx.Commit()
}

// Transactions.

func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if !domain.IsValidTransactionType(tx.Type) || len(tx.Items) == 0 {
		return nil, store.ErrValidation
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	now := time.Now().UTC()
	if tx.TransactionDate.IsZero() {
		tx.TransactionDate = domain.DateUTC(now)
	}
	tx.CreatedAt = now

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (id, type, customer_id, supplier_id, total_amount, service_charge, notes, transaction_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tx.ID, tx.Type, nullStr(tx.CustomerID), nullStr(tx.SupplierID), tx.TotalAmount, tx.ServiceCharge,
		nullStr(tx.Notes), tx.TransactionDate, tx.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	items := make([]domain.TransactionItem, 0, len(tx.Items))
	for _, item := range tx.Items {
		if item.Quantity < 1 {
			return nil, store.ErrValidation
		}
		if tx.Type == domain.TransactionTypeSale {
			if err := takeStock(ctx, pgTx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		} else {
			if err := returnStock(ctx, pgTx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}

		if item.ID == "" {
			item.ID = xid.New("titem")
		}
		item.TransactionID = tx.ID
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.CreatedAt = now

		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO transaction_items (id, transaction_id, product_id, quantity, unit_price, total_price, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, item.ID, item.TransactionID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, item.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	tx.Items = items
	created := tx
	return &created, nil
}

const transactionColumns = `id, type, customer_id, supplier_id, total_amount, service_charge, notes, transaction_date, created_at`

func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE ($1 = '' OR type = $1)
		  AND ($2::timestamptz IS NULL OR transaction_date >= $2)
		  AND ($3::timestamptz IS NULL OR transaction_date < $3)
		ORDER BY created_at
	`, filter.Type, nullZeroTime(filter.From), nullZeroTime(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, 64)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range transactions {
		items, err := s.listTransactionItems(ctx, transactions[i].ID)
		if err != nil {
			return nil, err
		}
		transactions[i].Items = items
	}
	return transactions, nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1
	`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	items, err := s.listTransactionItems(ctx, id)
	if err != nil {
		return nil, err
	}
	tx.Items = items
	return &tx, nil
}

// DeleteTransaction undoes every line's stock effect and removes the
// record. Reversing a purchase whose goods were already sold on fails
// with ErrInsufficientStock rather than driving stock negative.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	var txType string
	err = pgTx.QueryRowContext(ctx, `SELECT type FROM transactions WHERE id = $1 FOR UPDATE`, id).Scan(&txType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}

	rows, err := pgTx.QueryContext(ctx, `
		SELECT product_id, quantity FROM transaction_items WHERE transaction_id = $1
	`, id)
	if err != nil {
		return err
	}
	type line struct {
		productID string
		quantity  int
	}
	lines := make([]line, 0, 8)
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity); err != nil {
			_ = rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, l := range lines {
		if txType == domain.TransactionTypeSale {
			if err := returnStock(ctx, pgTx, l.productID, l.quantity); err != nil {
				return err
			}
		} else {
			if err := takeStock(ctx, pgTx, l.productID, l.quantity); err != nil {
				return err
			}
		}
	}

	if _, err := pgTx.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = $1`, id); err != nil {
		return err
	}
	if _, err := pgTx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return err
	}
	return pgTx.Commit()
}

func (s *Store) AddTransactionItem(ctx context.Context, item domain.TransactionItem) (*domain.TransactionItem, error) {
	if item.Quantity < 1 {
		return nil, store.ErrValidation
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var txType string
	err = pgTx.QueryRowContext(ctx, `SELECT type FROM transactions WHERE id = $1 FOR UPDATE`, item.TransactionID).Scan(&txType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	if txType == domain.TransactionTypeSale {
		if err := takeStock(ctx, pgTx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	} else {
		if err := returnStock(ctx, pgTx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if item.ID == "" {
		item.ID = xid.New("titem")
	}
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	item.CreatedAt = time.Now().UTC()

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transaction_items (id, transaction_id, product_id, quantity, unit_price, total_price, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, item.ID, item.TransactionID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, item.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = pgTx.ExecContext(ctx, `
		UPDATE transactions SET total_amount = total_amount + $2 WHERE id = $1
	`, item.TransactionID, item.TotalPrice)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	created := item
	return &created, nil
}

func (s *Store) GetTransactionItemByID(ctx context.Context, id string) (*domain.TransactionItem, error) {
	var item domain.TransactionItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, transaction_id, product_id, quantity, unit_price, total_price, created_at
		FROM transaction_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.TransactionID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) DeleteTransactionItem(ctx context.Context, id string) error {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = pgTx.Rollback() }()

	var transactionID, productID string
	var quantity int
	var totalPrice decimal.Decimal
	err = pgTx.QueryRowContext(ctx, `
		SELECT transaction_id, product_id, quantity, total_price
		FROM transaction_items
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&transactionID, &productID, &quantity, &totalPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		return err
	}

	var txType string
	if err := pgTx.QueryRowContext(ctx, `SELECT type FROM transactions WHERE id = $1 FOR UPDATE`, transactionID).Scan(&txType); err != nil {
		return err
	}

	if txType == domain.TransactionTypeSale {
		if err := returnStock(ctx, pgTx, productID, quantity); err != nil {
			return err
		}
	} else {
		if err := takeStock(ctx, pgTx, productID, quantity); err != nil {
			return err
		}
	}

	if _, err := pgTx.ExecContext(ctx, `DELETE FROM transaction_items WHERE id = $1`, id); err != nil {
		return err
	}
	if _, err := pgTx.ExecContext(ctx, `
		UPDATE transactions SET total_amount = total_amount - $2 WHERE id = $1
	`, transactionID, totalPrice); err != nil {
		return err
	}
	return pgTx.Commit()
}

func (s *Store) listTransactionItems(ctx context.Context, transactionID string) ([]domain.TransactionItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, product_id, quantity, unit_price, total_price, created_at
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY created_at
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.TransactionItem, 0, 8)
	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.TotalPrice, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Invoices.

const invoiceColumns = `id, invoice_number, customer_id, service_id, transaction_id, subtotal, tax_amount, total_amount, status, issue_date, due_date, paid_date, notes, created_at, updated_at`

func (s *Store) CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if invoice.InvoiceNumber == "" {
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, invoice_number, customer_id, service_id, transaction_id, subtotal, tax_amount, total_amount, status, issue_date, due_date, paid_date, notes, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, nullStr(invoice.ServiceID), nullStr(invoice.TransactionID),
		invoice.Subtotal, invoice.TaxAmount, invoice.TotalAmount, invoice.Status, invoice.IssueDate, invoice.DueDate,
		nullTime(invoice.PaidDate), nullStr(invoice.Notes), invoice.CreatedAt, invoice.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrValidation
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := invoice
	return &created, nil
}

func (s *Store) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0, 64)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (s *Store) GetInvoiceByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1
	`, id)
	invoice, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if !domain.IsValidInvoiceStatus(invoice.Status) {
		return nil, store.ErrInvalidStatus
	}
	invoice.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = $2, paid_date = $3, notes = $4, updated_at = $5
		WHERE id = $1
	`, invoice.ID, invoice.Status, nullTime(invoice.PaidDate), nullStr(invoice.Notes), invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return s.GetInvoiceByID(ctx, invoice.ID)
}

// Reports.

func (s *Store) GetServiceReport(ctx context.Context, from time.Time, to time.Time) (domain.ServiceReport, error) {
	report := domain.ServiceReport{From: from, To: to}
	var totalRevenue, avgCost decimal.NullDecimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $3),
		       COUNT(*) FILTER (WHERE status = $4),
		       SUM(final_cost) FILTER (WHERE status = $3),
		       ROUND(AVG(final_cost), 2)
		FROM service_tickets
		WHERE received_date >= $1 AND received_date < $2
	`, from, to, domain.ServiceStatusCompleted, domain.ServiceStatusInProgress).
		Scan(&report.TotalServices, &report.CompletedServices, &report.InProgressServices, &totalRevenue, &avgCost)
	if err != nil {
		return domain.ServiceReport{}, err
	}
	if totalRevenue.Valid {
		report.TotalRevenue = totalRevenue.Decimal
	}
	if avgCost.Valid {
		report.AverageServiceCost = avgCost.Decimal
	}
	return report, nil
}

func (s *Store) GetInventoryReport(ctx context.Context) (domain.InventoryReport, error) {
	var report domain.InventoryReport
	var stockValue decimal.NullDecimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE stock_quantity < min_stock_level),
		       SUM(purchase_price * stock_quantity)
		FROM products
	`).Scan(&report.TotalProducts, &report.LowStockCount, &stockValue)
	if err != nil {
		return domain.InventoryReport{}, err
	}
	if stockValue.Valid {
		report.TotalStockValue = stockValue.Decimal
	}

	low, err := s.ListLowStockProducts(ctx)
	if err != nil {
		return domain.InventoryReport{}, err
	}
	report.LowStock = low
	return report, nil
}

func (s *Store) GetSalesSummary(ctx context.Context, from time.Time, to time.Time) (domain.SalesSummary, error) {
	summary := domain.SalesSummary{From: from, To: to}
	var saleTotal, purchaseTotal decimal.NullDecimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FILTER (WHERE type = $3),
		       COUNT(*) FILTER (WHERE type = $4),
		       SUM(total_amount) FILTER (WHERE type = $3),
		       SUM(total_amount) FILTER (WHERE type = $4)
		FROM transactions
		WHERE transaction_date >= $1 AND transaction_date < $2
	`, from, to, domain.TransactionTypeSale, domain.TransactionTypePurchase).
		Scan(&summary.SaleCount, &summary.PurchaseCount, &saleTotal, &purchaseTotal)
	if err != nil {
		return domain.SalesSummary{}, err
	}
	if saleTotal.Valid {
		summary.SaleTotal = saleTotal.Decimal
	}
	if purchaseTotal.Valid {
		summary.PurchaseTotal = purchaseTotal.Decimal
	}
	summary.NetAmount = summary.SaleTotal.Sub(summary.PurchaseTotal)
	return summary, nil
}

// Audit logs.

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// takeStock decrements a product's stock inside an open transaction.
// The conditional WHERE makes the check and the write one statement,
// so concurrent sales can never drive stock below zero.
func takeStock(ctx context.Context, pgTx *sql.Tx, productID string, quantity int) error {
	res, err := pgTx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
	`, productID, quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := pgTx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}
		return store.ErrInsufficientStock
	}
	return nil
}

func returnStock(ctx context.Context, pgTx *sql.Tx, productID string, quantity int) error {
	res, err := pgTx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1
	`, productID, quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	var email, phone, address sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &email, &phone, &address, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Customer{}, err
	}
	c.Email = strPtr(email)
	c.Phone = strPtr(phone)
	c.Address = strPtr(address)
	return c, nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var description sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &description, &p.PurchasePrice, &p.SellingPrice, &p.StockQuantity, &p.MinStockLevel, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	p.Description = strPtr(description)
	return p, nil
}

func collectProducts(rows *sql.Rows) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func scanTicket(row rowScanner) (domain.ServiceTicket, error) {
	var t domain.ServiceTicket
	var issue sql.NullString
	var estimated, final decimal.NullDecimal
	var completed sql.NullTime
	if err := row.Scan(&t.ID, &t.CustomerID, &t.DeviceDescription, &issue, &t.Status, &estimated, &final, &t.ReceivedDate, &completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.ServiceTicket{}, err
	}
	t.IssueDescription = strPtr(issue)
	t.EstimatedCost = decPtr(estimated)
	t.FinalCost = decPtr(final)
	t.CompletedDate = timePtr(completed)
	return t, nil
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var t domain.Transaction
	var customerID, supplierID, notes sql.NullString
	if err := row.Scan(&t.ID, &t.Type, &customerID, &supplierID, &t.TotalAmount, &t.ServiceCharge, &notes, &t.TransactionDate, &t.CreatedAt); err != nil {
		return domain.Transaction{}, err
	}
	t.CustomerID = strPtr(customerID)
	t.SupplierID = strPtr(supplierID)
	t.Notes = strPtr(notes)
	return t, nil
}

func scanInvoice(row rowScanner) (domain.Invoice, error) {
	var inv domain.Invoice
	var serviceID, transactionID, notes sql.NullString
	var paidDate sql.NullTime
	if err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.CustomerID, &serviceID, &transactionID, &inv.Subtotal, &inv.TaxAmount, &inv.TotalAmount, &inv.Status, &inv.IssueDate, &inv.DueDate, &paidDate, &notes, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return domain.Invoice{}, err
	}
	inv.ServiceID = strPtr(serviceID)
	inv.TransactionID = strPtr(transactionID)
	inv.PaidDate = timePtr(paidDate)
	inv.Notes = strPtr(notes)
	return inv, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func strPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	v := val.String
	return &v
}

func decPtr(val decimal.NullDecimal) *decimal.Decimal {
	if !val.Valid {
		return nil
	}
	v := val.Decimal
	return &v
}

func timePtr(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	v := val.Time
	return &v
}

func nullStr(val *string) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullDec(val *decimal.Decimal) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func nullZeroTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
