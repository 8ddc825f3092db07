package bakery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/agentdesk/internal/database"
)

// ErrNotFound is returned by store lookups that match no row.
var ErrNotFound = errors.New("bakery: not found")

// Order types.
const (
	OrderImmediate = "immediate"
	OrderCustom    = "custom"
)

// Order statuses.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusReady      = "ready"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Customer is a shop customer identified by phone number.
type Customer struct {
	ID          int64          `json:"id"`
	PhoneNumber string         `json:"phone_number"`
	Name        string         `json:"name,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Order is a placed order.
type Order struct {
	ID            int64     `json:"order_id"`
	CustomerID    int64     `json:"customer_id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	PickupTime    time.Time `json:"pickup_time"`
}

// Product is an inventory item.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Availability describes the stock level for customers.
func (p Product) Availability() string {
	switch {
	case p.Quantity <= 0:
		return "sold out"
	case p.Quantity < 3:
		return "limited"
	default:
		return "in stock"
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		phone_number TEXT NOT NULL UNIQUE,
		name         TEXT NOT NULL DEFAULT '',
		preferences  TEXT NOT NULL DEFAULT '{}',
		created_at   DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id    INTEGER NOT NULL REFERENCES customers(id),
		type           TEXT NOT NULL,
		status         TEXT NOT NULL,
		total_amount   REAL NOT NULL,
		payment_status TEXT NOT NULL,
		created_at     DATETIME NOT NULL,
		pickup_time    DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price       REAL NOT NULL,
		quantity    INTEGER NOT NULL DEFAULT 0
	)`,
}

// DefaultProducts seeds an empty inventory.
var DefaultProducts = []Product{
	{Name: "Chocolate Therapy", Description: "Triple chocolate cake with ganache filling", Price: 45, Quantity: 6},
	{Name: "Red Velvet Dream", Description: "Classic red velvet with cream cheese frosting", Price: 40, Quantity: 4},
	{Name: "Vanilla Bean Bliss", Description: "Madagascar vanilla bean cake with buttercream", Price: 35, Quantity: 2},
}

// Store is the shop's SQLite data access layer.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Seed inserts DefaultProducts when the products table is empty.
	Seed bool
}

// NewStore creates the shop tables if needed. The caller owns db.
func NewStore(ctx context.Context, db *sql.DB, optFns ...func(o *StoreOptions)) (*Store, error) {
	opts := StoreOptions{Clock: time.Now, Seed: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := database.Migrate(ctx, db, schema...); err != nil {
		return nil, fmt.Errorf("bakery: %w", err)
	}

	s := &Store{db: db, clock: opts.Clock}

	if opts.Seed {
		if err := s.seed(ctx); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) now() time.Time { return s.clock().UTC() }

func (s *Store) seed(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return fmt.Errorf("bakery: seed: %w", err)
	}

	if n > 0 {
		return nil
	}

	for _, p := range DefaultProducts {
		if _, err := s.AddProduct(ctx, p); err != nil {
			return err
		}
	}

	return nil
}

// CustomerByPhone returns the customer with phone, or ErrNotFound.
func (s *Store) CustomerByPhone(ctx context.Context, phone string) (*Customer, error) {
	return s.scanCustomer(s.db.QueryRowContext(ctx,
		`SELECT id, phone_number, name, preferences, created_at FROM customers WHERE phone_number = ?`, phone))
}

// Customer returns the customer with id, or ErrNotFound.
func (s *Store) Customer(ctx context.Context, id int64) (*Customer, error) {
	return s.scanCustomer(s.db.QueryRowContext(ctx,
		`SELECT id, phone_number, name, preferences, created_at FROM customers WHERE id = ?`, id))
}

func (s *Store) scanCustomer(row *sql.Row) (*Customer, error) {
	var (
		c     Customer
		prefs string
	)

	if err := row.Scan(&c.ID, &c.PhoneNumber, &c.Name, &prefs, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bakery: scan customer: %w", err)
	}

	if prefs != "" {
		if err := json.Unmarshal([]byte(prefs), &c.Preferences); err != nil {
			return nil, fmt.Errorf("bakery: customer %d preferences: %w", c.ID, err)
		}
	}

	return &c, nil
}

// EnsureCustomer returns the customer for phone, creating it if necessary.
func (s *Store) EnsureCustomer(ctx context.Context, phone string) (*Customer, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (phone_number, created_at) VALUES (?, ?) ON CONFLICT (phone_number) DO NOTHING`,
		phone, s.now())
	if err != nil {
		return nil, fmt.Errorf("bakery: create customer: %w", err)
	}

	return s.CustomerByPhone(ctx, phone)
}

// UpdateCustomerName sets the name of customer id.
func (s *Store) UpdateCustomerName(ctx context.Context, id int64, name string) error {
	return s.exec1(ctx, `UPDATE customers SET name = ? WHERE id = ?`, name, id)
}

// CreateOrder inserts a pending order and returns it.
func (s *Store) CreateOrder(ctx context.Context, customerID int64, orderType string, total float64, pickup time.Time) (*Order, error) {
	now := s.now()
	if pickup.IsZero() {
		pickup = now
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (customer_id, type, status, total_amount, payment_status, created_at, pickup_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		customerID, orderType, StatusPending, total, PaymentPending, now, pickup.UTC())
	if err != nil {
		return nil, fmt.Errorf("bakery: create order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("bakery: create order: %w", err)
	}

	return s.Order(ctx, id)
}

const orderColumns = `id, customer_id, type, status, total_amount, payment_status, created_at, pickup_time`

// Order returns the order with id, or ErrNotFound.
func (s *Store) Order(ctx context.Context, id int64) (*Order, error) {
	var o Order

	err := s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id).
		Scan(&o.ID, &o.CustomerID, &o.Type, &o.Status, &o.TotalAmount, &o.PaymentStatus, &o.CreatedAt, &o.PickupTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("bakery: order %d: %w", id, err)
	}

	return &o, nil
}

// UpdatePaymentStatus sets the payment status of order id. A paid order is
// also confirmed.
func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, status string) error {
	if status == PaymentPaid {
		return s.exec1(ctx,
			`UPDATE orders SET payment_status = ?, status = CASE WHEN status = ? THEN ? ELSE status END WHERE id = ?`,
			status, StatusPending, StatusConfirmed, id)
	}
	if status == PaymentRefunded {
		return s.exec1(ctx, `UPDATE orders SET payment_status = ?, status = ? WHERE id = ?`, status, StatusCancelled, id)
	}
	return s.exec1(ctx, `UPDATE orders SET payment_status = ? WHERE id = ?`, status, id)
}

// CustomerOrders returns the latest orders of a customer, newest first.
func (s *Store) CustomerOrders(ctx context.Context, customerID int64, limit int) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{customerID}

	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return s.queryOrders(ctx, query, args...)
}

// Orders returns orders created in [from, to). Zero bounds are open.
func (s *Store) Orders(ctx context.Context, from, to time.Time) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1 = 1`

	var args []any

	if !from.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		query += ` AND created_at < ?`
		args = append(args, to.UTC())
	}

	return s.queryOrders(ctx, query+` ORDER BY created_at, id`, args...)
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bakery: query orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}

	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Type, &o.Status, &o.TotalAmount, &o.PaymentStatus, &o.CreatedAt, &o.PickupTime); err != nil {
			return nil, fmt.Errorf("bakery: scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// Products lists the inventory ordered by id.
func (s *Store) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, price, quantity FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("bakery: query products: %w", err)
	}
	defer rows.Close()

	products := []Product{}

	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity); err != nil {
			return nil, fmt.Errorf("bakery: scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// AddProduct inserts p and returns it with its new id.
func (s *Store) AddProduct(ctx context.Context, p Product) (*Product, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO products (name, description, price, quantity) VALUES (?, ?, ?, ?)`,
		p.Name, p.Description, p.Price, p.Quantity)
	if err != nil {
		return nil, fmt.Errorf("bakery: add product: %w", err)
	}

	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("bakery: add product: %w", err)
	}

	return &p, nil
}

// UpdateProductPrice sets the price of product id.
func (s *Store) UpdateProductPrice(ctx context.Context, id int64, price float64) error {
	return s.exec1(ctx, `UPDATE products SET price = ? WHERE id = ?`, price, id)
}

// RemoveProduct deletes product id.
func (s *Store) RemoveProduct(ctx context.Context, id int64) error {
	return s.exec1(ctx, `DELETE FROM products WHERE id = ?`, id)
}

// exec1 executes a statement that must affect exactly one row.
func (s *Store) exec1(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("bakery: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bakery: %w", err)
	}

	if n == 0 {
		return ErrNotFound
	}

	return nil
}
