package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wibowo/umkm-backoffice/internal/database"
	"github.com/wibowo/umkm-backoffice/internal/models"
)

// taxRate is the fixed sales tax applied to every order.
var taxRate = decimal.RequireFromString("0.10")

type PlaceOrderRequest struct {
	CustomerID *int64
	Items      []OrderItemRequest
	Notes      string
	OrderDate  time.Time
}

type OrderItemRequest struct {
	ProductID int64
	Quantity  int
}

func (r PlaceOrderRequest) validate() error {
	if len(r.Items) == 0 {
		return validationErr("items", "order must contain at least one item")
	}
	for i, item := range r.Items {
		if item.Quantity < 1 {
			return validationErr(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
	}
	if r.OrderDate.IsZero() {
		return validationErr("order_date", "order date is required")
	}
	return nil
}

// generateOrderNumber builds a human-readable number from the order date and
// random bytes. Collisions are negligible; the unique constraint on
// orders.order_number is the backstop.
func generateOrderNumber(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("ORD-%s-%X", now.UTC().Format("20060102"), id[:6])
}

// addTax derives the tax and grand total from an order subtotal.
func addTax(subtotal decimal.Decimal) (tax, total decimal.Decimal) {
	tax = subtotal.Mul(taxRate)
	total = subtotal.Add(tax)
	return tax, total
}

func customerExists(ctx context.Context, tx *sql.Tx, customerID int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)",
		customerID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check customer exists: %w", err)
	}
	if !exists {
		return database.ErrCustomerNotFound
	}
	return nil
}

// PlaceOrder prices each requested item against the current catalog price,
// decrements stock, and persists the order with its items as one atomic unit.
// Every referenced product is locked for the duration of the transaction, so
// concurrent placements can never drive stock negative.
func PlaceOrder(ctx context.Context, db *sql.DB, req PlaceOrderRequest) (*models.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var order *models.Order

	err := database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		if req.CustomerID != nil {
			if err := customerExists(ctx, tx, *req.CustomerID); err != nil {
				return err
			}
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, item := range req.Items {
			product, err := lockProduct(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}

			if product.Stock < item.Quantity {
				return database.ErrInsufficientStock
			}

			lineSubtotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(lineSubtotal)

			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				ProductName:  product.Name,
				ProductPrice: product.Price,
				Quantity:     item.Quantity,
				Subtotal:     lineSubtotal,
			})
		}

		tax, total := addTax(subtotal)
		orderNumber := generateOrderNumber(req.OrderDate)

		order = &models.Order{}
		err := scanOrder(tx.QueryRowContext(ctx,
			`INSERT INTO orders (order_number, customer_id, subtotal, tax, total, status, notes, order_date, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			 RETURNING `+orderColumns,
			orderNumber, req.CustomerID, subtotal, tax, total,
			models.OrderStatusPending, req.Notes, req.OrderDate), order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range items {
			item := &items[i]
			item.OrderID = order.ID

			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, product_name, product_price, quantity, subtotal, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, NOW())
				 RETURNING id, created_at`,
				item.OrderID, item.ProductID, item.ProductName, item.ProductPrice,
				item.Quantity, item.Subtotal).Scan(&item.ID, &item.CreatedAt)
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		for _, item := range req.Items {
			if err := DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order.Items = items
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

const orderColumns = "id, order_number, customer_id, subtotal, tax, total, status, notes, order_date, created_at, updated_at"

func scanOrder(row interface{ Scan(...interface{}) error }, order *models.Order) error {
	var customerID sql.NullInt64
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&customerID,
		&order.Subtotal,
		&order.Tax,
		&order.Total,
		&order.Status,
		&order.Notes,
		&order.OrderDate,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if customerID.Valid {
		order.CustomerID = &customerID.Int64
	}
	return nil
}

func GetOrder(ctx context.Context, db *sql.DB, id int64) (*models.Order, error) {
	order := &models.Order{}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	err := scanOrder(db.QueryRowContext(ctx, query, id), order)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, product_name, product_price, quantity, subtotal, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductPrice,
			&item.Quantity,
			&item.Subtotal,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	order.Items = items

	return order, nil
}

func ListOrdersCursor(ctx context.Context, db *sql.DB, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE (order_date, id) < ($1, $2)
		ORDER BY order_date DESC, id DESC
		LIMIT $3`

	rows, err := db.QueryContext(ctx, query, cursorData.OrderDate, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			OrderDate: lastOrder.OrderDate,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

type UpdateOrderRequest struct {
	CustomerID *int64
	Status     string
	Notes      string
}

// UpdateOrder reassigns the owning customer, sets the status and replaces the
// notes. Totals and stock are never touched here.
func UpdateOrder(ctx context.Context, db *sql.DB, id int64, req UpdateOrderRequest) (*models.Order, error) {
	if !models.ValidOrderStatus(req.Status) {
		return nil, validationErr("status", "status must be pending, processing, completed or cancelled")
	}

	var order *models.Order

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		if req.CustomerID != nil {
			if err := customerExists(ctx, tx, *req.CustomerID); err != nil {
				return err
			}
		}

		order = &models.Order{}
		err := scanOrder(tx.QueryRowContext(ctx,
			`UPDATE orders
			 SET customer_id = $1, status = $2, notes = $3, updated_at = NOW()
			 WHERE id = $4
			 RETURNING `+orderColumns,
			req.CustomerID, req.Status, req.Notes, id), order)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("update order: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

// restoreStock returns every item's quantity to its product. Caller must hold
// the order row lock.
func restoreStock(ctx context.Context, tx *sql.Tx, orderID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	type restock struct {
		productID int64
		quantity  int
	}
	var restocks []restock

	for rows.Next() {
		var r restock
		if err := rows.Scan(&r.productID, &r.quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		restocks = append(restocks, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	for _, r := range restocks {
		if err := IncrementStock(ctx, tx, r.productID, r.quantity); err != nil {
			return err
		}
	}

	return nil
}

func lockOrderStatus(ctx context.Context, tx *sql.Tx, orderID int64) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", database.ErrOrderNotFound
		}
		return "", fmt.Errorf("lock order %d: %w", orderID, err)
	}
	return status, nil
}

// CancelOrder transitions the order to cancelled and restores the stock its
// items consumed, keeping the record for history. Cancelling an already
// cancelled order is a no-op.
func CancelOrder(ctx context.Context, db *sql.DB, id int64) error {
	return database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		status, err := lockOrderStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status == models.OrderStatusCancelled {
			return nil
		}

		if err := restoreStock(ctx, tx, id); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			models.OrderStatusCancelled, id)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		return nil
	})
}

// DeleteOrder removes the order and its items for good. Stock is restored
// first unless the order was already cancelled, in which case it came back
// when the cancellation happened.
func DeleteOrder(ctx context.Context, db *sql.DB, id int64) error {
	return database.WithRetry(ctx, db, database.SerializableTxOptions(), func(tx *sql.Tx) error {
		status, err := lockOrderStatus(ctx, tx, id)
		if err != nil {
			return err
		}

		if status != models.OrderStatusCancelled {
			if err := restoreStock(ctx, tx, id); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}

		return nil
	})
}
